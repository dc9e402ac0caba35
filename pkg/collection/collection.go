// Package collection provides generic slice helpers used by the services
// when deriving views (dashboards, conversations, catalog filters).
//
//	actives := collection.Filter(products, func(p models.Product) bool { return p.Active })
//	byClient := collection.GroupBy(messages, func(m models.ChatMessage) string { return m.SenderID })
package collection

import "sort"

// Map transforms each element of slice s using fn.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Filter returns elements of s for which fn returns true. Never nil.
func Filter[T any](s []T, fn func(T) bool) []T {
	out := make([]T, 0, len(s))
	for _, v := range s {
		if fn(v) {
			out = append(out, v)
		}
	}
	return out
}

// Count is len(Filter(s, fn)) without the allocation.
func Count[T any](s []T, fn func(T) bool) int {
	n := 0
	for _, v := range s {
		if fn(v) {
			n++
		}
	}
	return n
}

// GroupBy partitions s by the key returned by fn. keys lists the keys in
// first-seen order.
func GroupBy[T any](s []T, fn func(T) string) (groups map[string][]T, keys []string) {
	groups = make(map[string][]T)
	for _, v := range s {
		k := fn(v)
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], v)
	}
	return groups, keys
}

// SortBy sorts s in place, stably, and returns it.
func SortBy[T any](s []T, less func(a, b T) bool) []T {
	sort.SliceStable(s, func(i, j int) bool { return less(s[i], s[j]) })
	return s
}

// Reduce folds s into a single value using fn, starting with initial.
func Reduce[T, R any](s []T, initial R, fn func(carry R, item T) R) R {
	acc := initial
	for _, v := range s {
		acc = fn(acc, v)
	}
	return acc
}

// Take returns the first n elements.
func Take[T any](s []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
