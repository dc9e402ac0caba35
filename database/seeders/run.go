// Package seeders holds the data seeders run by `mazraa seed` and, for the
// default categories, on every server boot.
//
//	func init() {
//	    seeders.Register("categories", SeedCategories)
//	}
package seeders

import (
	"context"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/pkg/logger"
)

// SeederFunc seeds data through the storefront services.
type SeederFunc func(ctx context.Context, s *services.Services) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder; seeders run in registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll executes every registered seeder and stops on the first error.
func RunAll(ctx context.Context, s *services.Services) error {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	for _, e := range current {
		logger.Info("seeder: running", "name", e.name)
		if err := e.fn(ctx, s); err != nil {
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
	}
	return nil
}

func init() {
	Register("categories", SeedCategories)
}

// SeedCategories installs the default categories on an empty store.
func SeedCategories(ctx context.Context, s *services.Services) error {
	n, err := s.Categories.SeedDefaults(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		logger.Info("seeder: default categories created", "count", n)
	}
	return nil
}
