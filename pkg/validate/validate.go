// Package validate runs struct-tag validation and reports French,
// user-facing messages keyed by JSON field name.
//
// Rules (comma-separated in the `validate` tag):
//
//	required          field must not be zero/empty
//	nullable          if empty, skip the remaining rules
//	email             valid email address
//	url               http/https URL, or a path starting with "/"
//	phone             8 to 15 digits, optional leading "+", spaces allowed
//	numeric           any number
//	integer           whole number
//	min=N / max=N     string: rune length | number: value
//	gt=N gte=N lt=N lte=N
//	between=lo,hi     number or string length, inclusive
//	in=a,b,c          value must be one of the listed items
//	regex=pattern     value must match (avoid commas in pattern)
//
// Numbers may be Go numeric kinds or any fmt.Stringer that prints a number,
// such as decimal.Decimal.
//
//	type Input struct {
//	    Nom   string          `json:"nom"   validate:"required,max=120"`
//	    Prix  decimal.Decimal `json:"prix"  validate:"gt=0"`
//	    Stock int             `json:"stock" validate:"gte=0"`
//	}
package validate

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// Struct validates all exported fields of v that carry a `validate` tag.
// Returns a map of fieldName → error message; empty map means no errors.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}

		value := rv.Field(i)
		name := jsonFieldName(field)
		rules := splitRules(tag)

		if hasRule(rules, "nullable") && isEmpty(value) {
			continue
		}

		for _, rule := range rules {
			if msg := apply(rule, name, value); msg != "" {
				errs[name] = msg
				break // first failing rule per field
			}
		}
	}

	return errs
}

// HasErrors returns true when the errs map is non-empty.
func HasErrors(errs map[string]string) bool { return len(errs) > 0 }

// ─── Rules ────────────────────────────────────────────────────────────────────

// check reports an error message, or "" when the value passes.
type check func(field, param string, v reflect.Value) string

var rules map[string]check

func init() {
	rules = map[string]check{
		"nullable": func(string, string, reflect.Value) string { return "" },
		"required": func(field, _ string, v reflect.Value) string {
			if isEmpty(v) {
				return fmt.Sprintf("Le champ %s est obligatoire.", field)
			}
			return ""
		},
		"email": pattern(emailRE, "Le champ %s doit être une adresse email valide."),
		"phone": pattern(phoneRE, "Le champ %s doit être un numéro de téléphone valide."),
		"url": func(field, _ string, v reflect.Value) string {
			raw := text(v)
			if strings.HasPrefix(raw, "/") {
				return ""
			}
			u, err := url.ParseRequestURI(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return fmt.Sprintf("Le champ %s doit être une URL valide.", field)
			}
			return ""
		},
		"numeric": func(field, _ string, v reflect.Value) string {
			if _, ok := number(v); !ok {
				return fmt.Sprintf("Le champ %s doit être un nombre.", field)
			}
			return ""
		},
		"integer": func(field, _ string, v reflect.Value) string {
			if _, err := strconv.ParseInt(text(v), 10, 64); err != nil {
				return fmt.Sprintf("Le champ %s doit être un entier.", field)
			}
			return ""
		},
		"min": func(field, param string, v reflect.Value) string {
			n := mustParseFloat(param)
			if f, ok := number(v); ok && !isString(v) {
				if f < n {
					return fmt.Sprintf("Le champ %s doit être au moins %s.", field, param)
				}
				return ""
			}
			if float64(len([]rune(text(v)))) < n {
				return fmt.Sprintf("Le champ %s doit contenir au moins %s caractères.", field, param)
			}
			return ""
		},
		"max": func(field, param string, v reflect.Value) string {
			n := mustParseFloat(param)
			if f, ok := number(v); ok && !isString(v) {
				if f > n {
					return fmt.Sprintf("Le champ %s ne doit pas dépasser %s.", field, param)
				}
				return ""
			}
			if float64(len([]rune(text(v)))) > n {
				return fmt.Sprintf("Le champ %s ne doit pas dépasser %s caractères.", field, param)
			}
			return ""
		},
		"gt":  compare(func(a, b float64) bool { return a > b }, "Le champ %s doit être supérieur à %s."),
		"gte": compare(func(a, b float64) bool { return a >= b }, "Le champ %s doit être supérieur ou égal à %s."),
		"lt":  compare(func(a, b float64) bool { return a < b }, "Le champ %s doit être inférieur à %s."),
		"lte": compare(func(a, b float64) bool { return a <= b }, "Le champ %s doit être inférieur ou égal à %s."),
		"between": func(field, param string, v reflect.Value) string {
			lo, hi, found := strings.Cut(param, ",")
			if !found {
				return ""
			}
			l, h := mustParseFloat(lo), mustParseFloat(hi)
			f, ok := number(v)
			if !ok || isString(v) {
				f = float64(len([]rune(text(v))))
			}
			if f < l || f > h {
				return fmt.Sprintf("Le champ %s doit être compris entre %s et %s.", field, lo, hi)
			}
			return ""
		},
		"in": func(field, param string, v reflect.Value) string {
			raw := text(v)
			for _, a := range strings.Split(param, ",") {
				if raw == strings.TrimSpace(a) {
					return ""
				}
			}
			return fmt.Sprintf("La valeur de %s est invalide.", field)
		},
		"regex": func(field, param string, v reflect.Value) string {
			re, err := regexp.Compile(param)
			if err != nil {
				return fmt.Sprintf("Le champ %s a une règle de validation invalide.", field)
			}
			if !re.MatchString(text(v)) {
				return fmt.Sprintf("Le format du champ %s est invalide.", field)
			}
			return ""
		},
	}
}

func apply(rule, field string, v reflect.Value) string {
	key, param, _ := strings.Cut(strings.TrimSpace(rule), "=")
	fn, ok := rules[key]
	if !ok {
		return ""
	}
	return fn(field, param, v)
}

func pattern(re *regexp.Regexp, msg string) check {
	return func(field, _ string, v reflect.Value) string {
		if !re.MatchString(text(v)) {
			return fmt.Sprintf(msg, field)
		}
		return ""
	}
}

func compare(ok func(a, b float64) bool, msg string) check {
	return func(field, param string, v reflect.Value) string {
		f, isNum := number(v)
		if !isNum || !ok(f, mustParseFloat(param)) {
			return fmt.Sprintf(msg, field, param)
		}
		return ""
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

var (
	emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRE = regexp.MustCompile(`^\+?[0-9 ]{8,20}$`)
)

func text(v reflect.Value) string {
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}

func isString(v reflect.Value) bool { return v.Kind() == reflect.String }

// number reads v as a float: numeric kinds directly, everything else through
// its string form.
func number(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(text(v)), 64)
	return f, err == nil
}

func isEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool:
		return false // false is a valid boolean value, not empty
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		return v.IsZero()
	}
	return false
}

func mustParseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	return name
}

// splitRules splits the tag on commas, keeping the values of in= and
// between= together: "required,in=a,b,max=3" → ["required","in=a,b","max=3"].
func splitRules(tag string) []string {
	var out []string
	for _, part := range strings.Split(tag, ",") {
		key, _, _ := strings.Cut(part, "=")
		if _, known := rules[strings.TrimSpace(key)]; known || len(out) == 0 {
			out = append(out, part)
			continue
		}
		last := out[len(out)-1]
		if strings.HasPrefix(last, "in=") || strings.HasPrefix(last, "between=") {
			out[len(out)-1] = last + "," + part
			continue
		}
		out = append(out, part)
	}
	return out
}

func hasRule(rules []string, target string) bool {
	for _, r := range rules {
		if strings.TrimSpace(r) == target {
			return true
		}
	}
	return false
}
