// Package selector resolves the "[field:]pattern" argument and filters
// integrations whose target field matches it.
package selector

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// DefaultField is the integration attribute matched when the argument
	// carries no field prefix.
	DefaultField = "name"

	// MatchNothing is used when the pattern part is empty. It only matches an
	// empty value, so any non-empty corpus yields no matches.
	MatchNothing = "^$"
)

// Selector is a resolved field and compiled pattern.
type Selector struct {
	Field string
	Expr  *regexp.Regexp
}

// FieldValuer is implemented by anything the selector can match against.
type FieldValuer interface {
	// FieldString returns the matchable text of a field and whether the field
	// holds a scalar value.
	FieldString(field string) (string, bool)
}

// Split divides raw on its last colon into field and pattern, applying the
// defaults for an absent field or an empty pattern.
func Split(raw string) (field, pattern string) {
	field, pattern = DefaultField, raw

	if i := strings.LastIndex(raw, ":"); i >= 0 {
		if raw[:i] != "" {
			field = raw[:i]
		}
		pattern = raw[i+1:]
	}

	if pattern == "" {
		pattern = MatchNothing
	}

	return field, pattern
}

// Parse resolves raw into a Selector.
func Parse(raw string) (*Selector, error) {
	field, pattern := Split(raw)

	expr, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	return &Selector{Field: field, Expr: expr}, nil
}

// Matches reports whether the selector's pattern occurs anywhere in the
// target field of v.
func (s *Selector) Matches(v FieldValuer) bool {
	value, ok := v.FieldString(s.Field)
	if !ok {
		return false
	}
	return s.Expr.MatchString(value)
}

// String renders the selector for log output.
func (s *Selector) String() string {
	return fmt.Sprintf("%s:%s", s.Field, s.Expr.String())
}

// Match returns the items whose target field matches, preserving input order.
func Match[T FieldValuer](s *Selector, items []T) []T {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if s.Matches(item) {
			matched = append(matched, item)
		}
	}
	return matched
}
