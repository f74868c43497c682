package foundation

import (
	"fmt"
	"strings"
)

// Normalizer maps operator supplied strings onto typed enum values.
// Lookup ignores case and surrounding whitespace.
type Normalizer[T comparable] struct {
	values   map[string]T
	fallback T
}

func clean(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// NewNormalizer builds a normalizer. fallback is returned for empty input by
// NormalizeWithError and for any unknown input by Normalize.
func NewNormalizer[T comparable](values map[string]T, fallback T) *Normalizer[T] {
	m := make(map[string]T, len(values))
	for k, v := range values {
		m[clean(k)] = v
	}
	return &Normalizer[T]{values: m, fallback: fallback}
}

func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.values[clean(raw)]; ok {
		return v
	}
	return n.fallback
}

// NormalizeWithError is the strict variant: unknown non-empty input fails.
func (n *Normalizer[T]) NormalizeWithError(raw string) (T, error) {
	key := clean(raw)
	if key == "" {
		return n.fallback, nil
	}
	if v, ok := n.values[key]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("unknown value %q", raw)
}
