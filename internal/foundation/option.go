package foundation

import (
	"cmp"
	"fmt"
)

// Option holds a value or nothing. Scheduling code uses Option[time.Duration]
// for horizons where None means "never due".
type Option[T any] struct {
	value T
	ok    bool
}

func Some[T any](value T) Option[T] { return Option[T]{value: value, ok: true} }

func None[T any]() Option[T] { return Option[T]{} }

func (o Option[T]) IsSome() bool { return o.ok }

func (o Option[T]) IsNone() bool { return !o.ok }

// Unwrap returns the held value and panics on None.
func (o Option[T]) Unwrap() T {
	if !o.ok {
		panic("foundation: Unwrap on None")
	}
	return o.value
}

// UnwrapOr returns the held value, or fallback on None.
func (o Option[T]) UnwrapOr(fallback T) T {
	if o.ok {
		return o.value
	}
	return fallback
}

// Earliest returns the smaller of two options. None loses to any value.
func Earliest[T cmp.Ordered](a, b Option[T]) Option[T] {
	switch {
	case !a.ok:
		return b
	case !b.ok:
		return a
	case b.value < a.value:
		return b
	}
	return a
}

func (o Option[T]) String() string {
	if o.ok {
		return fmt.Sprint(o.value)
	}
	return "never"
}
