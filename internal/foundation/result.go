// Package foundation holds small generic helpers shared by the node packages.
package foundation

import "fmt"

// Result carries either a value or an error. Registration style calls
// return it so callers can chain checks without juggling tuples.
type Result[T any, E error] struct {
	value T
	err   E
	ok    bool
}

func Ok[T any, E error](value T) Result[T, E] { return Result[T, E]{value: value, ok: true} }

func Err[T any, E error](err E) Result[T, E] { return Result[T, E]{err: err} }

func (r Result[T, E]) IsOk() bool { return r.ok }

func (r Result[T, E]) IsErr() bool { return !r.ok }

// Unwrap returns the value and panics when the result holds an error.
func (r Result[T, E]) Unwrap() T {
	if !r.ok {
		panic(fmt.Sprintf("foundation: Unwrap on error result: %v", r.err))
	}
	return r.value
}

// UnwrapErr returns the error and panics on success.
func (r Result[T, E]) UnwrapErr() E {
	if r.ok {
		panic("foundation: UnwrapErr on ok result")
	}
	return r.err
}

// ToTuple converts back to the usual (value, error) pair.
func (r Result[T, E]) ToTuple() (T, E) {
	return r.value, r.err
}
