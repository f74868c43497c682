// Package errors provides the classified error primitives used across the node runtime.
//
// Every package builds its sentinels once with the fluent builder and callers
// match them with the standard errors.Is. The category decides how the CLI
// reports a failure: a configuration problem and a failed sleep hand-off exit
// with different codes.
//
// Example usage:
//
//	var ErrActuationFailed = errors.ActuationError("sleep command not delivered").Build()
//
//	err := errors.WrapError(writeErr, errors.CategoryChannel, "serial write failed").
//		WithContext("attempt", attempt).
//		Build()
package errors
