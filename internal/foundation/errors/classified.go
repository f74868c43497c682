package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// ErrorCategory groups failures by the part of the node that produced them.
// The CLI maps each category to its own exit code.
type ErrorCategory string

const (
	// CategoryConfig covers the node file and anything derived from it,
	// including a service graph that cannot be scheduled.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// CategoryActuation is a sleep hand-off that never reached the controller.
	CategoryActuation ErrorCategory = "actuation"
	// CategoryChannel is a single failed write on the command channel.
	CategoryChannel ErrorCategory = "channel"

	CategoryService  ErrorCategory = "service"
	CategoryExchange ErrorCategory = "exchange"
	CategoryStorage  ErrorCategory = "storage"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext is structured detail attached to an error and emitted as log
// attributes.
type ErrorContext map[string]any

// ClassifiedError is the error type returned by every node package.
// Values are immutable; WithContext and Wrap return copies so package level
// sentinels can be decorated safely.
type ClassifiedError struct {
	category  ErrorCategory
	severity  ErrorSeverity
	retryable bool
	message   string
	cause     error
	context   ErrorContext
}

func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }
func (e *ClassifiedError) Message() string         { return e.message }
func (e *ClassifiedError) Cause() error            { return e.cause }
func (e *ClassifiedError) Context() ErrorContext   { return e.context }

// CanRetry reports whether the caller may try the same operation again.
func (e *ClassifiedError) CanRetry() bool { return e.retryable }

func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

func (e *ClassifiedError) clone() *ClassifiedError {
	c := *e
	c.context = maps.Clone(e.context)
	if c.context == nil {
		c.context = ErrorContext{}
	}
	return &c
}

// Wrap returns a copy of e with cause attached.
func (e *ClassifiedError) Wrap(cause error) *ClassifiedError {
	c := e.clone()
	c.cause = cause
	return c
}

// WithContext returns a copy of e carrying key=value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	c := e.clone()
	c.context[key] = value
	return c
}

// Is matches on category and message so a decorated copy of a sentinel
// still satisfies errors.Is against the sentinel.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// HasCategory checks the outermost classified error in err's chain.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.category == category
}

// CategoryOf returns err's category, or CategoryInternal for plain errors.
func CategoryOf(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}
