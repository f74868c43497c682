package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError starts a builder whose cause is err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	b.err.retryable = true
	return b
}

func (b *ErrorBuilder) Build() *ClassifiedError {
	return b.err.clone()
}

// ConfigError is an operator error in the node file. Always fatal.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// ActuationError is terminal: the scheduler stops when sleep cannot be handed off.
func ActuationError(message string) *ErrorBuilder {
	return NewError(CategoryActuation, message).Fatal()
}

func ChannelError(message string) *ErrorBuilder {
	return NewError(CategoryChannel, message).Retryable()
}

func ServiceError(message string) *ErrorBuilder {
	return NewError(CategoryService, message)
}

// ExchangeError failures leave the message queued for the next exchange run.
func ExchangeError(message string) *ErrorBuilder {
	return NewError(CategoryExchange, message).Retryable()
}

func StorageError(message string) *ErrorBuilder {
	return NewError(CategoryStorage, message)
}

func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
