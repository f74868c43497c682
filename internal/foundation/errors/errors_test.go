package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAndFormat(t *testing.T) {
	err := ConfigError("invalid configuration").WithContext("file", "node.yaml").Build()

	assert.Equal(t, CategoryConfig, err.Category())
	assert.True(t, err.IsFatal())
	assert.Equal(t, "[config:fatal] invalid configuration", err.Error())
	assert.Equal(t, "node.yaml", err.Context()["file"])

	wrapped := WrapError(errors.New("EIO"), CategoryChannel, "serial write failed").Warning().Retryable().Build()
	assert.Equal(t, "[channel:warning] serial write failed: EIO", wrapped.Error())
	assert.True(t, wrapped.CanRetry())
}

func TestSentinelSurvivesDecoration(t *testing.T) {
	sentinel := ActuationError("sleep command not delivered").Build()
	cause := errors.New("short write")

	err := fmt.Errorf("scheduler: %w", sentinel.Wrap(cause).WithContext("attempts", 5))

	assert.ErrorIs(t, err, sentinel)
	assert.ErrorIs(t, err, cause)
	assert.True(t, HasCategory(err, CategoryActuation))
	assert.NotContains(t, sentinel.Context(), "attempts", "sentinel must not be mutated")
	assert.Nil(t, sentinel.Cause())

	assert.NotErrorIs(t, ConfigError("a").Build(), ConfigError("b").Build())
}

func TestBuilderDoesNotShareContext(t *testing.T) {
	b := StorageError("db locked")
	first := b.Build()
	b.WithContext("table", "service_state")
	second := b.Build()

	assert.Empty(t, first.Context())
	assert.Equal(t, "service_state", second.Context()["table"])
}

func TestConstructorDefaults(t *testing.T) {
	tests := []struct {
		builder   *ErrorBuilder
		category  ErrorCategory
		fatal     bool
		retryable bool
	}{
		{ConfigError("x"), CategoryConfig, true, false},
		{ValidationError("x"), CategoryValidation, true, false},
		{ActuationError("x"), CategoryActuation, true, false},
		{ChannelError("x"), CategoryChannel, false, true},
		{ServiceError("x"), CategoryService, false, false},
		{ExchangeError("x"), CategoryExchange, false, true},
		{StorageError("x"), CategoryStorage, false, false},
		{RuntimeError("x"), CategoryRuntime, true, false},
		{InternalError("x"), CategoryInternal, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := tt.builder.Build()
			require.Equal(t, tt.category, err.Category())
			assert.Equal(t, tt.fatal, err.IsFatal())
			assert.Equal(t, tt.retryable, err.CanRetry())
		})
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryInternal, CategoryOf(errors.New("plain")))
	assert.Equal(t, CategoryStorage, CategoryOf(fmt.Errorf("x: %w", StorageError("y").Build())))
}
