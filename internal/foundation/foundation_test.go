package foundation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult(t *testing.T) {
	ok := Ok[string, error]("registered")
	assert.True(t, ok.IsOk())
	assert.False(t, ok.IsErr())
	assert.Equal(t, "registered", ok.Unwrap())
	assert.Panics(t, func() { _ = ok.UnwrapErr() })

	cause := errors.New("duplicate")
	failed := Err[string, error](cause)
	require.True(t, failed.IsErr())
	assert.ErrorIs(t, failed.UnwrapErr(), cause)
	v, err := failed.ToTuple()
	assert.Empty(t, v)
	assert.ErrorIs(t, err, cause)
	assert.Panics(t, func() { _ = failed.Unwrap() })
}

func TestOption(t *testing.T) {
	due := Some(5 * time.Second)
	require.True(t, due.IsSome())
	assert.Equal(t, 5*time.Second, due.Unwrap())
	assert.Equal(t, "5s", due.String())

	never := None[time.Duration]()
	assert.True(t, never.IsNone())
	assert.Equal(t, time.Minute, never.UnwrapOr(time.Minute))
	assert.Equal(t, "never", never.String())
	assert.Panics(t, func() { _ = never.Unwrap() })
}

func TestEarliest(t *testing.T) {
	never := None[time.Duration]()

	assert.True(t, Earliest(never, never).IsNone())
	assert.Equal(t, time.Second, Earliest(never, Some(time.Second)).Unwrap())
	assert.Equal(t, time.Second, Earliest(Some(time.Second), never).Unwrap())
	assert.Equal(t, time.Second, Earliest(Some(3*time.Second), Some(time.Second)).Unwrap())
	assert.Equal(t, time.Duration(0), Earliest(Some(time.Duration(0)), Some(time.Second)).Unwrap())
}

func TestNormalizer(t *testing.T) {
	type mode string
	n := NewNormalizer(map[string]mode{"Power": "power", "none": "none"}, mode("none"))

	assert.Equal(t, mode("power"), n.Normalize("  POWER "))
	assert.Equal(t, mode("none"), n.Normalize("bogus"))

	got, err := n.NormalizeWithError("")
	require.NoError(t, err)
	assert.Equal(t, mode("none"), got)

	_, err = n.NormalizeWithError("bogus")
	assert.Error(t, err)
}
