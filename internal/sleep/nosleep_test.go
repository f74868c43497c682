package sleep

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Actuator = (*NoSleep)(nil)

func TestNoSleep_DeepSleepWaitsThenWakes(t *testing.T) {
	clock := clockwork.NewFakeClock()
	woke := 0
	reset := errors.New("reset requested")
	n := NewNoSleep(WithClock(clock), WithWakeHook(func(context.Context) error {
		woke++
		return reset
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- n.DeepSleep(ctx, 45*time.Second) }()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(44 * time.Second)
	select {
	case <-done:
		t.Fatal("returned before the horizon elapsed")
	default:
	}
	clock.Advance(time.Second)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, reset)
	case <-ctx.Done():
		t.Fatal("DeepSleep did not return")
	}
	assert.Equal(t, 1, woke)
}

func TestNoSleep_DeepSleepWithoutHook(t *testing.T) {
	clock := clockwork.NewFakeClock()
	n := NewNoSleep(WithClock(clock))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- n.DeepSleep(ctx, time.Minute) }()
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	require.NoError(t, <-done)
}

func TestNoSleep_ForeverBlocksUntilCanceled(t *testing.T) {
	n := NewNoSleep(WithClock(clockwork.NewFakeClock()))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- n.DeepSleepForever(ctx) }()

	select {
	case <-done:
		t.Fatal("DeepSleepForever returned early")
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
