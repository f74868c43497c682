package sleep

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/lorasensor/internal/logfields"
)

// WakeHook runs after NoSleep has idled for the requested duration.
type WakeHook func(ctx context.Context) error

// NoSleep idles in-process instead of powering down. It is used during
// bring-up and on hosts without a power controller.
type NoSleep struct {
	clock clockwork.Clock
	wake  WakeHook
}

// NoSleepOption configures a NoSleep actuator.
type NoSleepOption func(*NoSleep)

// WithClock sets the clock used to idle.
func WithClock(c clockwork.Clock) NoSleepOption {
	return func(n *NoSleep) { n.clock = c }
}

// WithWakeHook sets the hook called when a timed sleep ends. Returning an
// error propagates out of DeepSleep, which is how a caller requests a reset.
func WithWakeHook(h WakeHook) NoSleepOption {
	return func(n *NoSleep) { n.wake = h }
}

// NewNoSleep creates a NoSleep actuator on the real clock.
func NewNoSleep(opts ...NoSleepOption) *NoSleep {
	n := &NoSleep{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *NoSleep) DeepSleep(ctx context.Context, d time.Duration) error {
	slog.Info("Idling instead of deep sleep", logfields.Horizon(d))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-n.clock.After(d):
	}
	if n.wake != nil {
		return n.wake(ctx)
	}
	return nil
}

func (n *NoSleep) DeepSleepForever(ctx context.Context) error {
	slog.Info("Idling forever instead of deep sleep")
	<-ctx.Done()
	return ctx.Err()
}
