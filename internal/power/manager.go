// Package power hands the node over to an external power controller.
package power

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/metrics"
	"git.home.luguber.info/inful/lorasensor/internal/power/protocol"
	"git.home.luguber.info/inful/lorasensor/internal/retry"
)

var (
	// ErrActuationFailed means no attempt delivered a complete sleep frame.
	ErrActuationFailed = errors.ActuationError("sleep command not delivered to power controller").Build()
	ErrShortWrite      = errors.ChannelError("short write on command channel").Build()
)

// Manager sends sleep commands to the power controller over a write-only
// serial channel. The channel has no acknowledgement path, so every attempt
// in the retry policy is sent regardless of the outcome of earlier ones.
type Manager struct {
	channel  io.Writer
	policy   retry.Policy
	clock    clockwork.Clock
	recorder metrics.Recorder
	hold     bool
}

// Option configures a Manager.
type Option func(*Manager)

func WithPolicy(p retry.Policy) Option { return func(m *Manager) { m.policy = p } }

func WithClock(c clockwork.Clock) Option { return func(m *Manager) { m.clock = c } }

func WithRecorder(r metrics.Recorder) Option { return func(m *Manager) { m.recorder = r } }

// WithHold keeps DeepSleep blocked for the requested duration after a
// successful hand-off, for controllers that may not cut power immediately.
func WithHold(hold bool) Option { return func(m *Manager) { m.hold = hold } }

// NewManager creates a Manager writing to channel.
func NewManager(channel io.Writer, opts ...Option) *Manager {
	m := &Manager{
		channel:  channel,
		policy:   retry.DefaultPolicy(),
		clock:    clockwork.NewRealClock(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DeepSleep asks the controller to power the node down for d, rounded up to whole seconds.
func (m *Manager) DeepSleep(ctx context.Context, d time.Duration) error {
	if err := m.retrySleep(ctx, Seconds(d)); err != nil {
		return err
	}
	if m.hold {
		return m.wait(ctx, d)
	}
	return nil
}

// DeepSleepForever asks the controller to power the node down with no wake time.
func (m *Manager) DeepSleepForever(ctx context.Context) error {
	if err := m.retrySleep(ctx, protocol.ForeverSeconds); err != nil {
		return err
	}
	if m.hold {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

// Status sends a single status request. The reply, if any, is not read.
func (m *Manager) Status(_ context.Context) error {
	frame, err := protocol.Encode(protocol.Status())
	if err != nil {
		return err
	}
	return m.send(frame)
}

// retrySleep transmits the sleep frame on every attempt of the policy and
// waits the policy delay after each one. It is not interrupted by ctx: the
// sequence either completes or the node loses power.
func (m *Manager) retrySleep(_ context.Context, seconds uint32) error {
	frame := protocol.EncodeSleep(seconds)
	delivered := 0
	var lastErr error

	slog.Debug("Starting sleep hand-off",
		logfields.Seconds(seconds),
		logfields.Attempts(m.policy.MaxAttempts),
		slog.Duration("budget", m.policy.Budget()))
	for attempt := 1; attempt <= m.policy.MaxAttempts; attempt++ {
		err := m.send(frame[:])
		m.recorder.IncSleepAttempt(err == nil)
		if err != nil {
			lastErr = err
			slog.Warn("Sleep command attempt failed",
				logfields.Attempt(attempt),
				logfields.Seconds(seconds),
				logfields.Error(err))
		} else {
			delivered++
			slog.Debug("Sleep command sent", logfields.Attempt(attempt), logfields.Seconds(seconds))
		}
		if delay := m.policy.Delay(attempt); delay > 0 {
			m.clock.Sleep(delay)
		}
	}

	if delivered == 0 {
		m.recorder.IncSleepRetryExhausted()
		return ErrActuationFailed.Wrap(lastErr).
			WithContext("attempts", m.policy.MaxAttempts).
			WithContext("seconds", seconds)
	}
	slog.Info("Sleep hand-off complete",
		logfields.Seconds(seconds),
		logfields.Attempts(m.policy.MaxAttempts),
		slog.Int("delivered", delivered))
	return nil
}

func (m *Manager) send(frame []byte) error {
	n, err := m.channel.Write(frame)
	if err != nil {
		return errors.WrapError(err, errors.CategoryChannel, "command channel write failed").Build()
	}
	if n != len(frame) {
		return ErrShortWrite.WithContext("written", n).WithContext("frame", len(frame))
	}
	return nil
}

func (m *Manager) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-m.clock.After(d):
		return nil
	}
}

// Seconds converts d to whole seconds for the sleep payload, rounding up and
// saturating below the forever sentinel.
func Seconds(d time.Duration) uint32 {
	if d <= 0 {
		return 0
	}
	secs := math.Ceil(d.Seconds())
	if secs >= float64(protocol.ForeverSeconds) {
		return protocol.ForeverSeconds - 1
	}
	return uint32(secs)
}
