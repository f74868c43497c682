package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/foundation"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/metrics"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

// DecisionKind is the outcome of a tick.
type DecisionKind string

const (
	// DecisionRetick means work ran and the next tick follows shortly.
	DecisionRetick DecisionKind = "retick"
	// DecisionWait means the next service is due sooner than the sleep threshold.
	DecisionWait             DecisionKind = "wait"
	DecisionDeepSleep        DecisionKind = "deep_sleep"
	DecisionDeepSleepForever DecisionKind = "deep_sleep_forever"
)

// Decision records what a tick did. Horizon is set for Wait and DeepSleep.
type Decision struct {
	Kind    DecisionKind
	Horizon time.Duration
	Ran     []string
	At      time.Time
}

// Tick runs every eligible service once, honouring dependencies, and if
// nothing ran decides whether to wait or hand the node to the actuator.
// The only error it returns is an actuation failure.
func (s *Scheduler) Tick(ctx context.Context) (Decision, error) {
	now := s.clock.Now()
	s.recorder.IncTick()

	attempted := s.runEligible(ctx, now)
	if len(attempted) > 0 {
		d := Decision{Kind: DecisionRetick, Ran: attempted, At: now}
		s.setLast(d)
		return d, nil
	}

	horizon := s.horizon(now)
	var d Decision
	switch {
	case horizon.IsNone():
		d = Decision{Kind: DecisionDeepSleepForever, At: now}
	case horizon.Unwrap() >= s.threshold:
		d = Decision{Kind: DecisionDeepSleep, Horizon: horizon.Unwrap(), At: now}
	default:
		d = Decision{Kind: DecisionWait, Horizon: horizon.Unwrap(), At: now}
	}
	s.setLast(d)
	s.recorder.IncSleepDecision(string(d.Kind))

	if d.Kind == DecisionWait {
		slog.Debug("Next service due below sleep threshold", logfields.Horizon(d.Horizon))
		return d, nil
	}
	return d, s.enterSleep(ctx, d)
}

// runEligible scans services in registration order until a full pass runs
// nothing. Each service is attempted at most once. It returns the names of
// attempted services in run order.
func (s *Scheduler) runEligible(ctx context.Context, now time.Time) []string {
	services := s.snapshotServices()
	ran := make(map[string]bool, len(services))
	attempted := make(map[string]bool, len(services))
	var order []string

	satisfied := func(name string) bool {
		if ran[name] {
			return true
		}
		target := s.lookup(name)
		return target != nil && target.Mode() == service.RunModeRunOnce && target.Completed()
	}

	for progress := true; progress; {
		progress = false
		for _, svc := range services {
			name := svc.Name()
			if attempted[name] || !svc.IsEligible(now, satisfied) {
				continue
			}
			attempted[name] = true
			order = append(order, name)
			progress = true

			if s.runService(ctx, svc, now) {
				ran[name] = true
			}
		}
	}
	return order
}

func (s *Scheduler) runService(ctx context.Context, svc *service.Service, now time.Time) bool {
	start := s.clock.Now()
	err := svc.Run(ctx, now)
	s.recorder.ObserveServiceRun(svc.Name(), s.clock.Since(start), metrics.ResultFor(err))
	if err != nil {
		slog.Warn("Service run failed", logfields.Service(svc.Name()), logfields.Error(err))
		return false
	}
	slog.Debug("Service ran", logfields.Service(svc.Name()), logfields.State(string(svc.State())))

	if s.store != nil {
		if err := s.store.SaveService(ctx, svc.Record()); err != nil {
			slog.Warn("Failed to persist service state", logfields.Service(svc.Name()), logfields.Error(err))
		}
	}
	return true
}

// horizon is the earliest time any recurring service can next run, or None
// when no recurring service remains.
func (s *Scheduler) horizon(now time.Time) foundation.Option[time.Duration] {
	best := foundation.None[time.Duration]()
	for _, svc := range s.snapshotServices() {
		if svc.Mode() != service.RunModeRecurring {
			continue
		}
		best = foundation.Earliest(best, s.readyIn(svc, now, map[string]bool{}))
	}
	return best
}

// readyIn is the time until svc can actually run: its own due time, pushed
// back to the latest of its RunAlwaysBeforeRun targets. Completed run-once
// targets do not hold a dependent back.
func (s *Scheduler) readyIn(svc *service.Service, now time.Time, visiting map[string]bool) foundation.Option[time.Duration] {
	name := svc.Name()
	if visiting[name] {
		return foundation.None[time.Duration]()
	}
	visiting[name] = true
	defer delete(visiting, name)

	var own time.Duration
	switch {
	case svc.Mode() == service.RunModeRecurring:
		due := svc.NextDueIn(now)
		if due.IsNone() {
			return due
		}
		own = due.Unwrap()
	case svc.Completed():
		return foundation.Some(time.Duration(0))
	case svc.State() == service.StateSuspended:
		return foundation.None[time.Duration]()
	}

	for _, dep := range svc.Dependencies() {
		target := s.lookup(dep)
		if target == nil {
			return foundation.None[time.Duration]()
		}
		if target.Mode() == service.RunModeRunOnce && target.Completed() {
			continue
		}
		t := s.readyIn(target, now, visiting)
		if t.IsNone() {
			return t
		}
		own = max(own, t.Unwrap())
	}
	return foundation.Some(own)
}

// enterSleep runs the pre-sleep callbacks and calls the actuator. Callback
// failures are logged and do not stop the hand-off.
func (s *Scheduler) enterSleep(ctx context.Context, d Decision) error {
	s.mu.RLock()
	callbacks := make([]preSleepCallback, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb.fn(ctx); err != nil {
			slog.Error("Pre-sleep callback failed", logfields.Callback(cb.name), logfields.Error(err))
		}
	}

	if d.Kind == DecisionDeepSleepForever {
		slog.Info("No recurring work left, sleeping forever", logfields.Decision(string(d.Kind)))
		return s.actuator.DeepSleepForever(ctx)
	}
	slog.Info("Entering deep sleep", logfields.Decision(string(d.Kind)), logfields.Horizon(d.Horizon))
	return s.actuator.DeepSleep(ctx, d.Horizon)
}

// Run validates the dependency graph and ticks until ctx ends or the
// actuator fails. Actuation failures are returned unchanged so callers can
// match them with errors.Is.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Validate(); err != nil {
		return err
	}
	slog.Info("Scheduler started", slog.Int("services", len(s.snapshotServices())), logfields.Horizon(s.threshold))

	for {
		if ctx.Err() != nil {
			return nil
		}
		d, err := s.Tick(ctx)
		if err != nil {
			// Only the context's own error means a clean stop; an actuation
			// failure that races a cancellation is still fatal.
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return nil
			}
			return err
		}

		var pause time.Duration
		switch d.Kind {
		case DecisionRetick:
			pause = s.retickDelay
		case DecisionWait:
			pause = max(d.Horizon, s.retickDelay)
		}
		if pause > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-s.clock.After(pause):
			}
		}
	}
}

func (s *Scheduler) setLast(d Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = d
}

// LastDecision returns the outcome of the most recent tick.
func (s *Scheduler) LastDecision() Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
