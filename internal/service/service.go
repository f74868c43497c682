// Package service defines the unit of work managed by the node scheduler.
package service

import (
	"context"
	"sync"
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/foundation"
	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// RunMode selects whether a service repeats on an interval or retires after one success.
type RunMode string

const (
	RunModeRecurring RunMode = "recurring"
	RunModeRunOnce   RunMode = "run_once"
)

// State is the lifecycle position of a service.
type State string

const (
	StateIdle      State = "idle"
	StateEligible  State = "eligible"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	// StateSuspended holds a service back until Activate is called.
	StateSuspended State = "suspended"
)

// DependencyKind describes an ordering constraint between two services.
type DependencyKind string

// RunAlwaysBeforeRun requires the target to run in the same tick, before the dependent.
const RunAlwaysBeforeRun DependencyKind = "run_always_before_run"

// ErrRunFailed wraps a failure returned by a service body.
var ErrRunFailed = errors.ServiceError("service run failed").Build()

// Runner is the body of a service.
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context) error

func (f RunnerFunc) Run(ctx context.Context) error { return f(ctx) }

// Record is the persisted run state of a service.
type Record struct {
	Name    string
	LastRun time.Time
	HasRun  bool
	State   State
}

// Service is a unit of periodic or one-shot work.
type Service struct {
	mu        sync.Mutex
	name      string
	mode      RunMode
	interval  time.Duration
	lastRun   time.Time
	hasRun    bool
	activated bool
	state     State
	deps      map[string]DependencyKind
	depOrder  []string
	runner    Runner
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithInterval sets the minimum time between runs of a recurring service.
func WithInterval(d time.Duration) Option {
	return func(s *Service) { s.interval = d }
}

// WithDependency declares an ordering constraint on target.
func WithDependency(target string, kind DependencyKind) Option {
	return func(s *Service) { s.addDependency(target, kind) }
}

// Suspended makes the service wait for Activate before its first run.
func Suspended() Option {
	return func(s *Service) { s.state = StateSuspended }
}

// New creates a service in the Idle state.
func New(name string, mode RunMode, runner Runner, opts ...Option) *Service {
	s := &Service{
		name:   name,
		mode:   mode,
		state:  StateIdle,
		deps:   make(map[string]DependencyKind),
		runner: runner,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Name() string  { return s.name }
func (s *Service) Mode() RunMode { return s.mode }

func (s *Service) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// LastRun returns the time of the last successful run. Check HasRun first:
// the zero time is also a valid run time on a clock started at epoch.
func (s *Service) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

// HasRun reports whether the service has completed at least one successful run.
func (s *Service) HasRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasRun
}

// State returns the stored lifecycle state. StateAt additionally reports Eligible.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// StateAt returns the state as observed at now, reporting Idle services that
// are due as Eligible.
func (s *Service) StateAt(now time.Time) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateIdle && s.dueLocked(now) {
		return StateEligible
	}
	return s.state
}

// Completed reports whether a run-once service has retired.
func (s *Service) Completed() bool {
	return s.State() == StateCompleted
}

// Dependencies returns dependency targets in declaration order.
func (s *Service) Dependencies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.depOrder))
	copy(out, s.depOrder)
	return out
}

// Depend adds an ordering constraint on target.
func (s *Service) Depend(target string, kind DependencyKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addDependency(target, kind)
}

func (s *Service) addDependency(target string, kind DependencyKind) {
	if _, exists := s.deps[target]; !exists {
		s.depOrder = append(s.depOrder, target)
	}
	s.deps[target] = kind
}

// Due reports whether the service wants to run at now, ignoring dependencies.
func (s *Service) Due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueLocked(now)
}

func (s *Service) dueLocked(now time.Time) bool {
	switch s.state {
	case StateCompleted, StateSuspended, StateRunning:
		return false
	}
	if s.mode == RunModeRunOnce {
		return true
	}
	if !s.hasRun || s.activated {
		return true
	}
	return now.Sub(s.lastRun) >= s.interval
}

// IsEligible reports whether the service is due and every RunAlwaysBeforeRun
// target is satisfied in the current tick.
func (s *Service) IsEligible(now time.Time, satisfied func(name string) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dueLocked(now) {
		return false
	}
	for _, target := range s.depOrder {
		if s.deps[target] == RunAlwaysBeforeRun && !satisfied(target) {
			return false
		}
	}
	return true
}

// Run executes the service body. Success records now as the last run time and
// retires run-once services; a failure leaves the run state untouched so the
// service is retried on a later tick.
func (s *Service) Run(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	prev := s.state
	activated := s.activated
	s.state = StateRunning
	s.activated = false
	runner := s.runner
	s.mu.Unlock()

	err := runner.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = prev
		s.activated = s.activated || activated
		return ErrRunFailed.Wrap(err).WithContext("service", s.name)
	}
	s.lastRun = now
	s.hasRun = true
	if s.mode == RunModeRunOnce {
		s.state = StateCompleted
	} else {
		s.state = StateIdle
	}
	return nil
}

// NextDueIn returns the time until a recurring service is due again. Run-once
// services never contribute a horizon and return None.
func (s *Service) NextDueIn(now time.Time) foundation.Option[time.Duration] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == RunModeRunOnce || s.state == StateSuspended || s.state == StateCompleted {
		return foundation.None[time.Duration]()
	}
	if !s.hasRun || s.activated {
		return foundation.Some(time.Duration(0))
	}
	elapsed := now.Sub(s.lastRun)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := s.interval - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return foundation.Some(remaining)
}

// SetInterval changes the interval of a recurring service.
func (s *Service) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = d
}

// Reset clears the run history and returns the service to Idle.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = time.Time{}
	s.hasRun = false
	s.activated = false
	s.state = StateIdle
}

// Activate makes the service runnable on the next tick: a recurring service
// becomes due immediately and a suspended service becomes Idle. Completed
// services are left alone.
func (s *Service) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateCompleted:
		return
	case StateSuspended:
		s.state = StateIdle
	}
	if s.mode == RunModeRecurring {
		s.activated = true
	}
}

// Record returns the persistable run state.
func (s *Service) Record() Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	if state == StateRunning {
		state = StateIdle
	}
	return Record{Name: s.name, LastRun: s.lastRun, HasRun: s.hasRun, State: state}
}

// Restore applies a persisted record. Records for other services are ignored.
func (s *Service) Restore(r Record) {
	if r.Name != s.name {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = r.LastRun
	s.hasRun = r.HasRun
	if r.State == StateCompleted && s.mode == RunModeRunOnce && r.HasRun {
		s.state = StateCompleted
	}
}
