// Package scheduler runs services cooperatively and decides when the node sleeps.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/lorasensor/internal/foundation"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/metrics"
	"git.home.luguber.info/inful/lorasensor/internal/service"
	"git.home.luguber.info/inful/lorasensor/internal/sleep"
)

// DefaultDeepSleepThreshold is the shortest idle horizon worth a deep sleep.
const DefaultDeepSleepThreshold = 5 * time.Second

// DefaultRetickDelay is the pause between a tick that ran work and the next one.
const DefaultRetickDelay = 100 * time.Millisecond

// StateStore persists service run state after every successful run.
type StateStore interface {
	SaveService(ctx context.Context, rec service.Record) error
}

// PreSleepFunc is called before the actuator takes over.
type PreSleepFunc func(ctx context.Context) error

type preSleepCallback struct {
	name string
	fn   PreSleepFunc
}

// Scheduler owns the registered services and the sleep decision.
type Scheduler struct {
	mu          sync.RWMutex
	services    []*service.Service
	byName      map[string]*service.Service
	callbacks   []preSleepCallback
	actuator    sleep.Actuator
	clock       clockwork.Clock
	threshold   time.Duration
	retickDelay time.Duration
	recorder    metrics.Recorder
	store       StateStore
	last        Decision
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithClock(c clockwork.Clock) Option { return func(s *Scheduler) { s.clock = c } }

// WithDeepSleepThreshold sets the minimum horizon handed to the actuator.
func WithDeepSleepThreshold(d time.Duration) Option {
	return func(s *Scheduler) { s.threshold = d }
}

func WithRetickDelay(d time.Duration) Option { return func(s *Scheduler) { s.retickDelay = d } }

func WithRecorder(r metrics.Recorder) Option { return func(s *Scheduler) { s.recorder = r } }

func WithStateStore(st StateStore) Option { return func(s *Scheduler) { s.store = st } }

// New creates a scheduler that hands idle periods to actuator.
func New(actuator sleep.Actuator, opts ...Option) *Scheduler {
	s := &Scheduler{
		byName:      make(map[string]*service.Service),
		actuator:    actuator,
		clock:       clockwork.NewRealClock(),
		threshold:   DefaultDeepSleepThreshold,
		retickDelay: DefaultRetickDelay,
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a service. Registration order is the tie-break order within
// a tick. A registration that would close a dependency cycle is rejected.
func (s *Scheduler) Register(svc *service.Service) foundation.Result[struct{}, error] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if svc == nil || svc.Name() == "" {
		return foundation.Err[struct{}, error](ErrInvalidService.WithContext("reason", "service name cannot be empty"))
	}
	name := svc.Name()
	if _, exists := s.byName[name]; exists {
		return foundation.Err[struct{}, error](ErrDuplicateService.WithContext("service", name))
	}

	s.byName[name] = svc
	if cycle := s.findCycle(name); cycle != nil {
		delete(s.byName, name)
		return foundation.Err[struct{}, error](ErrDependencyCycle.WithContext("cycle", cycle))
	}
	s.services = append(s.services, svc)

	slog.Debug("Service registered",
		logfields.Service(name),
		logfields.RunMode(string(svc.Mode())),
		slog.Any("dependencies", svc.Dependencies()))
	return foundation.Ok[struct{}, error](struct{}{})
}

// Service looks up a registered service by name.
func (s *Scheduler) Service(name string) foundation.Option[*service.Service] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if svc, ok := s.byName[name]; ok {
		return foundation.Some(svc)
	}
	return foundation.None[*service.Service]()
}

// AddPreSleepCallback appends a hook run, in registration order, before every sleep.
func (s *Scheduler) AddPreSleepCallback(name string, fn PreSleepFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, preSleepCallback{name: name, fn: fn})
}

// Validate checks the dependency graph: every target must be registered and
// the graph must be acyclic.
func (s *Scheduler) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, svc := range s.services {
		for _, target := range svc.Dependencies() {
			if _, ok := s.byName[target]; !ok {
				return ErrUnknownDependency.
					WithContext("service", svc.Name()).
					WithContext("dependency", target)
			}
		}
	}
	if _, err := s.calculateOrder(); err != nil {
		return err
	}
	return nil
}

// findCycle returns the dependency path from name back to itself, or nil.
// Unregistered targets are skipped; Validate reports them.
func (s *Scheduler) findCycle(name string) []string {
	visited := make(map[string]bool)
	var path []string

	var visit func(string) bool
	visit = func(current string) bool {
		svc, ok := s.byName[current]
		if !ok {
			return false
		}
		for _, dep := range svc.Dependencies() {
			if dep == name {
				path = append(path, current, dep)
				return true
			}
			if visited[dep] {
				continue
			}
			visited[dep] = true
			if visit(dep) {
				path = append([]string{current}, path...)
				return true
			}
		}
		return false
	}

	if visit(name) {
		return path
	}
	return nil
}

// calculateOrder returns services with every dependency before its dependents.
func (s *Scheduler) calculateOrder() ([]string, error) {
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(name string) error {
		if visiting[name] {
			return ErrDependencyCycle.WithContext("service", name)
		}
		if visited[name] {
			return nil
		}
		visiting[name] = true

		if svc, ok := s.byName[name]; ok {
			for _, dep := range svc.Dependencies() {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visiting[name] = false
		visited[name] = true
		order = append(order, name)
		return nil
	}

	for _, svc := range s.services {
		if err := visit(svc.Name()); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (s *Scheduler) snapshotServices() []*service.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*service.Service, len(s.services))
	copy(out, s.services)
	return out
}

func (s *Scheduler) lookup(name string) *service.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byName[name]
}
