// Package sensor turns driver readings into averaged samples for observers.
package sensor

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

// SampleObserver receives every new averaged sample.
type SampleObserver interface {
	Update(ctx context.Context, value float64) error
}

// Sensor is a recurring service that reads its driver samplesPerUpdate times,
// averages the readings and publishes the result to its observers.
type Sensor struct {
	mu               sync.Mutex
	name             string
	driver           Driver
	samplesPerUpdate int
	round            bool
	depth            int
	history          []float64
	observers        []SampleObserver
}

// Option configures a Sensor.
type Option func(*Sensor)

// WithSamplesPerUpdate sets how many readings are averaged into one sample.
func WithSamplesPerUpdate(n int) Option {
	return func(s *Sensor) {
		if n > 0 {
			s.samplesPerUpdate = n
		}
	}
}

// WithRounding rounds each averaged sample to the nearest integer.
func WithRounding(on bool) Option { return func(s *Sensor) { s.round = on } }

// WithFilterDepth sets how many samples are kept in the history.
func WithFilterDepth(n int) Option {
	return func(s *Sensor) {
		if n > 0 {
			s.depth = n
		}
	}
}

// New creates a sensor named name reading from driver.
func New(name string, driver Driver, opts ...Option) *Sensor {
	s := &Sensor{name: name, driver: driver, samplesPerUpdate: 1, depth: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sensor) Name() string { return s.name }

// Service creates the recurring scheduler service for the sensor.
func (s *Sensor) Service(interval time.Duration, opts ...service.Option) *service.Service {
	opts = append([]service.Option{service.WithInterval(interval)}, opts...)
	return service.New(s.name, service.RunModeRecurring, service.RunnerFunc(s.Run), opts...)
}

// ObserverAttachNewSample registers o for new samples.
func (s *Sensor) ObserverAttachNewSample(o SampleObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Run reads, averages and publishes one sample. A driver error fails the run
// and nothing is published. Observer errors are logged.
func (s *Sensor) Run(ctx context.Context) error {
	var sum float64
	for i := 0; i < s.samplesPerUpdate; i++ {
		v, err := s.driver.Read(ctx)
		if err != nil {
			return err
		}
		sum += v
	}
	value := sum / float64(s.samplesPerUpdate)
	if s.round {
		value = math.Round(value)
	}

	s.mu.Lock()
	s.history = append(s.history, value)
	if len(s.history) > s.depth {
		s.history = s.history[len(s.history)-s.depth:]
	}
	observers := make([]SampleObserver, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	slog.Debug("New sample", logfields.Service(s.name), slog.Float64("value", value))
	for _, o := range observers {
		if err := o.Update(ctx, value); err != nil {
			slog.Warn("Sample observer failed", logfields.Service(s.name), logfields.Error(err))
		}
	}
	return nil
}

// Samples returns the retained history, oldest first.
func (s *Sensor) Samples() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]float64, len(s.history))
	copy(out, s.history)
	return out
}

// SamplesDelete clears the retained history.
func (s *Sensor) SamplesDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}
