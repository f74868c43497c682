// Package status periodically reports the scheduler state.
package status

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/scheduler"
)

// Source is the scheduler view the reporter reads.
type Source interface {
	Snapshot() []scheduler.ServiceStatus
	LastDecision() scheduler.Decision
}

// Publisher sends an encoded report. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Report is one status document.
type Report struct {
	Device   string                    `json:"device"`
	Time     time.Time                 `json:"time"`
	Decision string                    `json:"decision,omitempty"`
	Horizon  time.Duration             `json:"horizon,omitempty"`
	Services []scheduler.ServiceStatus `json:"services"`
}

// Reporter runs a gocron job that logs, and optionally publishes, a Report.
type Reporter struct {
	scheduler gocron.Scheduler
	source    Source
	device    string
	interval  time.Duration
	publisher Publisher
	subject   string
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithPublisher publishes every report on subject.
func WithPublisher(p Publisher, subject string) Option {
	return func(r *Reporter) {
		r.publisher = p
		r.subject = subject
	}
}

// New creates a reporter for source. Call Start to schedule it.
func New(source Source, device string, interval time.Duration, opts ...Option) (*Reporter, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create gocron scheduler").Build()
	}
	r := &Reporter{scheduler: s, source: source, device: device, interval: interval}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start schedules the report job.
func (r *Reporter) Start(ctx context.Context) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(func() {
			if err := r.Report(ctx); err != nil {
				slog.Warn("Status report failed", logfields.Error(err))
			}
		}),
		gocron.WithName("status-report"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create status job").Build()
	}
	slog.Info("Starting status reporter", logfields.Horizon(r.interval))
	r.scheduler.Start()
	return nil
}

// Stop shuts the job scheduler down.
func (r *Reporter) Stop() error {
	slog.Info("Stopping status reporter")
	return r.scheduler.Shutdown()
}

// Build assembles the current report.
func (r *Reporter) Build() Report {
	d := r.source.LastDecision()
	return Report{
		Device:   r.device,
		Time:     time.Now().UTC(),
		Decision: string(d.Kind),
		Horizon:  d.Horizon,
		Services: r.source.Snapshot(),
	}
}

// Report logs the current status and publishes it when a publisher is set.
func (r *Reporter) Report(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	rep := r.Build()
	for _, st := range rep.Services {
		attrs := []any{logfields.Service(st.Name), logfields.State(st.State)}
		if st.NextDueIn != nil {
			attrs = append(attrs, logfields.Horizon(*st.NextDueIn))
		}
		slog.Info("Service status", attrs...)
	}
	if r.publisher == nil {
		return nil
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal status report").Build()
	}
	if err := r.publisher.Publish(r.subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryExchange, "publish status report").
			WithContext("subject", r.subject).
			Build()
	}
	return nil
}
