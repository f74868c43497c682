// Package app wires configuration into a running sensor node.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/lorasensor/internal/config"
	"git.home.luguber.info/inful/lorasensor/internal/exchange"
	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/identity"
	"git.home.luguber.info/inful/lorasensor/internal/link"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/messages"
	"git.home.luguber.info/inful/lorasensor/internal/metrics"
	"git.home.luguber.info/inful/lorasensor/internal/power"
	"git.home.luguber.info/inful/lorasensor/internal/registration"
	"git.home.luguber.info/inful/lorasensor/internal/report"
	"git.home.luguber.info/inful/lorasensor/internal/retry"
	"git.home.luguber.info/inful/lorasensor/internal/scheduler"
	"git.home.luguber.info/inful/lorasensor/internal/sensor"
	"git.home.luguber.info/inful/lorasensor/internal/serial"
	"git.home.luguber.info/inful/lorasensor/internal/service"
	"git.home.luguber.info/inful/lorasensor/internal/sleep"
	"git.home.luguber.info/inful/lorasensor/internal/status"
	"git.home.luguber.info/inful/lorasensor/internal/store"
)

// ErrSoftReset ends a node run so the supervisor rebuilds it from disk. It is
// how an idle-only actuator emulates waking from deep sleep.
var ErrSoftReset = errors.RuntimeError("soft reset requested").Build()

// dataDirs mirrors the node's on-flash layout.
var dataDirs = []string{"log", "lora", "sensor", "msg", "sys"}

// uplink is a Link that can tell whether it has joined before.
type uplink interface {
	exchange.Link
	HasSession(ctx context.Context) bool
}

// Node is one fully wired sensor node.
type Node struct {
	cfg          *config.Config
	clock        clockwork.Clock
	recorder     metrics.Recorder
	identity     identity.Identity
	store        *store.SQLiteStore
	link         uplink
	exchange     *exchange.Exchange
	registration *registration.Registration
	sensors      []*sensor.Sensor
	scheduler    *scheduler.Scheduler
	reporter     *status.Reporter
	logSink      *LogSink
	closers      []io.Closer
}

// Option configures Build.
type Option func(*Node)

func WithClock(c clockwork.Clock) Option { return func(n *Node) { n.clock = c } }

func WithRecorder(r metrics.Recorder) Option { return func(n *Node) { n.recorder = r } }

// WithLogSink flushes sink before every deep sleep.
func WithLogSink(sink *LogSink) Option { return func(n *Node) { n.logSink = sink } }

// WithLink replaces the configured uplink.
func WithLink(l uplink) Option { return func(n *Node) { n.link = l } }

// Build creates the node described by cfg. The returned node owns every
// handle it opened; call Close when done.
func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*Node, error) {
	n := &Node{cfg: cfg, clock: clockwork.NewRealClock(), recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(n)
	}
	if err := n.build(ctx); err != nil {
		_ = n.Close()
		return nil, err
	}
	return n, nil
}

func (n *Node) build(ctx context.Context) error {
	cfg := n.cfg
	for _, d := range dataDirs {
		if err := os.MkdirAll(cfg.DataPath(d), 0o750); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "failed to create data directory").
				WithContext("path", cfg.DataPath(d)).
				Build()
		}
	}

	ident, err := identity.LoadOrCreate(cfg.DataPath("sys"), cfg.Node.ID)
	if err != nil {
		return err
	}
	n.identity = ident
	slog.Info("Device", logfields.Device(ident.DeviceID()), slog.Int("software_version", ident.SoftwareVersion()))

	queue, err := n.openStore()
	if err != nil {
		return err
	}

	if n.link == nil {
		n.link = n.newLink()
	}
	n.closers = append(n.closers, n.link)

	n.exchange = exchange.New(n.link, queue,
		exchange.WithSendLimit(cfg.Exchange.SendLimit),
		exchange.WithSendRetries(cfg.Exchange.SendRetries),
		exchange.WithRecorder(n.recorder))
	exSvc := n.exchange.Service(cfg.Services.ExchangeEvery())

	n.registration = registration.New(n.exchange, ident)
	n.exchange.AttachConnectionStateObserver(n.registration)

	services, err := n.buildSensors()
	if err != nil {
		return err
	}
	services = append(services, exSvc, n.registration.Service())

	actuator, err := n.newActuator()
	if err != nil {
		return err
	}

	schedOpts := []scheduler.Option{
		scheduler.WithClock(n.clock),
		scheduler.WithDeepSleepThreshold(cfg.Scheduler.Threshold()),
		scheduler.WithRetickDelay(cfg.Scheduler.Retick()),
		scheduler.WithRecorder(n.recorder),
	}
	if n.store != nil {
		schedOpts = append(schedOpts, scheduler.WithStateStore(n.store))
		if err := n.store.RestoreServices(ctx, services...); err != nil {
			return err
		}
	}
	n.scheduler = scheduler.New(actuator, schedOpts...)
	for _, svc := range services {
		if res := n.scheduler.Register(svc); res.IsErr() {
			return res.UnwrapErr()
		}
	}
	if err := n.scheduler.Validate(); err != nil {
		return err
	}
	n.scheduler.AddPreSleepCallback("FlushLogs", n.flushLogs)

	if !n.link.HasSession(ctx) {
		slog.Info("No uplink session, activating exchange")
		if err := n.exchange.SvcActivate(); err != nil {
			return err
		}
	}

	if cfg.Status.Enabled {
		if err := n.buildReporter(); err != nil {
			return err
		}
	}
	slog.Info("Finished initialization", slog.Int("services", len(services)))
	return nil
}

func (n *Node) openStore() (exchange.Queue, error) {
	if n.cfg.Storage.Driver != config.StorageSQLite {
		return exchange.NewMemoryQueue(), nil
	}
	st, err := store.Open(n.cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	n.store = st
	n.closers = append(n.closers, st)
	return st.Queue(), nil
}

func (n *Node) newLink() uplink {
	if n.cfg.Exchange.Link == config.LinkNATS {
		return link.NewNATS(link.NATSConfig{
			URL:           n.cfg.NATS.URL,
			SubjectPrefix: n.cfg.NATS.SubjectPrefix,
			SessionBucket: n.cfg.NATS.SessionBucket,
			DeviceID:      n.identity.DeviceID(),
			Timeout:       n.cfg.NATS.TimeoutDuration(),
		})
	}
	return link.NewLoopback()
}

func (n *Node) buildSensors() ([]*service.Service, error) {
	var out []*service.Service
	for _, sc := range n.cfg.Services.Sensors {
		var driver sensor.Driver
		switch sc.Driver {
		case config.DriverThermal:
			driver = sensor.Thermal{Path: sc.Path}
		default:
			driver = sensor.NewDummy(sc.Samples)
		}
		s := sensor.New(sc.Name, driver,
			sensor.WithSamplesPerUpdate(sc.SamplesPerUpdate),
			sensor.WithRounding(sc.Round),
			sensor.WithFilterDepth(sc.FilterDepth))

		if sc.Report != "" {
			schema, ok := messages.SensorReport(sc.Report)
			if !ok {
				return nil, errors.ConfigError("unknown sensor report").WithContext("report", sc.Report).Build()
			}
			f := report.New(n.exchange, report.NormalizeMode(sc.SendMode), schema)
			s.ObserverAttachNewSample(f.CreateObserver(messages.KeyMeasurements))
		}
		n.sensors = append(n.sensors, s)
		svc := s.Service(sc.Every())
		for _, dep := range sc.DependsOn {
			svc.Depend(dep, service.RunAlwaysBeforeRun)
		}
		out = append(out, svc)
	}
	return out, nil
}

func (n *Node) newActuator() (sleep.Actuator, error) {
	if n.cfg.Scheduler.Actuator != config.ActuatorPower {
		return sleep.NewNoSleep(
			sleep.WithClock(n.clock),
			sleep.WithWakeHook(func(context.Context) error { return ErrSoftReset }),
		), nil
	}

	m, channel, err := OpenPowerManager(n.cfg,
		power.WithClock(n.clock),
		power.WithRecorder(n.recorder))
	if err != nil {
		return nil, err
	}
	n.closers = append(n.closers, channel)
	return m, nil
}

// OpenPowerManager opens the configured power channel and returns a manager
// using the configured retry policy. The caller closes the channel.
func OpenPowerManager(cfg *config.Config, opts ...power.Option) (*power.Manager, io.Closer, error) {
	p := cfg.Power
	var channel io.WriteCloser
	var err error
	if p.Transport == config.TransportNATS {
		channel, err = serial.DialNATS(cfg.NATS.URL, p.Subject, cfg.NATS.TimeoutDuration())
	} else {
		channel, err = serial.Open(serial.Config{Device: p.Device, Baud: p.Baud, TX: p.TXPin, RX: p.RXPin})
	}
	if err != nil {
		return nil, nil, err
	}

	policy := retry.NewPolicy(p.Retry.Backoff, p.Retry.Initial(), p.Retry.Max(), p.Retry.MaxAttempts)
	opts = append([]power.Option{power.WithPolicy(policy), power.WithHold(p.HoldEnabled())}, opts...)
	return power.NewManager(channel, opts...), channel, nil
}

func (n *Node) buildReporter() error {
	var opts []status.Option
	if n.cfg.Status.Publish {
		nc, err := nats.Connect(n.cfg.NATS.URL,
			nats.Name("lorasensor-status-"+n.identity.DeviceID()),
			nats.Timeout(n.cfg.NATS.TimeoutDuration()))
		if err != nil {
			return errors.WrapError(err, errors.CategoryExchange, "failed to connect status publisher").
				WithContext("url", n.cfg.NATS.URL).
				Build()
		}
		n.closers = append(n.closers, closerFunc(func() error { nc.Close(); return nil }))
		opts = append(opts, status.WithPublisher(nc, n.cfg.NATS.SubjectPrefix+"."+n.identity.DeviceID()+".status"))
	}
	r, err := status.New(n.scheduler, n.identity.DeviceID(), n.cfg.Status.Every(), opts...)
	if err != nil {
		return err
	}
	n.reporter = r
	return nil
}

func (n *Node) flushLogs(context.Context) error {
	if n.logSink == nil {
		return nil
	}
	return n.logSink.Flush()
}

// Run ticks the scheduler until ctx ends or the actuator fails.
func (n *Node) Run(ctx context.Context) error {
	if n.reporter != nil {
		if err := n.reporter.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := n.reporter.Stop(); err != nil {
				slog.Warn("Failed to stop status reporter", logfields.Error(err))
			}
		}()
	}
	slog.Info("Starting scheduler")
	return n.scheduler.Run(ctx)
}

// Reset drops queued messages, sensor history and persisted run state.
func (n *Node) Reset(ctx context.Context) error {
	if err := n.exchange.Reset(ctx); err != nil {
		return err
	}
	for _, s := range n.sensors {
		s.SamplesDelete()
	}
	if n.store != nil {
		return n.store.ClearServices(ctx)
	}
	return nil
}

// Close releases every handle opened by Build, newest first.
func (n *Node) Close() error {
	var first error
	for i := len(n.closers) - 1; i >= 0; i-- {
		if err := n.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	n.closers = nil
	return first
}

func (n *Node) Scheduler() *scheduler.Scheduler          { return n.scheduler }
func (n *Node) Exchange() *exchange.Exchange             { return n.exchange }
func (n *Node) Registration() *registration.Registration { return n.registration }
func (n *Node) Identity() identity.Identity              { return n.identity }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
