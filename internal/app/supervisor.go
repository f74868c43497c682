package app

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/lorasensor/internal/config"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/metrics"
)

// Supervisor loads the configuration, runs a node and rebuilds it after a
// soft reset or a configuration change.
type Supervisor struct {
	configPath string
	verbose    bool
	watch      bool
	debounce   time.Duration
	console    io.Writer
	opts       []Option

	recorder metrics.Recorder
	metrics  *MetricsServer
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithWatch restarts the node when the configuration file changes.
func WithWatch(on bool) SupervisorOption { return func(s *Supervisor) { s.watch = on } }

// WithVerbose forces debug logging.
func WithVerbose(on bool) SupervisorOption { return func(s *Supervisor) { s.verbose = on } }

// WithNodeOptions passes options to every Build.
func WithNodeOptions(opts ...Option) SupervisorOption {
	return func(s *Supervisor) { s.opts = append(s.opts, opts...) }
}

// NewSupervisor creates a supervisor for the configuration at configPath.
func NewSupervisor(configPath string, opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		configPath: configPath,
		debounce:   2 * time.Second,
		console:    os.Stderr,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run builds and runs nodes until ctx ends or a node fails with anything
// other than a soft reset.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.stopMetrics()
	for boot := 1; ; boot++ {
		reset, err := s.runOnce(ctx, boot)
		if err != nil {
			return err
		}
		if !reset || ctx.Err() != nil {
			return nil
		}
		slog.Info("Soft reset, rebuilding node", slog.Int("boot", boot+1))
	}
}

func (s *Supervisor) runOnce(ctx context.Context, boot int) (bool, error) {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return false, err
	}
	sink := ConfigureLogging(cfg, s.verbose, s.console)
	defer func() { _ = sink.Flush() }()

	if err := s.startMetrics(cfg); err != nil {
		return false, err
	}

	opts := append([]Option{WithLogSink(sink), WithRecorder(s.recorderOrNoop())}, s.opts...)
	node, err := Build(ctx, cfg, opts...)
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := node.Close(); cerr != nil {
			slog.Warn("Failed to close node", logfields.Error(cerr))
		}
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	if s.watch {
		w, err := NewConfigWatcher(s.configPath, func() { cancel(ErrSoftReset) }, s.debounce)
		if err != nil {
			return false, err
		}
		if err := w.Start(runCtx); err != nil {
			_ = w.Stop()
			return false, err
		}
		defer func() { _ = w.Stop() }()
	}

	slog.Info("Node running", slog.Int("boot", boot), logfields.Device(node.Identity().DeviceID()))
	err = node.Run(runCtx)
	if stderrors.Is(err, ErrSoftReset) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return stderrors.Is(context.Cause(runCtx), ErrSoftReset), nil
}

func (s *Supervisor) recorderOrNoop() metrics.Recorder {
	if s.recorder == nil {
		return metrics.NoopRecorder{}
	}
	return s.recorder
}

// startMetrics starts the metrics endpoint once; later boots reuse it.
func (s *Supervisor) startMetrics(cfg *config.Config) error {
	if s.recorder != nil || !cfg.Metrics.Enabled {
		return nil
	}
	reg := prom.NewRegistry()
	s.recorder = metrics.NewPrometheusRecorder(reg)
	s.metrics = NewMetricsServer(cfg.Metrics.Listen, cfg.Metrics.Path, reg)
	return s.metrics.Start()
}

func (s *Supervisor) stopMetrics() {
	if s.metrics == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.metrics.Stop(ctx); err != nil {
		slog.Warn("Failed to stop metrics server", logfields.Error(err))
	}
}
