package app

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/metrics"
)

// MetricsServer serves the Prometheus registry over HTTP.
type MetricsServer struct {
	server   *http.Server
	listener net.Listener
}

// NewMetricsServer creates a server exposing reg at path on addr.
func NewMetricsServer(addr, path string, reg *prom.Registry) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(path, metrics.HTTPHandler(reg))
	return &MetricsServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start binds the listener and serves in the background.
func (m *MetricsServer) Start() error {
	ln, err := net.Listen("tcp", m.server.Addr)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to bind metrics listener").
			WithContext("addr", m.server.Addr).
			Build()
	}
	m.listener = ln
	slog.Info("Metrics endpoint listening", slog.String("addr", ln.Addr().String()))
	go func() {
		if err := m.server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (m *MetricsServer) Addr() string {
	if m.listener == nil {
		return m.server.Addr
	}
	return m.listener.Addr().String()
}

// Stop shuts the server down.
func (m *MetricsServer) Stop(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}
