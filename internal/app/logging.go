package app

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/lorasensor/internal/config"
	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// LogSink writes log lines to the console and, optionally, to a file that is
// closed before every deep sleep and reopened on the next write.
type LogSink struct {
	mu      sync.Mutex
	console io.Writer
	path    string
	file    *os.File
}

// NewLogSink creates a sink writing to console and, when path is set, to path.
func NewLogSink(console io.Writer, path string) *LogSink {
	return &LogSink{console: console, path: path}
}

func (s *LogSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if s.file == nil {
			if err := s.open(); err != nil {
				return 0, err
			}
		}
		if _, err := s.file.Write(p); err != nil {
			return 0, err
		}
	}
	return s.console.Write(p)
}

func (s *LogSink) open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o750); err != nil {
		return err
	}
	// #nosec G304 -- log path is derived from the data directory
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	s.file = f
	return nil
}

// Flush syncs and closes the log file.
func (s *LogSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Sync()
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	s.file = nil
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "failed to flush log file").
			WithContext("path", s.path).
			Build()
	}
	return nil
}

// ConfigureLogging installs the default slog logger described by cfg. The
// verbose flag forces debug level.
func ConfigureLogging(cfg *config.Config, verbose bool, console io.Writer) *LogSink {
	path := ""
	if cfg.Logging.File {
		path = cfg.DataPath("log", "node.log")
	}
	sink := NewLogSink(console, path)

	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(sink, opts)
	} else {
		handler = slog.NewTextHandler(sink, opts)
	}
	slog.SetDefault(slog.New(handler))
	return sink
}
