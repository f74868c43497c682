// Package serial opens the byte channel to the power controller.
package serial

import (
	"io"
	"log/slog"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
)

// DefaultBaud matches the power controller firmware.
const DefaultBaud = 2400

var ErrUnsupportedBaud = errors.ConfigError("unsupported baud rate").Build()

// Config selects the port. Device is a path on hosts and "uart0"/"uart1" on
// microcontroller builds, where TX and RX name the pins.
type Config struct {
	Device string
	Baud   int
	TX     int
	RX     int
}

// Open opens the configured port for writing command frames.
func Open(cfg Config) (io.WriteCloser, error) {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	port, err := openPort(cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("Power channel open", logfields.Port(cfg.Device), slog.Int("baud", cfg.Baud))
	return port, nil
}
