//go:build !rp2040 && !rp2350

package serial

import (
	"os"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

func openPort(cfg Config) (*os.File, error) {
	// #nosec G304 -- device path is configuration
	f, err := os.OpenFile(cfg.Device, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryChannel, "open serial port").
			WithContext("device", cfg.Device).
			Build()
	}
	if err := configure(f, cfg.Baud); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
