//go:build !linux && !rp2040 && !rp2350

package serial

import "os"

// configure is a no-op where termios is not available; the port keeps the
// settings applied by the operating system.
func configure(*os.File, int) error { return nil }
