//go:build rp2040 || rp2350

package serial

import (
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

type uartPort struct{ u *uartx.UART }

func (p *uartPort) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *uartPort) Close() error                { return nil }

func openPort(cfg Config) (*uartPort, error) {
	var hw *uartx.UART
	switch cfg.Device {
	case "uart0", "":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return nil, errors.ConfigError("unknown uart").WithContext("device", cfg.Device).Build()
	}
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: uint32(cfg.Baud),
		TX:       machine.Pin(cfg.TX),
		RX:       machine.Pin(cfg.RX),
	}); err != nil {
		return nil, errors.WrapError(err, errors.CategoryChannel, "configure uart").
			WithContext("device", cfg.Device).
			Build()
	}
	return &uartPort{u: hw}, nil
}
