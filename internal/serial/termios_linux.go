//go:build linux && !rp2040 && !rp2350

package serial

import (
	stderrors "errors"
	"os"

	"golang.org/x/sys/unix"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

var baudRates = map[int]uint32{
	1200:   unix.B1200,
	2400:   unix.B2400,
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
}

// configure puts a tty into raw 8N1 mode at baud. Plain files are left alone.
func configure(f *os.File, baud int) error {
	speed, ok := baudRates[baud]
	if !ok {
		return ErrUnsupportedBaud.WithContext("baud", baud)
	}

	fd := int(f.Fd())
	tio, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if stderrors.Is(err, unix.ENOTTY) {
		return nil
	}
	if err != nil {
		return errors.WrapError(err, errors.CategoryChannel, "read port settings").Build()
	}

	tio.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	tio.Oflag &^= unix.OPOST
	tio.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	tio.Cflag &^= unix.CSIZE | unix.PARENB | unix.CBAUD
	tio.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | speed
	tio.Ispeed = speed
	tio.Ospeed = speed

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, tio); err != nil {
		return errors.WrapError(err, errors.CategoryChannel, "apply port settings").
			WithContext("baud", baud).
			Build()
	}
	return nil
}
