package serial

import (
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
)

// NATSChannel publishes each written frame as one message. It drives power
// controllers attached to a bench gateway instead of a local port.
type NATSChannel struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

// DialNATS connects to url and returns a channel publishing on subject.
func DialNATS(url, subject string, timeout time.Duration) (*NATSChannel, error) {
	nc, err := nats.Connect(url, nats.Name("lorasensor-power"), nats.Timeout(timeout))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryChannel, "connect power channel").
			WithContext("url", url).
			Build()
	}
	return NewNATSChannel(nc, subject, timeout), nil
}

// NewNATSChannel wraps an existing connection.
func NewNATSChannel(nc *nats.Conn, subject string, timeout time.Duration) *NATSChannel {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &NATSChannel{nc: nc, subject: subject, timeout: timeout}
}

// Subject returns the subject frames are published on.
func (c *NATSChannel) Subject() string { return c.subject }

// Write publishes b and waits for the server to acknowledge the flush. A frame
// is either delivered whole or reported as zero bytes written.
func (c *NATSChannel) Write(b []byte) (int, error) {
	if err := c.nc.Publish(c.subject, b); err != nil {
		return 0, errors.WrapError(err, errors.CategoryChannel, "publish frame").Build()
	}
	if err := c.nc.FlushTimeout(c.timeout); err != nil {
		return 0, errors.WrapError(err, errors.CategoryChannel, "flush frame").Build()
	}
	return len(b), nil
}

func (c *NATSChannel) Close() error {
	c.nc.Close()
	return nil
}
