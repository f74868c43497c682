package link

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
)

// NATSConfig describes how the NATS uplink connects.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	SessionBucket string
	DeviceID      string
	Timeout       time.Duration
}

// UplinkSubject is where a device publishes its messages.
func UplinkSubject(prefix, deviceID string) string {
	return fmt.Sprintf("%s.%s.up", prefix, deviceID)
}

// NATS publishes uplink messages to a NATS server. The join session is kept
// in a JetStream key-value bucket so a rebooted node knows it has joined.
type NATS struct {
	mu   sync.Mutex
	cfg  NATSConfig
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATS creates an unconnected NATS uplink.
func NewNATS(cfg NATSConfig) *NATS {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &NATS{cfg: cfg}
}

// Subject returns the uplink subject for this device.
func (n *NATS) Subject() string {
	return UplinkSubject(n.cfg.SubjectPrefix, n.cfg.DeviceID)
}

func (n *NATS) Connect(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil || n.conn.IsClosed() {
		conn, err := nats.Connect(n.cfg.URL,
			nats.Name("lorasensor-"+n.cfg.DeviceID),
			nats.Timeout(n.cfg.Timeout))
		if err != nil {
			return errors.WrapError(err, errors.CategoryExchange, "failed to connect to NATS").
				WithContext("url", n.cfg.URL).
				Retryable().
				Build()
		}
		n.conn = conn
	}

	if n.kv == nil && n.cfg.SessionBucket != "" {
		kv, err := n.sessionBucket(ctx)
		if err != nil {
			slog.Warn("NATS session bucket unavailable", logfields.Error(err))
		} else {
			n.kv = kv
		}
	}
	if n.kv != nil {
		kctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
		defer cancel()
		if _, err := n.kv.Put(kctx, n.cfg.DeviceID, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
			slog.Warn("Failed to store NATS session", logfields.Error(err))
		}
	}

	slog.Info("NATS uplink connected", slog.String("url", n.cfg.URL), slog.String("subject", n.Subject()))
	return nil
}

func (n *NATS) sessionBucket(ctx context.Context) (jetstream.KeyValue, error) {
	js, err := jetstream.New(n.conn)
	if err != nil {
		return nil, err
	}
	kctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	if kv, err := js.KeyValue(kctx, n.cfg.SessionBucket); err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(kctx, jetstream.KeyValueConfig{
		Bucket:      n.cfg.SessionBucket,
		Description: "lorasensor uplink sessions",
		History:     1,
	})
}

func (n *NATS) Connected() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.conn != nil && n.conn.IsConnected()
}

// HasSession reports whether this device has joined before.
func (n *NATS) HasSession(ctx context.Context) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.kv == nil {
		return false
	}
	kctx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()
	_, err := n.kv.Get(kctx, n.cfg.DeviceID)
	return err == nil
}

func (n *NATS) Send(_ context.Context, payload []byte) error {
	n.mu.Lock()
	conn := n.conn
	n.mu.Unlock()
	if conn == nil || !conn.IsConnected() {
		return ErrNotConnected
	}
	if err := conn.Publish(n.Subject(), payload); err != nil {
		return errors.WrapError(err, errors.CategoryExchange, "NATS publish failed").Retryable().Build()
	}
	if err := conn.FlushTimeout(n.cfg.Timeout); err != nil {
		return errors.WrapError(err, errors.CategoryExchange, "NATS flush failed").Retryable().Build()
	}
	return nil
}

func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conn != nil {
		n.conn.Close()
		n.conn = nil
	}
	n.kv = nil
	return nil
}
