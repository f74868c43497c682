// Package report turns sensor samples into report messages for the exchange.
package report

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"git.home.luguber.info/inful/lorasensor/internal/foundation"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/messages"
)

// Mode selects when a formatter emits a message.
type Mode string

const (
	SendAlways   Mode = "always"
	SendOnChange Mode = "on_change"
)

var modes = foundation.NewNormalizer(map[string]Mode{
	"always":    SendAlways,
	"on_change": SendOnChange,
	"onchange":  SendOnChange,
	"change":    SendOnChange,
}, SendOnChange)

// NormalizeMode parses a configured send mode, defaulting to SendOnChange.
func NormalizeMode(raw string) Mode { return modes.Normalize(raw) }

// ParseMode is NormalizeMode that rejects unknown non-empty input.
func ParseMode(raw string) (Mode, error) { return modes.NormalizeWithError(raw) }

// Exchange is the queueing side of the message exchange.
type Exchange interface {
	MessagePut(ctx context.Context, data map[int]any, msgType, subtype int, meta map[int]any) error
}

// Formatter keeps the latest value per data key of one message schema and
// queues a message whenever an observer reports a value.
type Formatter struct {
	mu       sync.Mutex
	exchange Exchange
	mode     Mode
	schema   messages.Schema
	data     map[int]any
	sent     map[int]any
}

// New creates a formatter for schema.
func New(exchange Exchange, mode Mode, schema messages.Schema) *Formatter {
	return &Formatter{
		exchange: exchange,
		mode:     mode,
		schema:   schema,
		data:     make(map[int]any),
	}
}

// CreateObserver returns a sample observer that writes to data key key.
func (f *Formatter) CreateObserver(key int) *Observer {
	return &Observer{f: f, key: key}
}

func (f *Formatter) update(ctx context.Context, key int, value float64) error {
	f.mu.Lock()
	f.data[key] = value
	if f.mode == SendOnChange && f.sent != nil && maps.Equal(f.data, f.sent) {
		f.mu.Unlock()
		slog.Debug("Report unchanged, not sending", slog.String("report", f.schema.Name))
		return nil
	}
	data := maps.Clone(f.data)
	f.mu.Unlock()

	if err := f.exchange.MessagePut(ctx, data, f.schema.Type, f.schema.Subtype, f.schema.Meta()); err != nil {
		return err
	}

	f.mu.Lock()
	f.sent = data
	f.mu.Unlock()
	slog.Debug("Report queued", slog.String("report", f.schema.Name), logfields.MsgSubtype(f.schema.Subtype))
	return nil
}

// Observer feeds one data key of a Formatter.
type Observer struct {
	f   *Formatter
	key int
}

func (o *Observer) Update(ctx context.Context, value float64) error {
	return o.f.update(ctx, o.key, value)
}
