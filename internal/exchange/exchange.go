// Package exchange queues outbound messages and delivers them over the uplink.
package exchange

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/messages"
	"git.home.luguber.info/inful/lorasensor/internal/metrics"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

// ServiceName is the scheduler name of the exchange service.
const ServiceName = "MsgEx"

var ErrNotAttached = errors.InternalError("exchange service not created").Build()

// ConnectionObserver is notified whenever the uplink connection state changes.
type ConnectionObserver interface {
	Update(connected bool)
}

// Link is the uplink the exchange sends encoded messages over.
type Link interface {
	Connect(ctx context.Context) error
	Connected() bool
	Send(ctx context.Context, payload []byte) error
	Close() error
}

// Exchange owns the outbound queue and the uplink connection.
type Exchange struct {
	mu          sync.Mutex
	link        Link
	queue       Queue
	observers   []ConnectionObserver
	sendLimit   int
	sendRetries int
	recorder    metrics.Recorder
	svc         *service.Service
	connected   bool
	reported    bool
}

// Option configures an Exchange.
type Option func(*Exchange)

// WithSendLimit caps the messages sent per run.
func WithSendLimit(n int) Option { return func(e *Exchange) { e.sendLimit = n } }

// WithSendRetries sets how many failed sends a message survives before it is dropped.
func WithSendRetries(n int) Option { return func(e *Exchange) { e.sendRetries = n } }

func WithRecorder(r metrics.Recorder) Option { return func(e *Exchange) { e.recorder = r } }

// New creates an exchange over link and queue.
func New(link Link, queue Queue, opts ...Option) *Exchange {
	e := &Exchange{
		link:        link,
		queue:       queue,
		sendLimit:   1,
		sendRetries: 1,
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Service creates the recurring scheduler service that drives the exchange.
func (e *Exchange) Service(interval time.Duration, opts ...service.Option) *service.Service {
	e.mu.Lock()
	defer e.mu.Unlock()
	opts = append([]service.Option{service.WithInterval(interval)}, opts...)
	e.svc = service.New(ServiceName, service.RunModeRecurring, service.RunnerFunc(e.Run), opts...)
	return e.svc
}

// AttachConnectionStateObserver registers o for connection state changes.
func (e *Exchange) AttachConnectionStateObserver(o ConnectionObserver) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// MessagePut queues a message for the next exchange run.
func (e *Exchange) MessagePut(ctx context.Context, data map[int]any, msgType, subtype int, meta map[int]any) error {
	msg := messages.New(data, msgType, subtype, meta)
	if err := e.queue.Push(ctx, msg); err != nil {
		return errors.WrapError(err, errors.CategoryExchange, "failed to queue message").
			WithContext("type", msgType).
			WithContext("subtype", subtype).
			Build()
	}
	slog.Debug("Message queued", logfields.MsgType(msgType), logfields.MsgSubtype(subtype))
	e.updateQueueDepth(ctx)
	return nil
}

// SvcActivate makes the exchange service due on the next tick.
func (e *Exchange) SvcActivate() error {
	e.mu.Lock()
	svc := e.svc
	e.mu.Unlock()
	if svc == nil {
		return ErrNotAttached
	}
	svc.Activate()
	return nil
}

// Connected reports the connection state observed by the last run.
func (e *Exchange) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// Run connects the link if needed, reports state changes to observers and
// sends up to the send limit of queued messages. An unreachable link is not
// a run failure: the messages stay queued for the next interval.
func (e *Exchange) Run(ctx context.Context) error {
	if !e.link.Connected() {
		if err := e.link.Connect(ctx); err != nil {
			slog.Warn("Uplink connect failed", logfields.Error(err))
		}
	}
	connected := e.link.Connected()
	e.notify(connected)

	if !connected {
		e.updateQueueDepth(ctx)
		return nil
	}

	pending, err := e.queue.Pending(ctx, e.sendLimit)
	if err != nil {
		return errors.WrapError(err, errors.CategoryExchange, "failed to read message queue").Build()
	}
	for _, entry := range pending {
		e.deliver(ctx, entry)
	}
	e.updateQueueDepth(ctx)
	return nil
}

func (e *Exchange) deliver(ctx context.Context, entry Entry) {
	attrs := []any{logfields.MsgType(entry.Msg.Type), logfields.MsgSubtype(entry.Msg.Subtype)}

	payload, err := entry.Msg.Encode()
	if err == nil {
		err = e.link.Send(ctx, payload)
	}
	e.recorder.IncMessagesSent(err == nil)

	if err == nil {
		if rmErr := e.queue.Remove(ctx, entry.ID); rmErr != nil {
			slog.Warn("Failed to remove sent message", append(attrs, logfields.Error(rmErr))...)
		}
		slog.Info("Message sent", attrs...)
		return
	}

	attempts, markErr := e.queue.MarkFailed(ctx, entry.ID)
	if markErr != nil {
		slog.Warn("Failed to record send failure", append(attrs, logfields.Error(markErr))...)
		return
	}
	if attempts > e.sendRetries {
		slog.Warn("Dropping message after repeated send failures",
			append(attrs, logfields.Attempts(attempts), logfields.Error(err))...)
		if rmErr := e.queue.Remove(ctx, entry.ID); rmErr != nil {
			slog.Warn("Failed to drop message", append(attrs, logfields.Error(rmErr))...)
		}
		return
	}
	slog.Warn("Message send failed, will retry", append(attrs, logfields.Attempts(attempts), logfields.Error(err))...)
}

// notify reports the connection state to observers when it changes. The
// first run always reports.
func (e *Exchange) notify(connected bool) {
	e.mu.Lock()
	changed := !e.reported || e.connected != connected
	e.connected = connected
	e.reported = true
	observers := make([]ConnectionObserver, len(e.observers))
	copy(observers, e.observers)
	e.mu.Unlock()

	if !changed {
		return
	}
	slog.Info("Uplink connection state", logfields.Connected(connected))
	for _, o := range observers {
		o.Update(connected)
	}
}

func (e *Exchange) updateQueueDepth(ctx context.Context) {
	if n, err := e.queue.Len(ctx); err == nil {
		e.recorder.SetQueueDepth(n)
	}
}

// Reset drops every queued message.
func (e *Exchange) Reset(ctx context.Context) error {
	pending, err := e.queue.Pending(ctx, 0)
	if err != nil {
		return err
	}
	for _, entry := range pending {
		if err := e.queue.Remove(ctx, entry.ID); err != nil {
			return err
		}
	}
	e.updateQueueDepth(ctx)
	return nil
}
