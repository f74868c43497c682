// Package registration announces the device to the backend once per lifetime.
package registration

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/lorasensor/internal/logfields"
	"git.home.luguber.info/inful/lorasensor/internal/messages"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

// ServiceName is the scheduler name of the registration service.
const ServiceName = "Reg"

// Exchange is the outbound side of the message exchange used by Registration.
type Exchange interface {
	MessagePut(ctx context.Context, data map[int]any, msgType, subtype int, meta map[int]any) error
	SvcActivate() error
}

// Identity provides the values reported in the registration message.
type Identity interface {
	DeviceID() string
	SoftwareVersion() int
}

// Status is the registration state machine position.
type Status string

const (
	StatusUnregistered Status = "unregistered"
	StatusScheduled    Status = "scheduled"
	StatusRegistered   Status = "registered"
)

// Registration is a run-once service that sends the registration info
// message. It starts suspended and is armed by the exchange's connection
// state: the first Update(true) before a successful run schedules it.
type Registration struct {
	exchange Exchange
	identity Identity
	schema   messages.Schema
	svc      *service.Service
}

// New creates the registration service.
func New(exchange Exchange, identity Identity) *Registration {
	r := &Registration{
		exchange: exchange,
		identity: identity,
		schema:   messages.RegistrationInfo,
	}
	r.svc = service.New(ServiceName, service.RunModeRunOnce, service.RunnerFunc(r.Run), service.Suspended())
	return r
}

// Service returns the scheduler service backing the registration.
func (r *Registration) Service() *service.Service { return r.svc }

// Run queues the registration info message and activates the exchange.
func (r *Registration) Run(ctx context.Context) error {
	data := map[int]any{
		messages.KeyHardwareID:      r.identity.DeviceID(),
		messages.KeySoftwareVersion: r.identity.SoftwareVersion(),
		messages.KeyFirmwareVersion: messages.FirmwareVersionPlaceholder,
	}
	slog.Info("Registration info", logfields.Device(r.identity.DeviceID()), slog.Any("info", data))

	if err := r.exchange.MessagePut(ctx, data, r.schema.Type, r.schema.Subtype, r.schema.Meta()); err != nil {
		return err
	}
	if err := r.exchange.SvcActivate(); err != nil {
		return err
	}
	slog.Info("Registration complete", logfields.Device(r.identity.DeviceID()))
	return nil
}

// DeviceIsRegistered reports whether the registration message has been queued.
func (r *Registration) DeviceIsRegistered() bool {
	return r.svc.HasRun()
}

// Update is called by the exchange on every connection state change.
func (r *Registration) Update(connected bool) {
	if connected && !r.DeviceIsRegistered() {
		slog.Debug("Uplink connected, scheduling registration")
		r.svc.Activate()
	}
}

// Status reports the registration state machine position.
func (r *Registration) Status() Status {
	switch {
	case r.DeviceIsRegistered():
		return StatusRegistered
	case r.svc.State() == service.StateSuspended:
		return StatusUnregistered
	default:
		return StatusScheduled
	}
}
