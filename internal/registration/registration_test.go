package registration

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lorasensor/internal/exchange"
	"git.home.luguber.info/inful/lorasensor/internal/link"
	"git.home.luguber.info/inful/lorasensor/internal/messages"
	"git.home.luguber.info/inful/lorasensor/internal/scheduler"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

type fixedIdentity struct{}

func (fixedIdentity) DeviceID() string     { return "node-1" }
func (fixedIdentity) SoftwareVersion() int { return 200 }

type putRecord struct {
	data             map[int]any
	msgType, subtype int
	meta             map[int]any
}

type fakeExchange struct {
	puts      []putRecord
	activated int
	putErr    error
}

func (f *fakeExchange) MessagePut(_ context.Context, data map[int]any, msgType, subtype int, meta map[int]any) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts = append(f.puts, putRecord{data, msgType, subtype, meta})
	return nil
}

func (f *fakeExchange) SvcActivate() error {
	f.activated++
	return nil
}

type nopActuator struct{ sleeps int }

func (a *nopActuator) DeepSleep(context.Context, time.Duration) error { a.sleeps++; return nil }
func (a *nopActuator) DeepSleepForever(context.Context) error         { a.sleeps++; return nil }

func TestRegistration_StartsSuspended(t *testing.T) {
	r := New(&fakeExchange{}, fixedIdentity{})
	assert.Equal(t, service.StateSuspended, r.Service().State())
	assert.Equal(t, service.RunModeRunOnce, r.Service().Mode())
	assert.Equal(t, StatusUnregistered, r.Status())
	assert.False(t, r.DeviceIsRegistered())
}

func TestRegistration_UpdateArmsOnlyWhenConnected(t *testing.T) {
	r := New(&fakeExchange{}, fixedIdentity{})

	r.Update(false)
	assert.Equal(t, service.StateSuspended, r.Service().State())

	r.Update(true)
	assert.Equal(t, service.StateIdle, r.Service().State())
	assert.Equal(t, StatusScheduled, r.Status())
}

func TestRegistration_RunQueuesInfoAndActivatesExchange(t *testing.T) {
	ex := &fakeExchange{}
	r := New(ex, fixedIdentity{})
	r.Update(true)

	require.NoError(t, r.Service().Run(context.Background(), time.Unix(10, 0)))

	require.Len(t, ex.puts, 1)
	put := ex.puts[0]
	assert.Equal(t, 1, put.msgType)
	assert.Equal(t, 0, put.subtype)
	assert.Equal(t, map[int]any{
		messages.KeyHardwareID:      "node-1",
		messages.KeySoftwareVersion: 200,
		messages.KeyFirmwareVersion: messages.FirmwareVersionPlaceholder,
	}, put.data)
	assert.Equal(t, 1, ex.activated)
	assert.True(t, r.DeviceIsRegistered())
	assert.Equal(t, StatusRegistered, r.Status())
	assert.Equal(t, service.StateCompleted, r.Service().State())
}

func TestRegistration_FailedPutStaysUnregistered(t *testing.T) {
	ex := &fakeExchange{putErr: exchange.ErrNotAttached}
	r := New(ex, fixedIdentity{})
	r.Update(true)

	err := r.Service().Run(context.Background(), time.Unix(10, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, exchange.ErrNotAttached)
	assert.False(t, r.DeviceIsRegistered())
	assert.Zero(t, ex.activated)
	assert.Equal(t, StatusScheduled, r.Status(), "a failed run is retried on a later tick")
}

func TestRegistration_ExactlyOneMessagePerLifetime(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Unix(1000, 0))
	uplink := link.NewLoopback()
	uplink.SetJoinable(false)

	ex := exchange.New(uplink, exchange.NewMemoryQueue())
	reg := New(ex, fixedIdentity{})
	ex.AttachConnectionStateObserver(reg)

	sched := scheduler.New(&nopActuator{}, scheduler.WithClock(clock), scheduler.WithDeepSleepThreshold(10*time.Second))
	require.True(t, sched.Register(ex.Service(100*time.Second)).IsOk())
	require.True(t, sched.Register(reg.Service()).IsOk())

	// Link down: the exchange reports false and registration stays suspended.
	d, err := sched.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{exchange.ServiceName}, d.Ran)
	assert.False(t, reg.DeviceIsRegistered())

	// Link up: the state change arms registration, which runs in the same tick.
	uplink.SetJoinable(true)
	clock.Advance(100 * time.Second)
	d, err = sched.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{exchange.ServiceName, ServiceName}, d.Ran)
	assert.True(t, reg.DeviceIsRegistered())

	// The activated exchange delivers the queued registration.
	d, err = sched.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{exchange.ServiceName}, d.Ran)
	require.Len(t, uplink.Frames(), 1)

	msg, err := messages.Decode(uplink.Frames()[0])
	require.NoError(t, err)
	assert.Equal(t, messages.RegistrationInfo.Type, msg.Type)
	assert.Equal(t, messages.RegistrationInfo.Subtype, msg.Subtype)
	assert.Equal(t, "node-1", msg.Data[messages.KeyHardwareID])

	// Reconnecting never registers twice.
	uplink.Disconnect()
	uplink.SetJoinable(false)
	clock.Advance(100 * time.Second)
	_, err = sched.Tick(ctx)
	require.NoError(t, err)
	uplink.SetJoinable(true)
	clock.Advance(100 * time.Second)
	_, err = sched.Tick(ctx)
	require.NoError(t, err)
	reg.Update(true)

	for i := 0; i < 3; i++ {
		clock.Advance(100 * time.Second)
		_, err = sched.Tick(ctx)
		require.NoError(t, err)
	}
	assert.Len(t, uplink.Frames(), 1)
}
