package sensor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

type valueLog struct {
	values []float64
	err    error
}

func (v *valueLog) Update(_ context.Context, value float64) error {
	v.values = append(v.values, value)
	return v.err
}

func TestDummy_Cycles(t *testing.T) {
	d := NewDummy([]float64{1, 2})
	var got []float64
	for i := 0; i < 5; i++ {
		v, err := d.Read(context.Background())
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []float64{1, 2, 1, 2, 1}, got)

	_, err := NewDummy(nil).Read(context.Background())
	assert.ErrorIs(t, err, ErrNoSamples)
}

func TestSensor_AveragesAndRounds(t *testing.T) {
	ctx := context.Background()
	obs := &valueLog{}
	s := New("Dummy", NewDummy(DefaultDummySamples), WithSamplesPerUpdate(3), WithRounding(true))
	s.ObserverAttachNewSample(obs)

	require.NoError(t, s.Run(ctx)) // 20, 30, 25
	require.NoError(t, s.Run(ctx)) // 11, -10, 40
	assert.Equal(t, []float64{25, 14}, obs.values)
}

func TestSensor_WithoutRounding(t *testing.T) {
	obs := &valueLog{}
	s := New("Temp", NewDummy([]float64{1, 2}), WithSamplesPerUpdate(2))
	s.ObserverAttachNewSample(obs)
	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []float64{1.5}, obs.values)
}

func TestSensor_HistoryDepth(t *testing.T) {
	s := New("Dummy", NewDummy([]float64{1, 2, 3, 4}), WithFilterDepth(2))
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Run(context.Background()))
	}
	assert.Equal(t, []float64{3, 4}, s.Samples())
	s.SamplesDelete()
	assert.Empty(t, s.Samples())
}

func TestSensor_DriverErrorFailsRun(t *testing.T) {
	obs := &valueLog{}
	s := New("Empty", NewDummy(nil))
	s.ObserverAttachNewSample(obs)
	assert.ErrorIs(t, s.Run(context.Background()), ErrNoSamples)
	assert.Empty(t, obs.values)
}

func TestSensor_ObserverErrorDoesNotFailRun(t *testing.T) {
	obs := &valueLog{err: errors.ExchangeError("queue full").Build()}
	s := New("Dummy", NewDummy([]float64{5}))
	s.ObserverAttachNewSample(obs)
	assert.NoError(t, s.Run(context.Background()))
}

func TestSensor_Service(t *testing.T) {
	s := New("Dummy", NewDummy([]float64{5}))
	svc := s.Service(20 * time.Second)
	assert.Equal(t, "Dummy", svc.Name())
	assert.Equal(t, service.RunModeRecurring, svc.Mode())
	assert.Equal(t, 20*time.Second, svc.Interval())
}

func TestThermal_Read(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp")
	require.NoError(t, os.WriteFile(path, []byte("42500\n"), 0o600))
	v, err := Thermal{Path: path}.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 42.5, v, 1e-9)

	_, err = Thermal{Path: filepath.Join(t.TempDir(), "missing")}.Read(context.Background())
	assert.True(t, errors.HasCategory(err, errors.CategoryService))
}
