package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lorasensor/internal/messages"
	"git.home.luguber.info/inful/lorasensor/internal/service"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func nop(context.Context) error { return nil }

func TestServiceState_SaveLoadRestore(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	at := time.Unix(1700000000, 0)

	require.NoError(t, s.SaveService(ctx, service.Record{Name: "Reg", LastRun: at, HasRun: true, State: service.StateCompleted}))
	require.NoError(t, s.SaveService(ctx, service.Record{Name: "MsgEx", LastRun: at, HasRun: true, State: service.StateIdle}))
	// Upsert overwrites.
	later := at.Add(100 * time.Second)
	require.NoError(t, s.SaveService(ctx, service.Record{Name: "MsgEx", LastRun: later, HasRun: true, State: service.StateIdle}))

	recs, err := s.LoadServices(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "MsgEx", recs[0].Name)
	assert.True(t, recs[0].LastRun.Equal(later))

	reg := service.New("Reg", service.RunModeRunOnce, service.RunnerFunc(nop), service.Suspended())
	other := service.New("Sensor", service.RunModeRecurring, service.RunnerFunc(nop), service.WithInterval(time.Minute))
	require.NoError(t, s.RestoreServices(ctx, reg, other))

	assert.True(t, reg.HasRun())
	assert.Equal(t, service.StateCompleted, reg.State())
	assert.False(t, other.HasRun(), "services without a record are untouched")

	require.NoError(t, s.ClearServices(ctx))
	recs, err = s.LoadServices(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestServiceState_EpochAndNeverRunAreDistinct(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	epoch := time.Unix(0, 0)

	require.NoError(t, s.SaveService(ctx, service.Record{Name: "Epoch", LastRun: epoch, HasRun: true, State: service.StateIdle}))
	require.NoError(t, s.SaveService(ctx, service.Record{Name: "Fresh", State: service.StateIdle}))

	recs, err := s.LoadServices(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.False(t, recs[0].LastRun.IsZero(), "a run at the Unix epoch is still a run")
	assert.True(t, recs[0].LastRun.Equal(epoch))
	assert.True(t, recs[1].LastRun.IsZero())
}

func TestServiceState_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "node.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveService(ctx, service.Record{Name: "Reg", HasRun: true, State: service.StateCompleted}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	recs, err := s.LoadServices(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].LastRun.IsZero())
}

func TestQueue_FIFOAndAttempts(t *testing.T) {
	ctx := context.Background()
	q := openMemory(t).Queue()

	for i := 1; i <= 3; i++ {
		msg := messages.New(map[int]any{messages.KeyMeasurements: i}, messages.TypeReport, i, nil)
		require.NoError(t, q.Push(ctx, msg))
	}
	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	first, err := q.Pending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, first[0].Msg.Subtype)
	assert.Zero(t, first[0].Attempts)

	attempts, err := q.MarkFailed(ctx, first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	attempts, err = q.MarkFailed(ctx, first[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	require.NoError(t, q.Remove(ctx, first[0].ID))
	rest, err := q.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, 2, rest[0].Msg.Subtype)
	assert.Equal(t, float64(3), rest[1].Msg.Data[messages.KeyMeasurements])
}
