package status

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/lorasensor/internal/foundation/errors"
	"git.home.luguber.info/inful/lorasensor/internal/scheduler"
)

type fixedSource struct{}

func (fixedSource) Snapshot() []scheduler.ServiceStatus {
	due := 30 * time.Second
	return []scheduler.ServiceStatus{{Name: "MsgEx", Mode: "recurring", State: "idle", NextDueIn: &due}}
}

func (fixedSource) LastDecision() scheduler.Decision {
	return scheduler.Decision{Kind: scheduler.DecisionDeepSleep, Horizon: 30 * time.Second}
}

type publishLog struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
	err      error
}

func (p *publishLog) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func (p *publishLog) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}

func TestReport_Publishes(t *testing.T) {
	pub := &publishLog{}
	r, err := New(fixedSource{}, "node-1", time.Minute, WithPublisher(pub, "lorasensor.node-1.status"))
	require.NoError(t, err)

	require.NoError(t, r.Report(context.Background()))
	require.Equal(t, 1, pub.count())
	assert.Equal(t, "lorasensor.node-1.status", pub.subjects[0])

	var rep Report
	require.NoError(t, json.Unmarshal(pub.payloads[0], &rep))
	assert.Equal(t, "node-1", rep.Device)
	assert.Equal(t, "deep_sleep", rep.Decision)
	require.Len(t, rep.Services, 1)
	assert.Equal(t, "MsgEx", rep.Services[0].Name)
}

func TestReport_WithoutPublisherOnlyLogs(t *testing.T) {
	r, err := New(fixedSource{}, "node-1", time.Minute)
	require.NoError(t, err)
	assert.NoError(t, r.Report(context.Background()))
}

func TestReport_PublishFailure(t *testing.T) {
	pub := &publishLog{err: errors.ExchangeError("no responders").Build()}
	r, err := New(fixedSource{}, "node-1", time.Minute, WithPublisher(pub, "s"))
	require.NoError(t, err)
	err = r.Report(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryExchange))
}

func TestReporter_RunsOnSchedule(t *testing.T) {
	pub := &publishLog{}
	r, err := New(fixedSource{}, "node-1", 20*time.Millisecond, WithPublisher(pub, "s"))
	require.NoError(t, err)

	require.NoError(t, r.Start(context.Background()))
	t.Cleanup(func() { _ = r.Stop() })

	assert.Eventually(t, func() bool { return pub.count() >= 2 }, 2*time.Second, 10*time.Millisecond)
}
