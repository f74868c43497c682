package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncTick()
	pr.ObserveServiceRun("Reg", 15*time.Millisecond, ResultSuccess)
	pr.IncSleepDecision("deep_sleep")
	pr.IncSleepAttempt(false)
	pr.IncSleepAttempt(true)
	pr.IncSleepRetryExhausted()
	pr.IncMessagesSent(true)
	pr.SetQueueDepth(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)

	byName := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				byName[mf.GetName()] += m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				byName[mf.GetName()] += m.GetGauge().GetValue()
			}
		}
	}
	assert.InDelta(t, 1, byName["lorasensor_scheduler_ticks_total"], 0)
	assert.InDelta(t, 2, byName["lorasensor_sleep_command_attempts_total"], 0)
	assert.InDelta(t, 3, byName["lorasensor_exchange_queue_depth"], 0)
}

func TestPrometheusRecorder_NilReceiver(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncTick()
	pr.ObserveServiceRun("x", time.Second, ResultFailed)
	pr.SetQueueDepth(1)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncSleepDecision("wait")

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "lorasensor_sleep_decisions_total")
}
