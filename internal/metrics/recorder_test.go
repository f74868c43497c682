package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncTick()
	r.ObserveServiceRun("MsgEx", time.Second, ResultSuccess)
	r.IncSleepDecision("deep_sleep_forever")
	r.IncSleepAttempt(true)
	r.IncSleepRetryExhausted()
	r.IncMessagesSent(false)
	r.SetQueueDepth(0)
}

func TestResultFor(t *testing.T) {
	if ResultFor(nil) != ResultSuccess {
		t.Fatalf("nil error should map to success")
	}
	if ResultFor(errors.New("x")) != ResultFailed {
		t.Fatalf("error should map to failed")
	}
}
