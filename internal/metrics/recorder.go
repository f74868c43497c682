package metrics

import "time"

// ResultLabel enumerates service run result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for the scheduler, the sleep hand-off
// and the message exchange. All methods must be safe for nil receivers
// when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	IncTick()
	ObserveServiceRun(service string, d time.Duration, result ResultLabel)
	IncSleepDecision(decision string)
	IncSleepAttempt(success bool)
	IncSleepRetryExhausted()
	IncMessagesSent(success bool)
	SetQueueDepth(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncTick()                                             {}
func (NoopRecorder) ObserveServiceRun(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncSleepDecision(string)                              {}
func (NoopRecorder) IncSleepAttempt(bool)                                 {}
func (NoopRecorder) IncSleepRetryExhausted()                              {}
func (NoopRecorder) IncMessagesSent(bool)                                 {}
func (NoopRecorder) SetQueueDepth(int)                                    {}

// ResultFor maps a run error to its counter label.
func ResultFor(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}
