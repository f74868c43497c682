package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "lorasensor"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	ticks            prom.Counter
	serviceDuration  *prom.HistogramVec
	serviceRuns      *prom.CounterVec
	sleepDecisions   *prom.CounterVec
	sleepAttempts    *prom.CounterVec
	retriesExhausted prom.Counter
	messagesSent     *prom.CounterVec
	queueDepth       prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		ticks: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler ticks executed",
		}),
		serviceDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "service_run_duration_seconds",
			Help:      "Duration of individual service runs",
			Buckets:   prom.DefBuckets,
		}, []string{"service"}),
		serviceRuns: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "service_runs_total",
			Help:      "Service runs by result",
		}, []string{"service", "result"}),
		sleepDecisions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sleep_decisions_total",
			Help:      "Scheduler decisions taken when no service ran",
		}, []string{"decision"}),
		sleepAttempts: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sleep_command_attempts_total",
			Help:      "Sleep command transmissions by result",
		}, []string{"result"}),
		retriesExhausted: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "sleep_retry_exhausted_total",
			Help:      "Sleep hand-offs where every attempt failed",
		}),
		messagesSent: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_messages_sent_total",
			Help:      "Outbound message sends by result",
		}, []string{"result"}),
		queueDepth: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "exchange_queue_depth",
			Help:      "Messages waiting in the outbound queue",
		}),
	}
	reg.MustRegister(pr.ticks, pr.serviceDuration, pr.serviceRuns, pr.sleepDecisions,
		pr.sleepAttempts, pr.retriesExhausted, pr.messagesSent, pr.queueDepth)
	return pr
}

func boolResult(ok bool) string {
	if ok {
		return string(ResultSuccess)
	}
	return string(ResultFailed)
}

func (p *PrometheusRecorder) IncTick() {
	if p == nil || p.ticks == nil {
		return
	}
	p.ticks.Inc()
}

func (p *PrometheusRecorder) ObserveServiceRun(service string, d time.Duration, result ResultLabel) {
	if p == nil || p.serviceDuration == nil {
		return
	}
	p.serviceDuration.WithLabelValues(service).Observe(d.Seconds())
	p.serviceRuns.WithLabelValues(service, string(result)).Inc()
}

func (p *PrometheusRecorder) IncSleepDecision(decision string) {
	if p == nil || p.sleepDecisions == nil {
		return
	}
	p.sleepDecisions.WithLabelValues(decision).Inc()
}

func (p *PrometheusRecorder) IncSleepAttempt(success bool) {
	if p == nil || p.sleepAttempts == nil {
		return
	}
	p.sleepAttempts.WithLabelValues(boolResult(success)).Inc()
}

func (p *PrometheusRecorder) IncSleepRetryExhausted() {
	if p == nil || p.retriesExhausted == nil {
		return
	}
	p.retriesExhausted.Inc()
}

func (p *PrometheusRecorder) IncMessagesSent(success bool) {
	if p == nil || p.messagesSent == nil {
		return
	}
	p.messagesSent.WithLabelValues(boolResult(success)).Inc()
}

func (p *PrometheusRecorder) SetQueueDepth(n int) {
	if p == nil || p.queueDepth == nil {
		return
	}
	p.queueDepth.Set(float64(n))
}
