// Package metrics provides the node's observability hooks.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so nothing needs a nil check:
//
//	sched := scheduler.New(actuator, scheduler.WithRecorder(metrics.NoopRecorder{}))
//
// When metrics.enabled is set the CLI swaps in a PrometheusRecorder and serves
// HTTPHandler on metrics.listen.
package metrics
