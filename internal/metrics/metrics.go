// Package metrics exposes Prometheus collectors for the Job Scheduler and
// Artifact Store, wiring the teacher's go.mod dependency on
// github.com/prometheus/client_golang to concrete instrumentation points
// this module actually has (none of the reference app's own code used it
// directly; this is fresh wiring against the same library).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector this process registers.
type Metrics struct {
	reg              *prometheus.Registry
	JobsSubmitted    prometheus.Counter
	JobsRunning      prometheus.Gauge
	JobsCompleted    prometheus.Counter
	JobsFailed       prometheus.Counter
	JobsCanceled     prometheus.Counter
	ArtifactsWritten prometheus.Counter
}

// New registers and returns a fresh Metrics against reg. A dedicated
// registry (rather than the global default) is required so Handler always
// serves exactly the collectors this Metrics owns.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskcore_jobs_submitted_total",
			Help: "Total number of jobs submitted to the scheduler.",
		}),
		JobsRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "taskcore_jobs_running",
			Help: "Number of jobs currently running.",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskcore_jobs_completed_total",
			Help: "Total number of jobs that reached the completed state.",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskcore_jobs_failed_total",
			Help: "Total number of jobs that reached the failed state.",
		}),
		JobsCanceled: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskcore_jobs_canceled_total",
			Help: "Total number of jobs that reached the canceled state.",
		}),
		ArtifactsWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "taskcore_artifacts_written_total",
			Help: "Total number of artifacts written by the task executor.",
		}),
	}
}

// Handler returns the HTTP handler to mount at /metrics, serving exactly
// the collectors registered against m's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Observe adapts Metrics into a scheduler.EventPublisher-compatible
// observer: call Observe with each published event type to update
// counters/gauges without the scheduler package needing to know about
// Prometheus.
func (m *Metrics) Observe(eventType string) {
	switch eventType {
	case "job_scheduler.job.finished":
		m.JobsCompleted.Inc()
	case "job_scheduler.job.failed":
		m.JobsFailed.Inc()
	case "job_scheduler.job.canceled":
		m.JobsCanceled.Inc()
	}
}
