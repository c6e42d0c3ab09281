// Package metrics records build pipeline metrics with Prometheus.
package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.trai.ch/tola/internal/core/ports"
)

const namespace = "tola"

var _ ports.MetricsRecorder = (*Recorder)(nil)

// Recorder implements ports.MetricsRecorder. A nil *Recorder records nothing.
type Recorder struct {
	registry       *prom.Registry
	jobDuration    *prom.HistogramVec
	jobs           *prom.CounterVec
	submitDuration prom.Histogram
	rebuildSetSize prom.Histogram
	cacheLookups   *prom.CounterVec
	sharedJobs     prom.Counter
	retries        prom.Counter
}

// NewRecorder constructs the build metrics and registers them on reg.
// A nil reg gets a fresh private registry.
func NewRecorder(reg *prom.Registry) *Recorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	r := &Recorder{
		registry: reg,
		jobDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Duration of build jobs by target kind",
			Buckets:   prom.DefBuckets,
		}, []string{"kind"}),
		jobs: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Finished build jobs by target kind and final state",
		}, []string{"kind", "state"}),
		submitDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "submit_duration_seconds",
			Help:      "Duration of build submissions",
			Buckets:   prom.DefBuckets,
		}),
		rebuildSetSize: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "rebuild_set_size",
			Help:      "Number of targets per submission",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_cache_lookups_total",
			Help:      "Content cache lookups by result",
		}, []string{"result"}),
		sharedJobs: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "shared_jobs_total",
			Help:      "Targets that attached to a job already in flight",
		}),
		retries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "job_retries_total",
			Help:      "Jobs retried after an I/O failure",
		}),
	}
	reg.MustRegister(
		r.jobDuration, r.jobs, r.submitDuration, r.rebuildSetSize,
		r.cacheLookups, r.sharedJobs, r.retries,
	)
	return r
}

// ObserveJob records a finished job.
func (r *Recorder) ObserveJob(kind, state string, d time.Duration) {
	if r == nil {
		return
	}
	r.jobDuration.WithLabelValues(kind).Observe(d.Seconds())
	r.jobs.WithLabelValues(kind, state).Inc()
}

// ObserveSubmit records a finished submission.
func (r *Recorder) ObserveSubmit(d time.Duration, targets int) {
	if r == nil {
		return
	}
	r.submitDuration.Observe(d.Seconds())
	r.rebuildSetSize.Observe(float64(targets))
}

// IncCache counts a content cache lookup.
func (r *Recorder) IncCache(hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

// IncShared counts a coalesced target.
func (r *Recorder) IncShared() {
	if r == nil {
		return
	}
	r.sharedJobs.Inc()
}

// IncRetry counts a retried job.
func (r *Recorder) IncRetry() {
	if r == nil {
		return
	}
	r.retries.Inc()
}

// Handler serves the recorder's registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
