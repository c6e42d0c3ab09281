package ports

import "time"

// MetricsRecorder observes the build pipeline.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type MetricsRecorder interface {
	// ObserveJob records one finished job by target kind and final state.
	ObserveJob(kind, state string, d time.Duration)
	// ObserveSubmit records one submission and the size of its rebuild set.
	ObserveSubmit(d time.Duration, targets int)
	// IncCache counts a content cache lookup.
	IncCache(hit bool)
	// IncShared counts a target that attached to an in-flight job.
	IncShared()
	// IncRetry counts a retried I/O failure.
	IncRetry()
}
