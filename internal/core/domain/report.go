package domain

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// JobState is the lifecycle state of a build job.
type JobState uint8

const (
	// JobQueued is a job waiting for a worker slot.
	JobQueued JobState = iota
	// JobRunning is a job holding a worker slot.
	JobRunning
	// JobSucceeded is a job whose artifact was written and edges recorded.
	JobSucceeded
	// JobFailed is a job that ended with a diagnostic.
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobQueued:
		return "queued"
	case JobRunning:
		return "running"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TargetResult is the outcome of one target within a submission.
type TargetResult struct {
	Target   string
	Kind     Kind
	State    JobState
	Err      error
	Duration time.Duration
	Attempts int
	// Shared is set when this submission attached to a job started by another one.
	Shared bool
}

// Diagnostic returns the compiler output for compile failures and the error
// text for every other failure.
func (r TargetResult) Diagnostic() string {
	if r.Err == nil {
		return ""
	}
	var be *BuildError
	if errors.As(r.Err, &be) && be.Diagnostic != "" {
		return be.Diagnostic
	}
	return r.Err.Error()
}

// BuildReport is the result of one submission, ordered by target path.
type BuildReport struct {
	Results  []TargetResult
	Duration time.Duration
}

// NewBuildReport sorts results into a report.
func NewBuildReport(results []TargetResult, d time.Duration) BuildReport {
	slices.SortFunc(results, func(a, b TargetResult) int {
		return strings.Compare(a.Target, b.Target)
	})
	return BuildReport{Results: results, Duration: d}
}

// Failed returns the failed results in target order.
func (r BuildReport) Failed() []TargetResult {
	var out []TargetResult
	for _, res := range r.Results {
		if res.State == JobFailed {
			out = append(out, res)
		}
	}
	return out
}

// Succeeded returns how many targets were built.
func (r BuildReport) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.State == JobSucceeded {
			n++
		}
	}
	return n
}

// OK reports whether no target failed.
func (r BuildReport) OK() bool {
	return len(r.Failed()) == 0
}

// Empty reports whether the submission had nothing to build.
func (r BuildReport) Empty() bool {
	return len(r.Results) == 0
}

// Diagnostics returns the distinct diagnostics of failed targets in target order.
func (r BuildReport) Diagnostics() []string {
	seen := make(map[string]bool)
	var out []string
	for _, res := range r.Failed() {
		d := res.Diagnostic()
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out
}

// Result returns the result for target, if the report contains it.
func (r BuildReport) Result(target string) (TargetResult, bool) {
	target = NewPath(target).String()
	for _, res := range r.Results {
		if res.Target == target {
			return res, true
		}
	}
	return TargetResult{}, false
}
