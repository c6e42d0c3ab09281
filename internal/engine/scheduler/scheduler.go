// Package scheduler turns changed paths into compile and copy jobs and runs
// them on a bounded worker pool.
package scheduler

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var _ ports.Builder = (*Scheduler)(nil)

// maxAttempts bounds how often a job runs when it fails with an I/O error.
const maxAttempts = 2

// Deps are the collaborators of a Scheduler. Metrics and Logger may be nil.
type Deps struct {
	Layout    domain.Layout
	Graph     *domain.Graph
	Compiler  ports.Compiler
	Writer    ports.OutputWriter
	Sources   ports.ContentCache
	Resources ports.ResourceCache
	Walker    ports.Walker
	Tracer    ports.Tracer
	Metrics   ports.MetricsRecorder
	Logger    ports.Logger
}

// job is the single in-flight build of one target. done is closed once
// result is final.
type job struct {
	target domain.InternedString
	kind   domain.Kind
	done   chan struct{}
	result domain.TargetResult
}

// Scheduler implements ports.Builder.
type Scheduler struct {
	deps Deps
	sem  *semaphore.Weighted

	mu       sync.Mutex
	inflight map[domain.InternedString]*job
	// failed holds targets whose last job failed. They are rebuilt by the
	// next submission whatever it contains.
	failed map[domain.InternedString]struct{}
	// observed is the content hash of every path as of its last submission.
	observed map[domain.InternedString]uint64
}

// NewScheduler creates a scheduler running at most workers jobs at once
// across all submissions. workers < 1 means one.
func NewScheduler(deps Deps, workers int) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		deps:     deps,
		sem:      semaphore.NewWeighted(int64(workers)),
		inflight: make(map[domain.InternedString]*job),
		failed:   make(map[domain.InternedString]struct{}),
		observed: make(map[domain.InternedString]uint64),
	}
}

// Graph returns the dependency graph the scheduler maintains.
func (s *Scheduler) Graph() *domain.Graph {
	return s.deps.Graph
}

// Submit rebuilds every target invalidated by dirty and blocks until all of
// them settled. Per-target failures are part of the report. The error is
// reserved for an inconsistent graph, in which case no job runs, the
// offending owner is queued for the next submission and the changed paths
// count as changed again when resubmitted.
//
// A target that is already building is not started twice: the submission
// waits for the running job, which may have read older bytes. Such a target
// is rebuilt by the next submission that names it, even with unchanged bytes.
func (s *Scheduler) Submit(ctx context.Context, dirty []string) (domain.BuildReport, error) {
	start := time.Now()

	ctx, span := s.deps.Tracer.Start(ctx, "submit", ports.WithAttribute("dirty", len(dirty)))
	defer span.End()

	changed := s.prepare(ctx, dirty)
	if len(changed) == 0 {
		return domain.NewBuildReport(nil, time.Since(start)), nil
	}

	targets, err := s.deps.Graph.Closure(changed)
	if err != nil {
		var be *domain.BuildError
		if errors.As(err, &be) && errors.Is(err, domain.ErrGraphInconsistency) {
			s.deps.Graph.Reset(be.Path)
		}
		s.forget(changed)
		span.RecordError(err)
		return domain.BuildReport{}, zerr.Wrap(err, "failed to compute rebuild set")
	}
	targets = s.withFailures(targets)

	s.deps.Tracer.EmitPlan(ctx, targets)
	span.SetAttribute("targets", len(targets))

	results := s.run(ctx, targets)
	report := domain.NewBuildReport(results, time.Since(start))

	if n := len(report.Failed()); n > 0 {
		span.SetAttribute("failed", n)
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveSubmit(report.Duration, len(targets))
	}
	return report, nil
}

// FullScan walks the site, registers every classified file with the graph
// and builds every target once.
func (s *Scheduler) FullScan(ctx context.Context) (*domain.Graph, domain.BuildReport, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "full_scan", ports.WithAttribute("root", s.deps.Layout.Root))
	defer span.End()

	var ignores []string
	if s.deps.Layout.Output != "" {
		ignores = append(ignores, s.deps.Layout.Output)
	}
	for path := range s.deps.Walker.WalkFiles(s.deps.Layout.Root, ignores) {
		if s.deps.Layout.Classify(path) != domain.KindUnknown {
			s.deps.Graph.Touch(path)
		}
	}

	report, err := s.Submit(ctx, s.deps.Graph.Targets())
	if err != nil {
		span.RecordError(err)
		return s.deps.Graph, report, err
	}
	return s.deps.Graph, report, nil
}

// Verify checks the graph's edge symmetry. An inconsistent owner is reset so
// that the next submission recompiles it.
func (s *Scheduler) Verify() error {
	err := s.deps.Graph.Verify()
	var be *domain.BuildError
	if errors.As(err, &be) {
		s.deps.Graph.Reset(be.Path)
	}
	return err
}

// prepare normalizes dirty, applies removals and drops paths whose content
// is unchanged since the scheduler last looked at them.
func (s *Scheduler) prepare(ctx context.Context, dirty []string) []string {
	seen := make(map[domain.InternedString]bool, len(dirty))
	changed := make([]string, 0, len(dirty))

	for _, raw := range dirty {
		p := raw
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.deps.Layout.Root, p)
		}
		key := domain.NewPath(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		p = key.String()

		if s.deps.Layout.Ignored(p) {
			continue
		}

		info, err := os.Stat(p)
		switch {
		case errors.Is(err, iofs.ErrNotExist):
			// A moved or deleted directory arrives as a single path.
			if nested := s.deps.Graph.Under(p); len(nested) > 0 {
				for _, q := range nested {
					k := domain.NewPath(q)
					if seen[k] {
						continue
					}
					seen[k] = true
					s.remove(ctx, k)
					changed = append(changed, q)
				}
				continue
			}
			s.remove(ctx, key)
			changed = append(changed, p)
			continue
		case err == nil && info.IsDir():
			continue
		}

		if s.deps.Layout.Classify(p) != domain.KindUnknown {
			s.deps.Graph.Touch(p)
		}
		if s.unchanged(key) {
			continue
		}
		changed = append(changed, p)
	}
	return changed
}

// unchanged reports whether key hashes as it did when last observed and did
// not fail. It records the current hash either way.
func (s *Scheduler) unchanged(key domain.InternedString) bool {
	entry, err := s.deps.Sources.GetOrLoad(key.String())
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, known := s.observed[key]
	s.observed[key] = entry.Fingerprint.Hash
	if _, failed := s.failed[key]; failed {
		return false
	}
	return known && prev == entry.Fingerprint.Hash
}

func (s *Scheduler) remove(ctx context.Context, key domain.InternedString) {
	p := key.String()
	s.deps.Sources.Invalidate(p)
	s.deps.Graph.Remove(p)

	s.mu.Lock()
	delete(s.observed, key)
	delete(s.failed, key)
	s.mu.Unlock()

	if err := s.deps.Writer.Remove(ctx, p); err != nil && s.deps.Logger != nil {
		s.deps.Logger.Error(zerr.With(zerr.Wrap(err, "failed to remove stale output"), "path", p))
	}
}

// forget drops the observed hashes of paths.
func (s *Scheduler) forget(paths []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range paths {
		delete(s.observed, domain.NewPath(p))
	}
}

// withFailures adds targets that failed earlier and are still live.
func (s *Scheduler) withFailures(targets []string) []string {
	s.mu.Lock()
	extra := make([]string, 0, len(s.failed))
	for key := range s.failed {
		extra = append(extra, key.String())
	}
	s.mu.Unlock()

	for _, p := range extra {
		if s.deps.Graph.Has(p) {
			targets = append(targets, p)
		}
	}
	slices.Sort(targets)
	return slices.Compact(targets)
}

// run attaches to or starts one job per target and collects every result.
func (s *Scheduler) run(ctx context.Context, targets []string) []domain.TargetResult {
	results := make([]domain.TargetResult, len(targets))

	var g errgroup.Group
	for i, t := range targets {
		j, owned := s.claim(t)
		if !owned {
			if s.deps.Metrics != nil {
				s.deps.Metrics.IncShared()
			}
			g.Go(func() error {
				results[i] = s.await(ctx, j)
				return nil
			})
			continue
		}
		g.Go(func() error {
			s.execute(ctx, j)
			results[i] = j.result
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// claim returns the in-flight job for target, creating it when there is none.
func (s *Scheduler) claim(target string) (*job, bool) {
	key := domain.NewPath(target)

	s.mu.Lock()
	defer s.mu.Unlock()

	if j, ok := s.inflight[key]; ok {
		// The running job may predate the bytes this submission observed.
		delete(s.observed, key)
		return j, false
	}
	j := &job{
		target: key,
		kind:   s.deps.Graph.Kind(target),
		done:   make(chan struct{}),
	}
	j.result = domain.TargetResult{Target: key.String(), Kind: j.kind, State: domain.JobQueued}
	s.inflight[key] = j
	return j, true
}

// await waits for a job owned by another submission.
func (s *Scheduler) await(ctx context.Context, j *job) domain.TargetResult {
	select {
	case <-j.done:
		res := j.result
		res.Shared = true
		return res
	case <-ctx.Done():
		return domain.TargetResult{
			Target: j.target.String(),
			Kind:   j.kind,
			State:  domain.JobFailed,
			Err:    domain.ErrBuildCanceled,
			Shared: true,
		}
	}
}

// execute runs j to completion. A job that cannot get a worker before ctx
// ends is failed as canceled; a job that started is not interrupted.
func (s *Scheduler) execute(ctx context.Context, j *job) {
	defer s.finish(j)

	if ctx.Err() != nil || s.sem.Acquire(ctx, 1) != nil {
		j.result.State = domain.JobFailed
		j.result.Err = domain.ErrBuildCanceled
		return
	}
	defer s.sem.Release(1)

	j.result.State = domain.JobRunning
	start := time.Now()

	jobCtx, span := s.deps.Tracer.Start(context.WithoutCancel(ctx), "job",
		ports.WithAttribute("target", j.target.String()),
		ports.WithAttribute("kind", j.kind.String()),
	)
	defer span.End()

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		j.result.Attempts = attempt
		err = s.build(jobCtx, j)
		if err == nil || !errors.Is(err, domain.ErrIO) || attempt == maxAttempts {
			break
		}
		if s.deps.Metrics != nil {
			s.deps.Metrics.IncRetry()
		}
		s.deps.Sources.Invalidate(j.target.String())
	}

	j.result.Duration = time.Since(start)
	span.SetAttribute("attempts", j.result.Attempts)
	if err != nil {
		span.RecordError(err)
		j.result.State = domain.JobFailed
		j.result.Err = err
	} else {
		j.result.State = domain.JobSucceeded
	}
	if s.deps.Metrics != nil {
		s.deps.Metrics.ObserveJob(j.kind.String(), j.result.State.String(), j.result.Duration)
	}
}

// finish publishes j's result and releases the target for new jobs.
func (s *Scheduler) finish(j *job) {
	s.mu.Lock()
	delete(s.inflight, j.target)
	switch {
	case j.result.State == domain.JobSucceeded:
		delete(s.failed, j.target)
	case errors.Is(j.result.Err, domain.ErrBuildCanceled):
		// Forget the hash so that resubmitting the same bytes builds it.
		delete(s.observed, j.target)
	default:
		s.failed[j.target] = struct{}{}
	}
	s.mu.Unlock()

	close(j.done)
}

func (s *Scheduler) build(ctx context.Context, j *job) error {
	target := j.target.String()

	if j.kind == domain.KindAsset {
		entry, err := s.deps.Sources.GetOrLoad(target)
		if err != nil {
			return err
		}
		return s.deps.Writer.Write(ctx, target, domain.Artifact(entry.Payload))
	}

	res, err := s.deps.Compiler.Compile(ctx, ports.CompileRequest{
		Path:      target,
		Layout:    s.deps.Layout,
		Sources:   s.deps.Sources,
		Resources: s.deps.Resources,
	})
	if err != nil {
		return err
	}
	if err := s.deps.Writer.Write(ctx, target, res.Artifact); err != nil {
		return err
	}
	s.deps.Graph.RecordEdges(target, res.Includes)

	if s.deps.Logger != nil {
		for _, w := range res.Warnings {
			s.deps.Logger.Warn(target + ": " + w)
		}
	}
	return nil
}
