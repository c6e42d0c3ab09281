package watch

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/zerr"
)

// Deps are the collaborators of a Controller. Notifier may be nil.
type Deps struct {
	Layout   domain.Layout
	Graph    *domain.Graph
	Builder  ports.Builder
	Watcher  ports.Watcher
	Notifier ports.Notifier
	Logger   ports.Logger
}

// Controller feeds file system events through a Machine and submits the
// resulting batches. At most one submission is outstanding at a time.
type Controller struct {
	deps    Deps
	machine *Machine
}

// NewController creates a controller with the given debounce window and
// post-build cooldown.
func NewController(deps Deps, debounce, cooldown time.Duration) *Controller {
	return &Controller{
		deps:    deps,
		machine: NewMachine(debounce, cooldown),
	}
}

type outcome struct {
	report domain.BuildReport
	err    error
}

// Run watches the site until ctx is canceled. On cancellation an
// outstanding submission is waited for and reported, and no new one starts.
// Build failures never end the loop.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.deps.Watcher.Start(ctx, c.deps.Layout.WatchRoots()...); err != nil {
		return zerr.Wrap(err, "failed to watch site")
	}
	defer func() {
		if err := c.deps.Watcher.Stop(); err != nil {
			c.deps.Logger.Error(zerr.Wrap(err, "failed to stop watcher"))
		}
	}()

	c.deps.Logger.Info("watching " + c.deps.Layout.Root)

	events := make(chan ports.WatchEvent)
	go c.forward(ctx, events)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	var (
		timerC     <-chan time.Time
		submitting bool
		done       = make(chan outcome, 1)
	)

	apply := func(a Action) {
		switch a.Kind {
		case ActArm:
			timer.Reset(a.Delay)
			timerC = timer.C
		case ActSubmit:
			timerC = nil
			if ctx.Err() != nil {
				return
			}
			submitting = true
			c.deps.Logger.Info("rebuilding after " + strconv.Itoa(len(a.Paths)) + " changed paths")
			go func() {
				report, err := c.deps.Builder.Submit(ctx, a.Paths)
				done <- outcome{report: report, err: err}
			}()
		}
	}

	for {
		select {
		case <-ctx.Done():
			if submitting {
				c.report(<-done)
			}
			return nil

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if c.relevant(ev) {
				apply(c.machine.Event(ev.Path))
			}

		case <-timerC:
			timerC = nil
			apply(c.machine.TimerFired())

		case o := <-done:
			submitting = false
			c.report(o)
			apply(c.machine.BuildDone())
		}
	}
}

func (c *Controller) forward(ctx context.Context, out chan<- ports.WatchEvent) {
	defer close(out)
	for ev := range c.deps.Watcher.Events() {
		select {
		case out <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// relevant drops events for the output tree, skipped names, directories and
// files the site neither classifies nor includes.
func (c *Controller) relevant(ev ports.WatchEvent) bool {
	p := filepath.Clean(ev.Path)
	if c.deps.Layout.Ignored(p) {
		return false
	}
	if ev.Operation != ports.OpRemove {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return false
		}
	}
	return c.deps.Layout.Classify(p) != domain.KindUnknown || c.deps.Graph.Has(p)
}

func (c *Controller) report(o outcome) {
	if o.err != nil {
		c.deps.Logger.Error(o.err)
		return
	}
	if o.report.Empty() || c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Notify(o.report)
}
