// Package app implements the application layer for tola.
package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/tola/internal/adapters/detector"
	"go.trai.ch/tola/internal/adapters/fs"
	"go.trai.ch/tola/internal/adapters/linear"
	"go.trai.ch/tola/internal/adapters/metrics"
	"go.trai.ch/tola/internal/adapters/telemetry"
	"go.trai.ch/tola/internal/adapters/typst"
	"go.trai.ch/tola/internal/adapters/watcher"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/tola/internal/engine/scheduler"
	"go.trai.ch/tola/internal/engine/watch"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// metricsShutdownTimeout bounds how long the metrics server drains on exit.
const metricsShutdownTimeout = 5 * time.Second

// CompilerFactory builds the document compiler for a loaded site.
type CompilerFactory func(cfg *domain.SiteConfig, log ports.Logger) ports.Compiler

// WatcherFactory creates the file system watcher of a watch session.
type WatcherFactory func(log ports.Logger) (ports.Watcher, error)

// configurable is implemented by loggers whose presentation can change after
// construction.
type configurable interface {
	SetJSON(enable bool)
	SetProfile(p termenv.Profile)
}

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	walker       ports.Walker
	sources      ports.ContentCache
	resources    ports.ResourceCache
	tracer       ports.Tracer
	recorder     *metrics.Recorder

	stdout     io.Writer
	compilers  CompilerFactory
	newWatcher WatcherFactory
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	walker ports.Walker,
	sources ports.ContentCache,
	resources ports.ResourceCache,
	tracer ports.Tracer,
	recorder *metrics.Recorder,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		walker:       walker,
		sources:      sources,
		resources:    resources,
		tracer:       tracer,
		recorder:     recorder,
		stdout:       os.Stdout,
		compilers: func(cfg *domain.SiteConfig, log ports.Logger) ports.Compiler {
			return typst.NewCompiler(cfg.Build.Typst.Command, cfg.FontDir(), log)
		},
		newWatcher: func(log ports.Logger) (ports.Watcher, error) {
			return watcher.NewWatcher(log)
		},
	}
}

// WithOutput sets where build reports are printed.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithCompiler replaces the typst compiler.
// This is primarily used for testing without a typst binary.
func (a *App) WithCompiler(f CompilerFactory) *App {
	a.compilers = f
	return a
}

// WithWatcher replaces the fsnotify watcher.
func (a *App) WithWatcher(f WatcherFactory) *App {
	a.newWatcher = f
	return a
}

// Options configure one Build or Watch invocation.
type Options struct {
	// Dir is where the configuration search starts.
	Dir string
	// Jobs overrides the configured worker count when positive.
	Jobs int
	// Color selects colored or plain report output.
	Color detector.ColorMode
	// JSONLogs switches the logger to JSON lines.
	JSONLogs bool
	// TraceFile, when set, receives one JSON line per finished span.
	TraceFile string
	// MetricsAddr, when set, serves Prometheus metrics on /metrics during watch.
	MetricsAddr string
}

// session is one loaded site with its scheduler.
type session struct {
	cfg      *domain.SiteConfig
	layout   domain.Layout
	sched    *scheduler.Scheduler
	notifier ports.Notifier
	shutdown func(context.Context) error
}

func (a *App) open(opts Options) (*session, error) {
	profile := a.profile(opts.Color)
	if l, ok := a.logger.(configurable); ok {
		l.SetJSON(opts.JSONLogs)
		l.SetProfile(profile)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	cfg, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	layout := cfg.Layout()

	shutdown := func(context.Context) error { return nil }
	if opts.TraceFile != "" {
		f, err := os.Create(opts.TraceFile) //nolint:gosec // Path is chosen by the user
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to create trace file"), "path", opts.TraceFile)
		}
		stop := telemetry.Setup(f)
		shutdown = func(ctx context.Context) error {
			return errors.Join(stop(ctx), f.Close())
		}
	}

	workers := cfg.Build.WorkerCount()
	if opts.Jobs > 0 {
		workers = opts.Jobs
	}

	deps := scheduler.Deps{
		Layout:    layout,
		Graph:     domain.NewGraph(layout.Classify),
		Compiler:  a.compilers(cfg, a.logger),
		Writer:    fs.NewWriter(layout),
		Sources:   a.sources,
		Resources: a.resources,
		Walker:    a.walker,
		Tracer:    a.tracer,
		Logger:    a.logger,
	}
	if a.recorder != nil {
		deps.Metrics = a.recorder
	}

	return &session{
		cfg:      cfg,
		layout:   layout,
		sched:    scheduler.NewScheduler(deps, workers),
		notifier: linear.NewRenderer(a.stdout, layout.Root, profile),
		shutdown: shutdown,
	}, nil
}

func (s *session) close(ctx context.Context, log ports.Logger) {
	if err := s.shutdown(context.WithoutCancel(ctx)); err != nil {
		log.Error(zerr.Wrap(err, "failed to flush traces"))
	}
}

// scan seeds the graph and builds every target once.
func (s *session) scan(ctx context.Context) (domain.BuildReport, error) {
	_, report, err := s.sched.FullScan(ctx)
	if err != nil {
		return report, zerr.Wrap(err, "full scan failed")
	}
	s.notifier.Notify(report)
	return report, nil
}

// Build compiles the whole site once. Any failed target makes it return an
// error wrapping domain.ErrBuildFailed after the report has been printed.
func (a *App) Build(ctx context.Context, opts Options) error {
	s, err := a.open(opts)
	if err != nil {
		return err
	}
	defer s.close(ctx, a.logger)

	report, err := s.scan(ctx)
	if err != nil {
		return err
	}
	if !report.OK() {
		return errors.Join(domain.ErrBuildFailed,
			zerr.With(zerr.New("targets failed"), "failed", len(report.Failed())))
	}
	return nil
}

// Watch builds the site once and then rebuilds on every change until ctx
// is canceled. Build failures are reported and never end the loop.
func (a *App) Watch(ctx context.Context, opts Options) error {
	s, err := a.open(opts)
	if err != nil {
		return err
	}
	defer s.close(ctx, a.logger)

	if _, err := s.scan(ctx); err != nil {
		a.logger.Error(err)
	}
	if !s.cfg.Serve.Watch {
		a.logger.Warn("watching is disabled by serve.watch")
		return nil
	}

	w, err := a.newWatcher(a.logger)
	if err != nil {
		return err
	}
	ctrl := watch.NewController(watch.Deps{
		Layout:   s.layout,
		Graph:    s.sched.Graph(),
		Builder:  s.sched,
		Watcher:  w,
		Notifier: s.notifier,
		Logger:   a.logger,
	}, s.cfg.Serve.Debounce(), s.cfg.Serve.Cooldown())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(ctx)
	})
	if opts.MetricsAddr != "" && a.recorder != nil {
		a.serveMetrics(ctx, g, opts.MetricsAddr)
	}
	return g.Wait()
}

func (a *App) serveMetrics(ctx context.Context, g *errgroup.Group, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.recorder.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g.Go(func() error {
		a.logger.Info("serving metrics on " + addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return zerr.With(zerr.Wrap(err, "metrics server failed"), "addr", addr)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

func (a *App) profile(mode detector.ColorMode) termenv.Profile {
	if f, ok := a.stdout.(*os.File); ok {
		return detector.Profile(mode, f)
	}
	if mode == detector.ColorAlways {
		return detector.Profile(mode, nil)
	}
	return termenv.Ascii
}
