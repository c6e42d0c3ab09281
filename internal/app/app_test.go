package app_test

import (
	"bytes"
	"context"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tola/internal/adapters/cache"
	"go.trai.ch/tola/internal/adapters/config"
	"go.trai.ch/tola/internal/adapters/detector"
	"go.trai.ch/tola/internal/adapters/fs"
	"go.trai.ch/tola/internal/adapters/metrics"
	"go.trai.ch/tola/internal/adapters/telemetry"
	"go.trai.ch/tola/internal/app"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/tola/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// echoCompiler renders a page as its own bytes. Pages starting with "!" fail.
type echoCompiler struct{}

func (echoCompiler) Compile(_ context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	entry, err := req.Sources.GetOrLoad(req.Path)
	if err != nil {
		return ports.CompileResult{}, err
	}
	if bytes.HasPrefix(entry.Payload, []byte("!")) {
		return ports.CompileResult{}, domain.NewCompileError(req.Path, "error: "+string(entry.Payload[1:]))
	}
	return ports.CompileResult{Artifact: entry.Payload}, nil
}

type fixture struct {
	root   string
	out    *bytes.Buffer
	logger *mocks.MockLogger
	tracer ports.Tracer
	ticks  int64
}

func newFixture(t *testing.T, configBody string) *fixture {
	t.Helper()
	f := &fixture{
		root:   t.TempDir(),
		out:    &bytes.Buffer{},
		logger: mocks.NewMockLogger(gomock.NewController(t)),
		tracer: telemetry.NewNoOpTracer(),
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	f.write(t, domain.ConfigFileName, configBody)
	return f
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := f.path(rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
	require.NoError(t, os.WriteFile(p, []byte(content), domain.FilePerm))
	f.ticks++
	mtime := time.Unix(1_700_000_000+f.ticks, 0)
	require.NoError(t, os.Chtimes(p, mtime, mtime))
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(f.path(rel))
	require.NoError(t, err)
	return string(data)
}

func (f *fixture) app() *app.App {
	return app.New(
		config.NewLoader(f.logger),
		f.logger,
		fs.NewWalker(),
		cache.NewContentCache(fs.NewHasher(), nil),
		cache.NewResourceCache(),
		f.tracer,
		metrics.NewRecorder(nil),
	).
		WithOutput(f.out).
		WithCompiler(func(*domain.SiteConfig, ports.Logger) ports.Compiler { return echoCompiler{} })
}

func (f *fixture) options() app.Options {
	return app.Options{Dir: f.root, Jobs: 2, Color: detector.ColorNever}
}

func TestApp_Build(t *testing.T) {
	f := newFixture(t, "[build]\n")
	f.write(t, "content/index.typ", "home")
	f.write(t, "content/posts/hello.typ", "hello")
	f.write(t, "assets/site.css", "body{}")

	require.NoError(t, f.app().Build(context.Background(), f.options()))

	assert.Equal(t, "home", f.read(t, "public/index.html"))
	assert.Equal(t, "hello", f.read(t, "public/posts/hello/index.html"))
	assert.Equal(t, "body{}", f.read(t, "public/site.css"))
	assert.Contains(t, f.out.String(), "built 3 of 3 targets")
}

func TestApp_Build_FailedTarget(t *testing.T) {
	f := newFixture(t, "[build]\n")
	f.write(t, "content/index.typ", "home")
	f.write(t, "content/broken.typ", "!unknown variable: titel")

	err := f.app().Build(context.Background(), f.options())
	require.ErrorIs(t, err, domain.ErrBuildFailed)

	assert.Equal(t, "home", f.read(t, "public/index.html"))
	assert.Contains(t, f.out.String(), "error: unknown variable: titel")
	assert.Contains(t, f.out.String(), "1 failed")
}

func TestApp_Build_MissingConfiguration(t *testing.T) {
	f := newFixture(t, "")
	require.NoError(t, os.Remove(f.path(domain.ConfigFileName)))
	opts := f.options()
	opts.Dir = t.TempDir()

	err := f.app().Build(context.Background(), opts)
	require.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestApp_Build_TraceFile(t *testing.T) {
	f := newFixture(t, "[build]\n")
	f.tracer = telemetry.NewOTelTracer("tola-test")
	f.write(t, "content/index.typ", "home")

	opts := f.options()
	opts.TraceFile = filepath.Join(t.TempDir(), "trace.jsonl")
	require.NoError(t, f.app().Build(context.Background(), opts))

	trace, err := os.ReadFile(opts.TraceFile)
	require.NoError(t, err)
	assert.Contains(t, string(trace), `"name":"job"`)
	assert.Contains(t, string(trace), `"name":"full_scan"`)
}

// chanWatcher delivers the events the test sends.
type chanWatcher struct {
	events chan ports.WatchEvent
	once   sync.Once
}

func (w *chanWatcher) Start(context.Context, ...string) error { return nil }

func (w *chanWatcher) Stop() error {
	w.once.Do(func() { close(w.events) })
	return nil
}

func (w *chanWatcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for ev := range w.events {
			if !yield(ev) {
				return
			}
		}
	}
}

func TestApp_Watch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		f := newFixture(t, "[serve]\ndebounce_ms = 100\ncooldown_ms = 0\n")
		f.write(t, "content/index.typ", "v1")

		w := &chanWatcher{events: make(chan ports.WatchEvent)}
		a := f.app().WithWatcher(func(ports.Logger) (ports.Watcher, error) { return w, nil })

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- a.Watch(ctx, f.options()) }()
		synctest.Wait()
		assert.Equal(t, "v1", f.read(t, "public/index.html"))

		f.write(t, "content/index.typ", "!broken")
		w.events <- ports.WatchEvent{Path: f.path("content/index.typ"), Operation: ports.OpWrite}
		time.Sleep(101 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, "v1", f.read(t, "public/index.html"), "a failed page keeps its last artifact")

		f.write(t, "content/index.typ", "v2")
		w.events <- ports.WatchEvent{Path: f.path("content/index.typ"), Operation: ports.OpWrite}
		time.Sleep(101 * time.Millisecond)
		synctest.Wait()
		assert.Equal(t, "v2", f.read(t, "public/index.html"))

		cancel()
		require.NoError(t, <-errc)
		assert.Contains(t, f.out.String(), "error: broken")
	})
}

func TestApp_Watch_DisabledByConfig(t *testing.T) {
	f := newFixture(t, "[serve]\nwatch = false\n")
	f.write(t, "content/index.typ", "home")

	a := f.app().WithWatcher(func(ports.Logger) (ports.Watcher, error) {
		t.Fatal("watcher must not be created")
		return nil, nil
	})
	require.NoError(t, a.Watch(context.Background(), f.options()))
	assert.Equal(t, "home", f.read(t, "public/index.html"))
}
