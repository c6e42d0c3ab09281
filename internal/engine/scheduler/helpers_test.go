package scheduler_test

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.trai.ch/tola/internal/adapters/cache"
	"go.trai.ch/tola/internal/adapters/fs"
	"go.trai.ch/tola/internal/adapters/telemetry"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/tola/internal/engine/scheduler"
)

// testSite is a site on disk with a scheduler over real adapters.
type testSite struct {
	t       *testing.T
	root    string
	layout  domain.Layout
	graph   *domain.Graph
	sources *cache.ContentCache
	writer  *fs.Writer
	ticks   int64
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	root := t.TempDir()

	cfg := domain.DefaultSiteConfig()
	cfg.Path = filepath.Join(root, domain.ConfigFileName)
	layout := cfg.Layout()

	s := &testSite{
		t:       t,
		root:    root,
		layout:  layout,
		graph:   domain.NewGraph(layout.Classify),
		sources: cache.NewContentCache(fs.NewHasher(), nil),
		writer:  fs.NewWriter(layout),
	}
	s.write(domain.ConfigFileName, "[build]\n")
	return s
}

func (s *testSite) path(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// write creates or replaces rel with a unique mtime so that every write is
// visible to stat-based caching.
func (s *testSite) write(rel, content string) string {
	s.t.Helper()
	p := s.path(rel)
	require.NoError(s.t, os.MkdirAll(filepath.Dir(p), domain.DirPerm))
	require.NoError(s.t, os.WriteFile(p, []byte(content), domain.FilePerm))
	s.ticks++
	mtime := time.Unix(1_700_000_000+s.ticks, 0)
	require.NoError(s.t, os.Chtimes(p, mtime, mtime))
	return p
}

func (s *testSite) read(rel string) string {
	s.t.Helper()
	data, err := os.ReadFile(s.path(rel))
	require.NoError(s.t, err)
	return string(data)
}

func (s *testSite) scheduler(compiler ports.Compiler, workers int, opts ...func(*scheduler.Deps)) *scheduler.Scheduler {
	deps := scheduler.Deps{
		Layout:    s.layout,
		Graph:     s.graph,
		Compiler:  compiler,
		Writer:    s.writer,
		Sources:   s.sources,
		Resources: cache.NewResourceCache(),
		Walker:    fs.NewWalker(),
		Tracer:    telemetry.NewNoOpTracer(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return scheduler.NewScheduler(deps, workers)
}

// fakeCompiler renders a page as its own text followed by the text of every
// file named on an `#import "/rel"` line. Pages containing ERROR fail.
type fakeCompiler struct {
	mu    sync.Mutex
	calls map[string]int
}

func newFakeCompiler() *fakeCompiler {
	return &fakeCompiler{calls: make(map[string]int)}
}

func (f *fakeCompiler) Compile(_ context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	f.mu.Lock()
	f.calls[req.Path]++
	f.mu.Unlock()

	page, err := req.Sources.GetOrLoad(req.Path)
	if err != nil {
		return ports.CompileResult{}, err
	}
	if bytes.Contains(page.Payload, []byte("ERROR")) {
		return ports.CompileResult{}, domain.NewCompileError(req.Path, "error: unexpected ERROR\n  ┌─ "+filepath.Base(req.Path)+":1:1")
	}

	var out bytes.Buffer
	var includes []string
	out.Write(page.Payload)

	sc := bufio.NewScanner(bytes.NewReader(page.Payload))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		rest, ok := strings.CutPrefix(line, `#import "/`)
		if !ok {
			continue
		}
		inc := filepath.Join(req.Layout.Root, filepath.FromSlash(strings.TrimSuffix(rest, `"`)))
		entry, err := req.Sources.GetOrLoad(inc)
		if err != nil {
			return ports.CompileResult{}, domain.NewCompileError(req.Path, "error: file not found: "+inc)
		}
		includes = append(includes, inc)
		out.WriteString("\n")
		out.Write(entry.Payload)
	}

	return ports.CompileResult{Artifact: out.Bytes(), Includes: includes}, nil
}

func (f *fakeCompiler) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func (f *fakeCompiler) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = make(map[string]int)
}

func targets(r domain.BuildReport) []string {
	out := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		out = append(out, res.Target)
	}
	return out
}
