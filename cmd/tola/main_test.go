package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/tola/internal/adapters/cache"
	"go.trai.ch/tola/internal/adapters/fs"
	"go.trai.ch/tola/internal/adapters/metrics"
	"go.trai.ch/tola/internal/adapters/telemetry"
	"go.trai.ch/tola/internal/app"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/tola/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"tola": func() {
			os.Exit(run(context.Background(), os.Args[1:], os.Stderr, provideComponents))
		},
	})
}

// TestScripts runs the CLI end to end against sites built by a fake typst on PATH.
func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir:   filepath.Join("testdata", "script"),
		Setup: setupScript,
	})
}

func setupScript(env *testscript.Env) error {
	env.Setenv("NO_COLOR", "1")
	env.Setenv("CI", "true")

	bin := filepath.Join(env.WorkDir, "bin")
	env.Setenv("PATH", bin+string(os.PathListSeparator)+env.Getenv("PATH"))
	return nil
}

func newTestApp(loader ports.ConfigLoader, log ports.Logger) *app.App {
	return app.New(
		loader,
		log,
		fs.NewWalker(),
		cache.NewContentCache(fs.NewHasher(), nil),
		cache.NewResourceCache(),
		telemetry.NewNoOpTracer(),
		metrics.NewRecorder(nil),
	).WithOutput(new(bytes.Buffer))
}

func provide(a *app.App, log ports.Logger) ComponentProvider {
	return func(context.Context) (*app.Components, func(), error) {
		return &app.Components{App: a, Logger: log}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoader := mocks.NewMockConfigLoader(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provide(newTestApp(mockLoader, mockLogger), mockLogger))
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that other errors are logged and exit 1.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoader := mocks.NewMockConfigLoader(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)

	loadErr := errors.New("config broken")
	mockLoader.EXPECT().Load(".").Return(nil, loadErr)
	mockLogger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, loadErr)
	})

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"build"}, stderr, provide(newTestApp(mockLoader, mockLogger), mockLogger))
	assert.Equal(t, 1, exitCode)
}

// TestRun_BuildFailure verifies that failed targets exit 1 without an extra log line.
func TestRun_BuildFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoader := mocks.NewMockConfigLoader(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)

	root := t.TempDir()
	page := filepath.Join(root, "content", "index.typ")
	assert.NoError(t, os.MkdirAll(filepath.Dir(page), domain.DirPerm))
	assert.NoError(t, os.WriteFile(page, []byte("= Home"), domain.FilePerm))

	cfg := domain.DefaultSiteConfig()
	cfg.Path = filepath.Join(root, domain.ConfigFileName)
	mockLoader.EXPECT().Load(".").Return(&cfg, nil)

	compiler := mocks.NewMockCompiler(ctrl)
	compiler.EXPECT().Compile(gomock.Any(), gomock.Any()).
		Return(ports.CompileResult{}, domain.NewCompileError(page, "error: expected expression"))

	a := newTestApp(mockLoader, mockLogger).
		WithCompiler(func(*domain.SiteConfig, ports.Logger) ports.Compiler { return compiler })

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"build", "--color", "never"}, stderr, provide(a, mockLogger))
	assert.Equal(t, 1, exitCode)
}
