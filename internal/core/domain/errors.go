package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrIO is the class of failures reading sources or writing artifacts.
	ErrIO = zerr.New("i/o failure")

	// ErrCompile is the class of failures reported by the document compiler.
	ErrCompile = zerr.New("compile failed")

	// ErrResourceLoad is returned to every waiter of a shared resource whose loader failed.
	ErrResourceLoad = zerr.New("shared resource failed to load")

	// ErrGraphInconsistency is returned when the forward and reverse edge indexes disagree.
	ErrGraphInconsistency = zerr.New("dependency graph inconsistency")

	// ErrBuildCanceled is recorded for jobs that never started because the build was canceled.
	ErrBuildCanceled = zerr.New("build canceled before the job started")

	// ErrBuildFailed is returned by one-shot builds when at least one target failed.
	ErrBuildFailed = zerr.New("build failed")

	// ErrNoRoute is returned when a path has no output location.
	ErrNoRoute = zerr.New("path has no output route")

	// ErrCompilerNotFound is returned when the compiler command cannot be started.
	ErrCompilerNotFound = zerr.New("compiler command not found")

	// ErrConfigNotFound is returned when no site configuration file is found.
	ErrConfigNotFound = zerr.New("site configuration not found")

	// ErrConfigReadFailed is returned when the configuration file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read site configuration")

	// ErrConfigParseFailed is returned when the configuration file cannot be decoded.
	ErrConfigParseFailed = zerr.New("failed to parse site configuration")

	// ErrInvalidConfig is returned when a decoded configuration has invalid values.
	ErrInvalidConfig = zerr.New("invalid site configuration")

	// ErrWatcherFailed is returned when the file system watcher cannot be started.
	ErrWatcherFailed = zerr.New("failed to start file watcher")
)

// BuildError is the failure of a single build step. Kind is one of ErrIO,
// ErrCompile, ErrResourceLoad or ErrGraphInconsistency, so callers classify
// with errors.Is and read the details with errors.As.
type BuildError struct {
	Kind       error
	Path       string
	Diagnostic string
	Err        error
}

// NewIOError classifies err as an I/O failure on path.
func NewIOError(path string, err error) *BuildError {
	return &BuildError{Kind: ErrIO, Path: path, Err: err}
}

// NewCompileError wraps the compiler's diagnostic text verbatim.
func NewCompileError(path, diagnostic string) *BuildError {
	return &BuildError{Kind: ErrCompile, Path: path, Diagnostic: diagnostic}
}

// NewResourceLoadError classifies err as the failure to load the shared resource key.
func NewResourceLoadError(key string, err error) *BuildError {
	return &BuildError{Kind: ErrResourceLoad, Path: key, Err: err}
}

// NewGraphInconsistency reports that owner's reverse entry for include has no
// matching forward edge.
func NewGraphInconsistency(owner, include string) *BuildError {
	return &BuildError{
		Kind:       ErrGraphInconsistency,
		Path:       owner,
		Diagnostic: "reverse edge " + include + " -> " + owner + " has no forward edge",
	}
}

func (e *BuildError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Path != "" {
		b.WriteString(": ")
		b.WriteString(e.Path)
	}
	switch {
	case e.Diagnostic != "":
		b.WriteString("\n")
		b.WriteString(e.Diagnostic)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *BuildError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
