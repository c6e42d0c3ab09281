// Package typst implements ports.Compiler by running the typst CLI with HTML export.
package typst

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Compiler = (*Compiler)(nil)

// Compiler runs `typst compile` once per page.
type Compiler struct {
	command []string
	fontDir string
	logger  ports.Logger
}

// NewCompiler creates a compiler invoking command, the program followed by
// leading arguments. fontDir is passed as --font-path when it holds fonts.
func NewCompiler(command []string, fontDir string, logger ports.Logger) *Compiler {
	if len(command) == 0 {
		command = []string{"typst"}
	}
	return &Compiler{command: command, fontDir: fontDir, logger: logger}
}

// Compile renders req.Path to HTML. The page's dependencies are taken from
// the compiler's make-deps output and limited to files inside the site root.
func (c *Compiler) Compile(ctx context.Context, req ports.CompileRequest) (ports.CompileResult, error) {
	if _, err := req.Sources.GetOrLoad(req.Path); err != nil {
		return ports.CompileResult{}, err
	}

	if _, err := req.Resources.GetOrInit(ctx, versionKey(c.command), c.probeVersion); err != nil {
		return ports.CompileResult{}, err
	}

	args := []string{"compile", "--features", "html", "--format", "html", "--root", req.Layout.Root}
	if c.fontDir != "" {
		v, err := req.Resources.GetOrInit(ctx, fontsKey(c.fontDir), c.loadFonts)
		if err != nil {
			return ports.CompileResult{}, err
		}
		if book, ok := v.(FontBook); ok && len(book.Files) > 0 {
			args = append(args, "--font-path", book.Dir)
		}
	}

	work, err := os.MkdirTemp("", "tola-typst-*")
	if err != nil {
		return ports.CompileResult{}, domain.NewIOError(req.Path, err)
	}
	defer func() { _ = os.RemoveAll(work) }()

	outPath := filepath.Join(work, domain.PageFileName)
	depsPath := filepath.Join(work, "page.d")
	args = append(args, "--make-deps", depsPath, req.Path, outPath)

	_, stderr, err := c.run(ctx, req.Layout.Root, args...)
	diagnostic, warnings := filterDiagnostics(stderr)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ports.CompileResult{}, ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return ports.CompileResult{}, notFound(c.command[0], err)
		}
		if diagnostic == "" {
			diagnostic = err.Error()
		}
		return ports.CompileResult{}, domain.NewCompileError(req.Path, diagnostic)
	}

	// #nosec G304 -- outPath and depsPath live in our own temp dir
	html, err := os.ReadFile(outPath)
	if err != nil {
		return ports.CompileResult{}, domain.NewIOError(req.Path, err)
	}
	deps, err := os.ReadFile(depsPath)
	if err != nil {
		return ports.CompileResult{}, domain.NewIOError(req.Path, err)
	}

	includes := ParseMakeDeps(deps, req.Layout.Root)
	kept := includes[:0]
	for _, inc := range includes {
		if inc == req.Path {
			continue
		}
		kept = append(kept, inc)
		if _, err := req.Sources.GetOrLoad(inc); err != nil && c.logger != nil {
			c.logger.Warn("cannot fingerprint include " + inc + ": " + err.Error())
		}
	}

	return ports.CompileResult{
		Artifact: domain.Artifact(html),
		Includes: kept,
		Warnings: warnings,
	}, nil
}

func (c *Compiler) run(ctx context.Context, dir string, args ...string) ([]byte, string, error) {
	full := append(append([]string{}, c.command[1:]...), args...)
	cmd := exec.CommandContext(ctx, c.command[0], full...) //nolint:gosec // configured compiler command
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.String(), err
}

// probeVersion runs `<command> --version` once to fail fast when the
// compiler is missing.
func (c *Compiler) probeVersion(ctx context.Context) (any, error) {
	stdout, stderr, err := c.run(ctx, "", "--version")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, notFound(c.command[0], err)
		}
		return nil, zerr.With(zerr.Wrap(err, "compiler version probe failed"), "stderr", strings.TrimSpace(stderr))
	}
	version := strings.TrimSpace(string(stdout))
	if c.logger != nil && version != "" {
		c.logger.Info("using " + version)
	}
	return version, nil
}

func (c *Compiler) loadFonts(_ context.Context) (any, error) {
	return LoadFontBook(c.fontDir)
}

func notFound(command string, err error) error {
	return zerr.With(zerr.Wrap(domain.ErrCompilerNotFound, err.Error()), "command", command)
}

func versionKey(command []string) string {
	return "typst:version:" + strings.Join(command, " ")
}

func fontsKey(dir string) string {
	return "typst:fonts:" + filepath.Clean(dir)
}
