package linear_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/muesli/termenv"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/tola/internal/adapters/linear"
	"go.trai.ch/tola/internal/core/domain"
)

func TestRenderer_Notify(t *testing.T) {
	root := filepath.FromSlash("/site")
	path := func(p string) string { return filepath.Join(root, filepath.FromSlash(p)) }
	diag := "error: unknown variable: titel\n  ┌─ content/posts/y.typ:3:2"

	report := domain.NewBuildReport([]domain.TargetResult{
		{
			Target: path("content/posts/y.typ"), Kind: domain.KindContent, State: domain.JobFailed,
			Err: domain.NewCompileError(path("content/posts/y.typ"), diag), Duration: 40 * time.Millisecond, Attempts: 1,
		},
		{
			Target: path("content/posts/x.typ"), Kind: domain.KindContent, State: domain.JobSucceeded,
			Duration: 120 * time.Millisecond, Attempts: 1,
		},
		{
			Target: path("content/posts/z.typ"), Kind: domain.KindContent, State: domain.JobFailed,
			Err: domain.NewCompileError(path("content/posts/z.typ"), diag), Duration: 35 * time.Millisecond, Attempts: 1, Shared: true,
		},
		{
			Target: path("assets/site.css"), Kind: domain.KindAsset, State: domain.JobSucceeded,
			Duration: 1500 * time.Microsecond, Attempts: 2,
		},
		{
			Target: path("content/about.typ"), Kind: domain.KindContent, State: domain.JobFailed,
			Err: errors.New("build canceled before the job started"), Attempts: 0,
		},
	}, 210*time.Millisecond)

	var buf bytes.Buffer
	linear.NewRenderer(&buf, root, termenv.Ascii).Notify(report)

	g := goldie.New(t)
	g.Assert(t, "report_failed", buf.Bytes())
}

func TestRenderer_NotifySuccess(t *testing.T) {
	report := domain.NewBuildReport([]domain.TargetResult{
		{Target: "/site/content/index.typ", Kind: domain.KindContent, State: domain.JobSucceeded, Duration: 8 * time.Millisecond, Attempts: 1},
	}, 9*time.Millisecond)

	var buf bytes.Buffer
	linear.NewRenderer(&buf, "/site", termenv.Ascii).Notify(report)

	assert.Equal(t, "✓ content content/index.typ (8ms)\n→ built 1 of 1 targets in 9ms\n", buf.String())
}

func TestRenderer_NotifyEmpty(t *testing.T) {
	var buf bytes.Buffer
	linear.NewRenderer(&buf, "/site", termenv.Ascii).Notify(domain.BuildReport{})
	assert.Empty(t, buf.String())
}

func TestRenderer_PathOutsideRoot(t *testing.T) {
	report := domain.NewBuildReport([]domain.TargetResult{
		{Target: "/elsewhere/a.typ", Kind: domain.KindContent, State: domain.JobFailed, Err: errors.New("boom")},
	}, 0)

	var buf bytes.Buffer
	linear.NewRenderer(&buf, "/site", termenv.Ascii).Notify(report)

	assert.Contains(t, buf.String(), "✗ content /elsewhere/a.typ\n")
	assert.Contains(t, buf.String(), "    boom\n")
	assert.Contains(t, buf.String(), "1 failed")
}

func TestRenderer_Colors(t *testing.T) {
	report := domain.NewBuildReport([]domain.TargetResult{
		{Target: "/site/content/index.typ", Kind: domain.KindContent, State: domain.JobSucceeded},
	}, 0)

	var buf bytes.Buffer
	linear.NewRenderer(&buf, "/site", termenv.ANSI256).Notify(report)
	assert.Contains(t, buf.String(), "\x1b[")
}
