package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tola/internal/core/domain"
)

func TestBuildReport(t *testing.T) {
	diag := "error: unknown variable: titel"
	report := domain.NewBuildReport([]domain.TargetResult{
		{Target: site("content/posts/y.typ"), State: domain.JobFailed, Err: domain.NewCompileError(site("content/posts/y.typ"), diag)},
		{Target: site("content/index.typ"), State: domain.JobSucceeded},
		{Target: site("content/posts/z.typ"), State: domain.JobFailed, Err: domain.NewCompileError(site("content/posts/z.typ"), diag)},
		{Target: site("assets/logo.png"), State: domain.JobFailed, Err: domain.NewIOError(site("assets/logo.png"), errors.New("permission denied"))},
	}, time.Second)

	require.Len(t, report.Results, 4)
	assert.Equal(t, site("assets/logo.png"), report.Results[0].Target)
	assert.False(t, report.OK())
	assert.False(t, report.Empty())
	assert.Equal(t, 1, report.Succeeded())
	assert.Len(t, report.Failed(), 3)

	// Identical compiler diagnostics are reported once.
	assert.Len(t, report.Diagnostics(), 2)
	assert.Contains(t, report.Diagnostics(), diag)

	res, ok := report.Result(site("content/./index.typ"))
	require.True(t, ok)
	assert.Equal(t, domain.JobSucceeded, res.State)
	assert.Empty(t, res.Diagnostic())
}

func TestBuildError_Classification(t *testing.T) {
	cause := errors.New("no such file or directory")
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{"io", domain.NewIOError("/a", cause), domain.ErrIO},
		{"compile", domain.NewCompileError("/a", "boom"), domain.ErrCompile},
		{"resource", domain.NewResourceLoadError("fonts", cause), domain.ErrResourceLoad},
		{"graph", domain.NewGraphInconsistency("/a", "/b"), domain.ErrGraphInconsistency},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			for _, other := range []error{domain.ErrIO, domain.ErrCompile, domain.ErrResourceLoad, domain.ErrGraphInconsistency} {
				if other != tt.kind {
					assert.NotErrorIs(t, tt.err, other)
				}
			}
		})
	}

	assert.ErrorIs(t, domain.NewIOError("/a", cause), cause)
	msg := domain.NewCompileError("/a", "boom").Error()
	assert.Contains(t, msg, "/a")
	assert.Contains(t, msg, "\nboom")
}

func TestJobState_String(t *testing.T) {
	assert.Equal(t, "queued", domain.JobQueued.String())
	assert.Equal(t, "running", domain.JobRunning.String())
	assert.Equal(t, "succeeded", domain.JobSucceeded.String())
	assert.Equal(t, "failed", domain.JobFailed.String())
	assert.Equal(t, "content", domain.KindContent.String())
	assert.True(t, domain.KindAsset.Target())
	assert.False(t, domain.KindTemplate.Target())
}
