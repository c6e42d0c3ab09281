// Package linear prints build reports as plain chronological lines.
package linear

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/tola/internal/ui/output"
	"go.trai.ch/tola/internal/ui/style"
)

var _ ports.Notifier = (*Renderer)(nil)

// Renderer implements ports.Notifier for terminals and CI logs.
type Renderer struct {
	mu     sync.Mutex
	w      io.Writer
	output *termenv.Output
	root   string
}

// NewRenderer creates a renderer writing to w. Targets are shown relative to
// root. A nil w means os.Stderr.
func NewRenderer(w io.Writer, root string, profile termenv.Profile) *Renderer {
	if w == nil {
		w = os.Stderr
	}
	return &Renderer{
		w:      w,
		output: output.NewWithProfile(w, func() termenv.Profile { return profile }),
		root:   root,
	}
}

// Notify prints one line per target, the distinct diagnostics of failed
// targets and a summary. Empty reports print nothing.
func (r *Renderer) Notify(report domain.BuildReport) {
	if report.Empty() {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, res := range report.Results {
		b.WriteString(r.resultLine(res))
		b.WriteByte('\n')
	}

	if diags := report.Diagnostics(); len(diags) > 0 {
		b.WriteByte('\n')
		for _, d := range diags {
			for line := range strings.SplitSeq(d, "\n") {
				b.WriteString("    ")
				b.WriteString(line)
				b.WriteByte('\n')
			}
			b.WriteByte('\n')
		}
	}

	b.WriteString(r.summary(report))
	b.WriteByte('\n')

	_, _ = io.WriteString(r.w, b.String())
}

func (r *Renderer) resultLine(res domain.TargetResult) string {
	var icon termenv.Style
	switch res.State {
	case domain.JobSucceeded:
		icon = r.output.String(style.Check).Foreground(r.output.Color(string(style.Green)))
	case domain.JobFailed:
		icon = r.output.String(style.Cross).Foreground(r.output.Color(string(style.Red)))
	default:
		icon = r.output.String(style.Dot).Foreground(r.output.Color(string(style.Muted)))
	}

	var notes []string
	if res.Duration > 0 {
		notes = append(notes, formatDuration(res.Duration))
	}
	if res.Attempts > 1 {
		notes = append(notes, fmt.Sprintf("%d attempts", res.Attempts))
	}
	if res.Shared {
		notes = append(notes, "shared")
	}

	line := fmt.Sprintf("%s %s %s", icon.String(), res.Kind, r.relative(res.Target))
	if len(notes) > 0 {
		line += " " + r.output.String("("+strings.Join(notes, ", ")+")").Faint().String()
	}
	return line
}

func (r *Renderer) summary(report domain.BuildReport) string {
	failed := len(report.Failed())
	text := fmt.Sprintf("%s built %d of %d targets in %s",
		style.Arrow, report.Succeeded(), len(report.Results), formatDuration(report.Duration))
	if failed == 0 {
		return r.output.String(text).Foreground(r.output.Color(string(style.Accent))).String()
	}
	text += fmt.Sprintf(", %d failed", failed)
	return r.output.String(text).Foreground(r.output.Color(string(style.Red))).Bold().String()
}

func (r *Renderer) relative(path string) string {
	if r.root == "" {
		return path
	}
	rel, err := filepath.Rel(r.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}
