package detector_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tola/internal/adapters/detector"
)

func TestParseColorMode(t *testing.T) {
	tests := []struct {
		flag string
		want detector.ColorMode
	}{
		{"", detector.ColorAuto},
		{"auto", detector.ColorAuto},
		{"always", detector.ColorAlways},
		{"force", detector.ColorAlways},
		{"never", detector.ColorNever},
		{"off", detector.ColorNever},
		{"bogus", detector.ColorAuto},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.ParseColorMode(tt.flag))
		})
	}
}

func TestProfile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	t.Setenv("NO_COLOR", "")
	assert.Equal(t, termenv.Ascii, detector.Profile(detector.ColorNever, f))
	assert.Equal(t, termenv.ANSI256, detector.Profile(detector.ColorAlways, f))
	assert.Equal(t, termenv.Ascii, detector.Profile(detector.ColorAuto, f), "regular file is not interactive")

	t.Setenv("NO_COLOR", "1")
	assert.Equal(t, termenv.Ascii, detector.Profile(detector.ColorAlways, f))
}

func TestInteractive(t *testing.T) {
	assert.False(t, detector.Interactive(nil))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	assert.False(t, detector.Interactive(f))
}
