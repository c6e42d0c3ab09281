// Package detector selects the color profile for terminal output.
package detector

import (
	"os"

	"github.com/muesli/termenv"
	"go.trai.ch/tola/internal/ui/output"
	"golang.org/x/term"
)

// ColorMode is the user's choice for colored output.
type ColorMode int

const (
	// ColorAuto colors output on interactive terminals outside CI.
	ColorAuto ColorMode = iota
	// ColorAlways forces colors.
	ColorAlways
	// ColorNever disables colors.
	ColorNever
)

// ParseColorMode maps a --color flag value to a mode. Unknown values mean auto.
func ParseColorMode(flag string) ColorMode {
	switch flag {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	default:
		return ColorAuto
	}
}

// Interactive reports whether f is a terminal and CI is not set.
func Interactive(f *os.File) bool {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	ci := os.Getenv("CI")
	return ci != "true" && ci != "1"
}

// Profile resolves mode into a color profile for output written to f.
func Profile(mode ColorMode, f *os.File) termenv.Profile {
	switch mode {
	case ColorNever:
		return termenv.Ascii
	case ColorAlways:
		if os.Getenv("NO_COLOR") != "" {
			return termenv.Ascii
		}
		return termenv.ANSI256
	default:
		if !Interactive(f) {
			return termenv.Ascii
		}
		return output.ColorProfile()
	}
}
