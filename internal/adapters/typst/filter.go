package typst

import "strings"

// noiseRules match stderr lines typst prints for every HTML export. A line
// matches a rule when it starts with one of prefixes and contains every
// fragment.
var noiseRules = []struct {
	prefixes  []string
	fragments []string
}{
	{[]string{"warning:"}, []string{"html export"}},
	{[]string{"warning:"}, []string{"was ignored during", "export"}},
	{[]string{"= hint:"}, nil},
}

func noise(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, r := range noiseRules {
		prefixed := false
		for _, p := range r.prefixes {
			if strings.HasPrefix(trimmed, p) {
				prefixed = true
				break
			}
		}
		if !prefixed {
			continue
		}
		all := true
		for _, f := range r.fragments {
			if !strings.Contains(trimmed, f) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

// filterDiagnostics drops export noise from stderr. It returns the remaining
// text and the headline of every remaining warning.
func filterDiagnostics(stderr string) (string, []string) {
	var kept []string
	var warnings []string
	skipping := false

	for line := range strings.SplitSeq(strings.TrimRight(stderr, "\n"), "\n") {
		if noise(line) {
			// Hints and source excerpts below a dropped warning belong to it.
			skipping = strings.HasPrefix(strings.TrimSpace(line), "warning:") || skipping
			continue
		}
		if skipping && line != "" && (line[0] == ' ' || line[0] == '\t') {
			continue
		}
		skipping = false
		if strings.HasPrefix(line, "warning:") {
			warnings = append(warnings, line)
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n")), warnings
}
