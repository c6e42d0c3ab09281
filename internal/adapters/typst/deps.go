package typst

import (
	"path/filepath"
	"strings"
)

// ParseMakeDeps extracts the prerequisites of a Makefile dependency rule as
// written by `typst compile --make-deps`. Relative paths are resolved against
// root and paths outside root are dropped. The result keeps first-seen order
// without duplicates.
func ParseMakeDeps(data []byte, root string) []string {
	text := strings.ReplaceAll(string(data), "\\\r\n", " ")
	text = strings.ReplaceAll(text, "\\\n", " ")

	var out []string
	seen := make(map[string]bool)

	for line := range strings.SplitSeq(text, "\n") {
		sep := ruleSeparator(line)
		if sep < 0 {
			continue
		}
		for _, word := range splitWords(line[sep+1:]) {
			p := word
			if !filepath.IsAbs(p) {
				p = filepath.Join(root, p)
			}
			p = filepath.Clean(p)
			if !inside(root, p) || seen[p] {
				continue
			}
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// ruleSeparator returns the index of the colon ending the rule's target, or -1.
func ruleSeparator(line string) int {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case ':':
			// A drive letter like C:\ is part of the target, not the separator.
			if i+1 < len(line) && line[i+1] != ' ' && line[i+1] != '\t' {
				continue
			}
			return i
		}
	}
	return -1
}

// splitWords splits on unescaped whitespace and resolves `\ `, `\#`, `$$`.
func splitWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s) && (s[i+1] == ' ' || s[i+1] == '#' || s[i+1] == '\\'):
			cur.WriteByte(s[i+1])
			i++
		case c == '$' && i+1 < len(s) && s[i+1] == '$':
			cur.WriteByte('$')
			i++
		case c == ' ' || c == '\t' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return words
}

func inside(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
