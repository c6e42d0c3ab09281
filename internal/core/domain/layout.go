package domain

import (
	"path/filepath"
	"strings"
)

const (
	// ConfigFileName is the primary site configuration file.
	ConfigFileName = "tola.toml"

	// ConfigFileNameYAML is the alternative YAML configuration file.
	ConfigFileNameYAML = "tola.yaml"

	// ContentExt is the extension of compiled page sources.
	ContentExt = ".typ"

	// IndexName is the page name that maps onto its directory.
	IndexName = "index"

	// PageFileName is the artifact name written for every page.
	PageFileName = "index.html"

	// DirPerm is the default permission for output directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for output files (rw-r--r--).
	FilePerm = 0o644
)

// skippedNames are never part of the site, at any depth.
var skippedNames = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
	".DS_Store":    true,
}

// Layout is the resolved set of absolute site directories.
type Layout struct {
	Root       string
	Content    string
	Output     string
	Assets     string
	Templates  string
	Utils      string
	ConfigFile string
}

// Skipped reports whether a file or directory name is excluded from the site.
func Skipped(name string) bool {
	return skippedNames[name]
}

// Ignored reports whether path must never enter the build: it lies in the
// output tree or below a skipped name.
func (l Layout) Ignored(path string) bool {
	if l.Output != "" && within(l.Output, path) {
		return true
	}
	rel, ok := relTo(l.Root, path)
	if !ok {
		return Skipped(filepath.Base(path))
	}
	for part := range strings.SplitSeq(rel, string(filepath.Separator)) {
		if skippedNames[part] {
			return true
		}
	}
	return false
}

// Classify returns the kind of path based on the directory it lives in.
func (l Layout) Classify(path string) Kind {
	path = filepath.Clean(path)
	switch {
	case l.ConfigFile != "" && path == l.ConfigFile:
		return KindConfig
	case l.Ignored(path):
		return KindUnknown
	case within(l.Content, path):
		if filepath.Ext(path) == ContentExt {
			return KindContent
		}
		return KindAsset
	case within(l.Assets, path):
		return KindAsset
	case within(l.Templates, path):
		return KindTemplate
	case within(l.Utils, path):
		return KindUtil
	default:
		return KindUnknown
	}
}

// Route returns the output file for a target path.
//
//	content/index.typ       -> output/index.html
//	content/posts/a.typ     -> output/posts/a/index.html
//	content/posts/img.png   -> output/posts/img.png
//	assets/css/site.css     -> output/css/site.css
func (l Layout) Route(path string) (string, bool) {
	path = filepath.Clean(path)
	switch l.Classify(path) {
	case KindContent:
		rel, _ := relTo(l.Content, path)
		page := strings.TrimSuffix(rel, ContentExt)
		if page == IndexName {
			return filepath.Join(l.Output, PageFileName), true
		}
		return filepath.Join(l.Output, page, PageFileName), true
	case KindAsset:
		base := l.Assets
		if within(l.Content, path) {
			base = l.Content
		}
		rel, _ := relTo(base, path)
		return filepath.Join(l.Output, rel), true
	default:
		return "", false
	}
}

// WatchRoots returns the directories and files whose changes feed the build.
func (l Layout) WatchRoots() []string {
	roots := make([]string, 0, 5)
	for _, dir := range []string{l.Content, l.Assets, l.Templates, l.Utils} {
		if dir != "" {
			roots = append(roots, dir)
		}
	}
	if l.ConfigFile != "" {
		roots = append(roots, l.ConfigFile)
	}
	return roots
}

// within reports whether path equals dir or lies below it.
func within(dir, path string) bool {
	if dir == "" {
		return false
	}
	_, ok := relTo(dir, path)
	return ok
}

func relTo(dir, path string) (string, bool) {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
