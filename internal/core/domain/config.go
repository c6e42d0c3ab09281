package domain

import (
	"path/filepath"
	"runtime"
	"time"
)

const (
	// DefaultDebounce is the quiet period that closes an event batch.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultCooldown is the pause after a build before new events start a batch.
	DefaultCooldown = time.Second
)

// SiteConfig is the resolved site configuration.
type SiteConfig struct {
	// Path is the absolute path of the configuration file, empty when defaults are used.
	Path  string
	Build BuildConfig
	Serve ServeConfig
}

// BuildConfig holds the directory layout and compiler settings.
// Directories are relative to Root, Root is relative to the configuration file.
type BuildConfig struct {
	Root      string
	Content   string
	Output    string
	Assets    string
	Templates string
	Utils     string
	Jobs      int
	Typst     TypstConfig
}

// TypstConfig configures the external document compiler.
type TypstConfig struct {
	Command []string
	Fonts   string
}

// ServeConfig configures the watch loop.
type ServeConfig struct {
	Watch      bool
	DebounceMS int
	CooldownMS int
}

// DefaultSiteConfig returns the configuration used for keys the file leaves unset.
func DefaultSiteConfig() SiteConfig {
	return SiteConfig{
		Build: BuildConfig{
			Root:      ".",
			Content:   "content",
			Output:    "public",
			Assets:    "assets",
			Templates: "templates",
			Utils:     "utils",
			Typst: TypstConfig{
				Command: []string{"typst"},
				Fonts:   "fonts",
			},
		},
		Serve: ServeConfig{
			Watch:      true,
			DebounceMS: int(DefaultDebounce / time.Millisecond),
			CooldownMS: int(DefaultCooldown / time.Millisecond),
		},
	}
}

// RootDir returns the absolute site root.
func (c *SiteConfig) RootDir() string {
	base := "."
	if c.Path != "" {
		base = filepath.Dir(c.Path)
	}
	root := c.Build.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(base, root)
	}
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return filepath.Clean(root)
}

// Layout resolves every configured directory against the site root.
func (c *SiteConfig) Layout() Layout {
	root := c.RootDir()
	resolve := func(dir string) string {
		if dir == "" {
			return ""
		}
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(root, dir)
	}
	configFile := ""
	if c.Path != "" {
		configFile = filepath.Clean(c.Path)
	}
	return Layout{
		Root:       root,
		Content:    resolve(c.Build.Content),
		Output:     resolve(c.Build.Output),
		Assets:     resolve(c.Build.Assets),
		Templates:  resolve(c.Build.Templates),
		Utils:      resolve(c.Build.Utils),
		ConfigFile: configFile,
	}
}

// FontDir returns the absolute project font directory, empty when unset.
func (c *SiteConfig) FontDir() string {
	if c.Build.Typst.Fonts == "" {
		return ""
	}
	if filepath.IsAbs(c.Build.Typst.Fonts) {
		return c.Build.Typst.Fonts
	}
	return filepath.Join(c.RootDir(), c.Build.Typst.Fonts)
}

// WorkerCount returns the worker pool size, NumCPU when unset.
func (b BuildConfig) WorkerCount() int {
	if b.Jobs > 0 {
		return b.Jobs
	}
	return runtime.NumCPU()
}

// Debounce returns the configured debounce window.
func (s ServeConfig) Debounce() time.Duration {
	if s.DebounceMS <= 0 {
		return DefaultDebounce
	}
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// Cooldown returns the configured cooldown period. Zero disables it.
func (s ServeConfig) Cooldown() time.Duration {
	if s.CooldownMS < 0 {
		return DefaultCooldown
	}
	return time.Duration(s.CooldownMS) * time.Millisecond
}
