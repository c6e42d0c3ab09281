package config

import "go.trai.ch/tola/internal/core/domain"

// Sitefile represents the structure of tola.toml and tola.yaml.
type Sitefile struct {
	Build BuildDTO `toml:"build" yaml:"build"`
	Serve ServeDTO `toml:"serve" yaml:"serve"`
}

// BuildDTO is the [build] table.
type BuildDTO struct {
	Root      string   `toml:"root" yaml:"root"`
	Content   string   `toml:"content" yaml:"content"`
	Output    string   `toml:"output" yaml:"output"`
	Assets    string   `toml:"assets" yaml:"assets"`
	Templates string   `toml:"templates" yaml:"templates"`
	Utils     string   `toml:"utils" yaml:"utils"`
	Jobs      int      `toml:"jobs" yaml:"jobs"`
	Typst     TypstDTO `toml:"typst" yaml:"typst"`
}

// TypstDTO is the [build.typst] table.
type TypstDTO struct {
	Command []string `toml:"command" yaml:"command"`
	Fonts   string   `toml:"fonts" yaml:"fonts"`
}

// ServeDTO is the [serve] table.
type ServeDTO struct {
	Watch      bool `toml:"watch" yaml:"watch"`
	DebounceMS int  `toml:"debounce_ms" yaml:"debounce_ms"`
	CooldownMS int  `toml:"cooldown_ms" yaml:"cooldown_ms"`
}

// defaultSitefile returns the defaults that keys absent from the file keep.
func defaultSitefile() Sitefile {
	d := domain.DefaultSiteConfig()
	return Sitefile{
		Build: BuildDTO{
			Root:      d.Build.Root,
			Content:   d.Build.Content,
			Output:    d.Build.Output,
			Assets:    d.Build.Assets,
			Templates: d.Build.Templates,
			Utils:     d.Build.Utils,
			Jobs:      d.Build.Jobs,
			Typst: TypstDTO{
				Command: d.Build.Typst.Command,
				Fonts:   d.Build.Typst.Fonts,
			},
		},
		Serve: ServeDTO{
			Watch:      d.Serve.Watch,
			DebounceMS: d.Serve.DebounceMS,
			CooldownMS: d.Serve.CooldownMS,
		},
	}
}

func (s *Sitefile) toDomain(path string) *domain.SiteConfig {
	return &domain.SiteConfig{
		Path: path,
		Build: domain.BuildConfig{
			Root:      s.Build.Root,
			Content:   s.Build.Content,
			Output:    s.Build.Output,
			Assets:    s.Build.Assets,
			Templates: s.Build.Templates,
			Utils:     s.Build.Utils,
			Jobs:      s.Build.Jobs,
			Typst: domain.TypstConfig{
				Command: s.Build.Typst.Command,
				Fonts:   s.Build.Typst.Fonts,
			},
		},
		Serve: domain.ServeConfig{
			Watch:      s.Serve.Watch,
			DebounceMS: s.Serve.DebounceMS,
			CooldownMS: s.Serve.CooldownMS,
		},
	}
}
