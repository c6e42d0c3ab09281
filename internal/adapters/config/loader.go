// Package config provides the site configuration loader for tola.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.trai.ch/tola/internal/core/domain"
	"go.trai.ch/tola/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader for tola.toml and tola.yaml.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load finds the nearest configuration file at or above cwd, decodes it over
// the defaults and validates the result.
func (l *Loader) Load(cwd string) (*domain.SiteConfig, error) {
	configPath, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, err
	}

	// #nosec G304 -- configPath is found by walking up from cwd
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", configPath)
	}

	site := defaultSitefile()
	if filepath.Base(configPath) == domain.ConfigFileNameYAML {
		err = decodeYAML(data, &site)
	} else {
		err = decodeTOML(data, &site)
	}
	if err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	if err := validate(&site); err != nil {
		return nil, zerr.With(err, "path", configPath)
	}

	return site.toDomain(configPath), nil
}

func (l *Loader) findConfiguration(cwd string) (string, error) {
	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrConfigNotFound.Error()), "cwd", cwd)
	}

	for currentDir := abs; ; {
		tomlPath := filepath.Join(currentDir, domain.ConfigFileName)
		yamlPath := filepath.Join(currentDir, domain.ConfigFileNameYAML)

		_, tomlErr := os.Stat(tomlPath)
		_, yamlErr := os.Stat(yamlPath)
		switch {
		case tomlErr == nil && yamlErr == nil:
			if l.Logger != nil {
				l.Logger.Warn(fmt.Sprintf("both %s and %s found in %s, using %s",
					domain.ConfigFileName, domain.ConfigFileNameYAML, currentDir, domain.ConfigFileName))
			}
			return tomlPath, nil
		case tomlErr == nil:
			return tomlPath, nil
		case yamlErr == nil:
			return yamlPath, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "no "+domain.ConfigFileName+" at or above the working directory"), "cwd", abs)
}

func decodeTOML(data []byte, site *Sitefile) error {
	md, err := toml.Decode(string(data), site)
	if err != nil {
		return zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "unknown configuration keys"), "keys", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, site *Sitefile) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(site); err != nil && !errors.Is(err, io.EOF) {
		return zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}
	return nil
}

func validate(site *Sitefile) error {
	b := site.Build
	switch {
	case strings.TrimSpace(b.Content) == "":
		return invalid("build.content must not be empty", "build.content", b.Content)
	case strings.TrimSpace(b.Output) == "":
		return invalid("build.output must not be empty", "build.output", b.Output)
	case filepath.Clean(b.Output) == ".":
		return invalid("build.output must not be the site root", "build.output", b.Output)
	case filepath.Clean(b.Output) == filepath.Clean(b.Content):
		return invalid("build.output must differ from build.content", "build.output", b.Output)
	case b.Jobs < 0:
		return invalid("build.jobs must not be negative", "build.jobs", b.Jobs)
	case len(b.Typst.Command) == 0 || strings.TrimSpace(b.Typst.Command[0]) == "":
		return invalid("build.typst.command must name a program", "build.typst.command", b.Typst.Command)
	case site.Serve.DebounceMS < 0:
		return invalid("serve.debounce_ms must not be negative", "serve.debounce_ms", site.Serve.DebounceMS)
	case site.Serve.CooldownMS < 0:
		return invalid("serve.cooldown_ms must not be negative", "serve.cooldown_ms", site.Serve.CooldownMS)
	}
	return nil
}

func invalid(msg, key string, value any) error {
	return zerr.With(zerr.Wrap(domain.ErrInvalidConfig, msg), key, value)
}
