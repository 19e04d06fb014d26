// Package config loads the `.vuedoc.yml` project configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/shopware/vuedoc/internal/component"
	"github.com/shopware/vuedoc/internal/entry"
)

// FileName is the configuration file looked up in the project root.
const FileName = ".vuedoc.yml"

// Config represents the .vuedoc.yml configuration.
type Config struct {
	// Features selects the entry kinds to extract. Empty selects all.
	Features []string `yaml:"features" validate:"dive,oneof=name description keywords props data computed methods events slots model inheritAttrs"`
	// Ignore lists the visibilities that are never published.
	Ignore []string `yaml:"ignore" validate:"dive,oneof=public protected private"`
	// Wrappers are helper names a method is passed through, e.g. debounce.
	Wrappers []string     `yaml:"wrappers" validate:"dive,required"`
	Cache    CacheConfig  `yaml:"cache"`
	Output   OutputConfig `yaml:"output"`
}

// CacheConfig controls the documentation cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	// Dir overrides the per-project directory below the user config dir.
	Dir string `yaml:"dir"`
}

// OutputConfig controls how documentation is written.
type OutputConfig struct {
	Format string `yaml:"format" validate:"oneof=json pretty"`
	// Dir receives one file per component; empty writes to stdout.
	Dir string `yaml:"dir"`
}

var validate = validator.New()

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Ignore: append([]string{}, component.DefaultIgnore...),
		Cache: CacheConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Format: "pretty",
		},
	}
}

// Load reads a configuration file from the given path.
// Missing fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = "pretty"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, falling back to the defaults when the file
// does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// Options converts the configuration into parse options.
func (c *Config) Options() component.Options {
	opts := component.Options{
		Ignore:   c.Ignore,
		Wrappers: c.Wrappers,
	}
	for _, f := range c.Features {
		opts.Features = append(opts.Features, entry.Feature(f))
	}
	// An empty list in the file means nothing is ignored.
	if opts.Ignore == nil {
		opts.Ignore = []string{}
	}
	return opts
}
