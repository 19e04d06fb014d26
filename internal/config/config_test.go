package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopware/vuedoc/internal/entry"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, []string{"private"}, cfg.Ignore)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "pretty", cfg.Output.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
features: [props, events]
ignore: []
wrappers: [debounce, throttle]
output:
  dir: docs
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"props", "events"}, cfg.Features)
	assert.Empty(t, cfg.Ignore)
	assert.Equal(t, []string{"debounce", "throttle"}, cfg.Wrappers)
	assert.Equal(t, "docs", cfg.Output.Dir)
	assert.Equal(t, "pretty", cfg.Output.Format)
	assert.True(t, cfg.Cache.Enabled)

	opts := cfg.Options()
	assert.Equal(t, []entry.Feature{entry.FeatureProps, entry.FeatureEvents}, opts.Features)
	assert.NotNil(t, opts.Ignore)
	assert.Empty(t, opts.Ignore)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown feature", content: "features: [colors]"},
		{name: "unknown visibility", content: "ignore: [internal]"},
		{name: "unknown format", content: "output:\n  format: xml"},
		{name: "malformed yaml", content: "features: [props"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
