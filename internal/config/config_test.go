package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "_gh_pages", cfg.Structure.Build)
	assert.Equal(t, "app.min.css", cfg.Styles.OutputName())
	assert.Len(t, cfg.Images.Variants["*.{jpg,png}"], 9)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Len(t, cfg.Deploy.Targets, 2)
	assert.True(t, cfg.Pages.Minify.Enabled())
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PAGESMITH_TEST_TOKEN", "s3cret")
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
structure:
  build: public
sitemap:
  site_url: https://example.org
deploy:
  targets:
    - repository: https://example.org/site.git
      branches: [main]
      auth:
        type: token
        token: ${PAGESMITH_TEST_TOKEN}
watch:
  debounce: 150ms
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "public", cfg.Structure.Build)
	assert.Equal(t, "_pages", cfg.Structure.Pages, "unset fields keep defaults")
	assert.Equal(t, dir, cfg.Structure.Root)
	assert.Equal(t, "https://example.org", cfg.Sitemap.SiteURL)
	require.Len(t, cfg.Deploy.Targets, 1)
	assert.Equal(t, "s3cret", cfg.Deploy.Targets[0].Auth.Token)
	assert.Equal(t, "150ms", cfg.Watch.Debounce)
	assert.Equal(t, int64(150), cfg.Watch.DebounceDuration().Milliseconds())
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PAGESMITH_TEST_SITE_URL=https://from-env.example\n"), 0o600))
	path := filepath.Join(dir, DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("sitemap:\n  site_url: ${PAGESMITH_TEST_SITE_URL}\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("PAGESMITH_TEST_SITE_URL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://from-env.example", cfg.Sitemap.SiteURL)
}

func TestLoadMissing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, DefaultPath))
	require.NoError(t, err, "missing default file falls back to defaults")
	assert.Equal(t, "_gh_pages", cfg.Structure.Build)

	_, err = Load(filepath.Join(dir, "other.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryNotFound))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown transform", func(c *Config) { c.Styles.CSSChain = []string{"purge"} }, `unknown transform "purge"`},
		{"duplicate variant", func(c *Config) {
			c.Images.Variants = map[string][]VariantConfig{"*.png": {{Width: 10, Suffix: "-a"}, {Width: 20, Suffix: "-a"}}}
		}, "duplicate suffix"},
		{"zero variant", func(c *Config) {
			c.Images.Variants = map[string][]VariantConfig{"*.png": {{Suffix: "-a"}}}
		}, "width or height must be positive"},
		{"deploy without branch", func(c *Config) { c.Deploy.Targets[0].Branches = nil }, "at least one branch"},
		{"bad timeout", func(c *Config) { c.Critical.Timeout = "soon" }, "critical.timeout"},
		{"unknown watch source", func(c *Config) { c.Watch.Rules[0].Sources = []string{"fonts"} }, `unknown source "fonts"`},
		{"escaping folder", func(c *Config) { c.Structure.Build = "../out" }, "structure.build must not contain"},
		{"lint severity", func(c *Config) { c.Lint.Rules["quotes"] = 3 }, "lint.rules.quotes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}
}

func TestInit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPath)

	require.NoError(t, Init(path, false))
	assert.DirExists(t, filepath.Join(dir, "_pages"))
	assert.DirExists(t, filepath.Join(dir, "assets", "css", "scss"))
	assert.DirExists(t, filepath.Join(dir, "_posts"))

	err := Init(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default().Styles.CSSChain, cfg.Styles.CSSChain)
	assert.Equal(t, Default().Critical.Dimensions, cfg.Critical.Dimensions)
}
