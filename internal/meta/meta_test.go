package meta

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/fileset"
)

func TestRobots(t *testing.T) {
	got := string(Robots(config.Default().Misc.Robots))
	assert.Equal(t, "User-agent: *\nAllow: folder1/\nAllow: folder2/\nDisallow: cgi-bin/\n", got)

	got = string(Robots(config.RobotsConfig{Sitemap: "https://example.com/sitemap.xml"}))
	assert.Equal(t, "User-agent: *\n\nSitemap: https://example.com/sitemap.xml\n", got)
}

func TestHumans(t *testing.T) {
	got := string(Humans(config.Default().Misc.Humans))
	want := "/* THANKS */\n" +
		"\tNode (@nodejs on Twitter)\n" +
		"\tGulp (@gulpjs on Twitter)\n" +
		"\n/* SITE */\n" +
		"\tStandards: HTML5, CSS3\n" +
		"\tComponents: jQuery, Normalize.css\n" +
		"\tSoftware: Atom\n" +
		"\nBuilt with love by ...\n"
	assert.Equal(t, want, got)
}

func TestBuildIsDeterministic(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "favicon.ico"), []byte("icon"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(src, "robots.txt"), []byte("stale"), 0o600))
	assets := []fileset.Asset{
		{Path: filepath.Join(src, "favicon.ico"), Rel: "favicon.ico"},
		{Path: filepath.Join(src, "robots.txt"), Rel: "robots.txt"},
	}
	cfg := config.Default().Misc

	run := func() map[string]string {
		dest := t.TempDir()
		res, err := Build(context.Background(), assets, fileset.Writer{Root: dest}, cfg)
		require.NoError(t, err)
		assert.Len(t, res.Copied, 1)
		assert.Len(t, res.Generated, 2)
		out := map[string]string{}
		for _, name := range []string{"favicon.ico", "robots.txt", "humans.txt"} {
			data, err := os.ReadFile(filepath.Join(dest, name))
			require.NoError(t, err)
			out[name] = string(data)
		}
		return out
	}
	first, second := run(), run()
	assert.Equal(t, first, second)
	assert.Equal(t, "icon", first["favicon.ico"])
	assert.NotEqual(t, "stale", first["robots.txt"])
}

func TestBuildCollectsCopyFailures(t *testing.T) {
	assets := []fileset.Asset{{Path: filepath.Join(t.TempDir(), "missing.txt"), Rel: "missing.txt"}}
	res, err := Build(context.Background(), assets, fileset.Writer{Root: t.TempDir()}, config.Default().Misc)
	require.Error(t, err)
	assert.Len(t, res.Generated, 2)
}
