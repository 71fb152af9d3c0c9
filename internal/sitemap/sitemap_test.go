package sitemap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func TestLoc(t *testing.T) {
	site := "https://example.com/"
	assert.Equal(t, "https://example.com/", Loc(site, "index.html"))
	assert.Equal(t, "https://example.com/about/", Loc(site, "about/index.html"))
	assert.Equal(t, "https://example.com/contact.html", Loc(site, "contact.html"))
}

func TestBuild(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"index.html", "about/index.html", "blog/post.html"} {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o750))
		require.NoError(t, os.WriteFile(full, []byte("<html></html>"), 0o600))
	}
	mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(root, "index.html"), mod, mod))

	pages, err := fileset.Match(structure.Pattern{Base: root, Include: []string{"**/*.html"}})
	require.NoError(t, err)

	data, n, err := Build(config.SitemapConfig{SiteURL: "https://example.com"}, pages)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	xml := string(data)
	assert.Equal(t, 3, strings.Count(xml, "<url>"))
	iAbout := strings.Index(xml, "https://example.com/about/")
	iBlog := strings.Index(xml, "https://example.com/blog/post.html")
	require.Positive(t, iAbout)
	assert.Less(t, iAbout, iBlog)
	assert.Contains(t, xml, "2024-03-01T12:00:00Z")
}

func TestBuildDeduplicates(t *testing.T) {
	pages := []fileset.Asset{{Rel: "index.html"}, {Rel: "index.html"}}
	data, n, err := Build(config.SitemapConfig{SiteURL: "https://example.com"}, pages)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, strings.Count(string(data), "<loc>"))
}
