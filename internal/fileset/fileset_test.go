package fileset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func touch(t *testing.T, root string, rels ...string) {
	t.Helper()
	for _, rel := range rels {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(rel), 0o600))
	}
}

func TestMatch(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.html", "a.html", "index.html", "_layout.html", "sub/c.html", ".hidden.html", "notes.txt")

	assets, err := Match(structure.Pattern{Base: root, Include: []string{"*.html"}, Exclude: []string{"index.html", "_*.html"}})
	require.NoError(t, err)

	var rels []string
	for _, a := range assets {
		rels = append(rels, a.Rel)
	}
	assert.Equal(t, []string{"a.html", "b.html"}, rels)
	assert.Equal(t, "a", assets[0].Stem())
}

func TestMatchMissingBase(t *testing.T) {
	assets, err := Match(structure.Pattern{Base: filepath.Join(t.TempDir(), "nope"), Include: []string{"**/*"}})
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestWriterRefusesEscape(t *testing.T) {
	w := Writer{Root: t.TempDir()}

	full, err := w.Write("css/app.min.css", []byte("a{}"))
	require.NoError(t, err)
	assert.FileExists(t, full)

	_, err = w.Write("../outside.txt", []byte("x"))
	require.Error(t, err)
	_, err = w.Write(".", []byte("x"))
	require.Error(t, err)
}

func TestCopyPreservesContent(t *testing.T) {
	src := filepath.Join(t.TempDir(), "robots.src")
	require.NoError(t, os.WriteFile(src, []byte("User-agent: *"), 0o600))

	w := Writer{Root: t.TempDir()}
	full, err := w.Copy(src, "nested/robots.txt")
	require.NoError(t, err)

	got, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *", string(got))
}

func TestCleanURL(t *testing.T) {
	tests := map[string]string{
		"about.html":      "about/index.html",
		"index.html":      "index.html",
		"blog/post.html":  "blog/post/index.html",
		"blog/index.html": "blog/index.html",
		"style.css":       "style.css",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanURL(in), in)
	}
}
