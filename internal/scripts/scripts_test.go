package scripts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
)

func assetsOf(rels ...string) []fileset.Asset {
	out := make([]fileset.Asset, len(rels))
	for i, r := range rels {
		out[i] = fileset.Asset{Rel: r, Path: r}
	}
	return out
}

func rels(assets []fileset.Asset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Rel
	}
	return out
}

func TestOrderManifest(t *testing.T) {
	assets := assetsOf("app.js", "plugins/a.js", "plugins/b.js", "vendor/jquery.js", "README.md")

	ordered, warnings, err := Order(assets, []string{"vendor/*.js", "plugins/**/*.js", "*.js"})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"vendor/jquery.js", "plugins/a.js", "plugins/b.js", "app.js"}, rels(ordered))

	ordered, _, err = Order(assets, []string{"vendor/jquery.js", "**/*.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/jquery.js", "app.js", "plugins/a.js", "plugins/b.js"}, rels(ordered), "duplicates keep first position")
}

func TestOrderErrors(t *testing.T) {
	assets := assetsOf("app.js", "extra.js")

	_, _, err := Order(assets, []string{"app.js"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra.js")

	_, _, err = Order(assets, []string{"app.js", "extra.js", "missing.js"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.js")
}

func TestOrderWithoutManifestWarns(t *testing.T) {
	ordered, warnings, err := Order(assetsOf("a.js", "b.js"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "b.js"}, rels(ordered))
	require.Len(t, warnings, 1)

	_, warnings, err = Order(assetsOf("only.js"), nil)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestBundle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	b := filepath.Join(dir, "b.js")
	require.NoError(t, os.WriteFile(a, []byte("var greeting = 'hello'\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("function shout(message) {\n  return message.toUpperCase();\n}\nconsole.log(shout(greeting));"), 0o600))

	res, err := Bundle(context.Background(), []fileset.Asset{{Path: a, Rel: "a.js"}, {Path: b, Rel: "b.js"}}, "main.min.js", true)
	require.NoError(t, err)

	js := string(res.JS)
	assert.Less(t, strings.Index(js, "hello"), strings.Index(js, "toUpperCase"), "order preserved")
	assert.True(t, strings.HasSuffix(js, "//# sourceMappingURL=main.min.js.map\n"))
	var sm struct {
		Sources []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(res.Map, &sm))
	assert.Equal(t, []string{"a.js", "b.js"}, sm.Sources)
	assert.NotContains(t, js, "\n  return")

	bad := filepath.Join(dir, "bad.js")
	require.NoError(t, os.WriteFile(bad, []byte("function ("), 0o600))
	_, err = Bundle(context.Background(), []fileset.Asset{{Path: bad, Rel: "bad.js"}}, "main.min.js", false)
	require.Error(t, err)
}

func TestBundleWithoutSourcemap(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.js")
	require.NoError(t, os.WriteFile(a, []byte("var greeting = 'hello';\n"), 0o600))

	res, err := Bundle(context.Background(), []fileset.Asset{{Path: a, Rel: "a.js"}}, "main.min.js", false)
	require.NoError(t, err)
	assert.Nil(t, res.Map)
	assert.NotContains(t, string(res.JS), "sourceMappingURL")
}

func TestConcatMap(t *testing.T) {
	var m concatMap
	m.add("a.js", []byte("x\n"))
	m.skip()
	m.add("lib/b.js", []byte("y\nz"))
	m.skip()

	data, err := json.Marshal(&m)
	require.NoError(t, err)
	var sm struct {
		Version        int      `json:"version"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Mappings       string   `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal(data, &sm))
	assert.Equal(t, 3, sm.Version)
	assert.Equal(t, []string{"a.js", "lib/b.js"}, sm.Sources)
	assert.Equal(t, []string{"x\n", "y\nz"}, sm.SourcesContent)
	assert.Equal(t, "AAAA;;ACAA;AACA;", sm.Mappings)
}

func TestVLQ(t *testing.T) {
	for v, want := range map[int]string{0: "A", 1: "C", -1: "D", 15: "e", 16: "gB", 123: "2H", -123: "3H"} {
		assert.Equal(t, want, vlq(v), "vlq(%d)", v)
	}
}
