package styles

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

func write(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func testEnv(t *testing.T) (*Env, string) {
	t.Helper()
	root := t.TempDir()
	engines, err := Engines(config.Default().Styles.Targets)
	require.NoError(t, err)
	return &Env{
		SourceDir:    filepath.Join(root, "assets", "css"),
		AssetsDir:    filepath.Join(root, "assets"),
		InlineFilter: "img/*.jpg",
		HTML:         structure.Pattern{Base: filepath.Join(root, "_gh_pages"), Include: []string{"**/*.html"}},
		Engines:      engines,
		OutputName:   "app.min.css",
	}, root
}

func TestNewChain(t *testing.T) {
	c, err := NewChain(config.Default().Styles.CSSChain)
	require.NoError(t, err)
	assert.Equal(t, []string{"inline_assets", "sort", "autoprefix", "uncss", "minify"}, c.Names())

	_, err = NewChain([]string{"minify", "lost"})
	require.Error(t, err)
}

func TestEngines(t *testing.T) {
	engines, err := Engines(map[string]string{"firefox": "21", "chrome": "120"})
	require.NoError(t, err)
	assert.Equal(t, []api.Engine{{Name: api.EngineChrome, Version: "120"}, {Name: api.EngineFirefox, Version: "21"}}, engines)

	_, err = Engines(map[string]string{"netscape": "4"})
	require.Error(t, err)
}

func TestUncss(t *testing.T) {
	env, root := testEnv(t)
	write(t, root, "_gh_pages/index.html", `<html><body><nav class="menu"><a href="/">home</a></nav></body></html>`)
	write(t, root, "_gh_pages/about/index.html", `<html><body><main id="about"><p>hi</p></main></body></html>`)

	css := `
.menu a { color: red; }
.menu a:hover { color: blue; }
.unused { color: green; }
#about p, .gone { margin: 0; }
@media (min-width: 600px) { .unused { display: none; } }
@media print { main { display: block; } }
@font-face { font-family: "X"; src: url(x.woff); }
a::before { content: "x"; }
`
	out, err := Uncss(context.Background(), env, []byte(css))
	require.NoError(t, err)
	got := string(out)

	assert.Contains(t, got, ".menu a {")
	assert.Contains(t, got, ".menu a:hover")
	assert.NotContains(t, got, ".unused")
	assert.Contains(t, got, "#about p")
	assert.NotContains(t, got, ".gone")
	assert.Contains(t, got, "@media print")
	assert.NotContains(t, got, "min-width: 600px")
	assert.Contains(t, got, "@font-face")
	assert.Contains(t, got, "a::before")
}

func TestUncssWithoutPagesLeavesCSS(t *testing.T) {
	env, _ := testEnv(t)
	var warned string
	env.Warn = func(msg string) { warned = msg }

	css := []byte(".anything { color: red; }")
	out, err := Uncss(context.Background(), env, css)
	require.NoError(t, err)
	assert.Equal(t, css, out)
	assert.Contains(t, warned, "untouched")
}

func TestSortDeclarations(t *testing.T) {
	out, err := SortDeclarations(context.Background(), nil, []byte(`a { z-index: 1; color: red; -webkit-transition: none; transition: none; }`))
	require.NoError(t, err)
	got := string(out)

	c := strings.Index(got, "color")
	w := strings.Index(got, "-webkit-transition")
	tr := strings.Index(got, " transition")
	z := strings.Index(got, "z-index")
	assert.True(t, c < w && w < tr && tr < z, got)
}

func TestSortDeclarationsKeepsCascadeOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		order []string
	}{
		{"shorthand after longhand", "a { padding-left: 10px; padding: 0; }", []string{"padding-left: 10px", "padding: 0"}},
		{"margin family with others", "a { z-index: 2; margin-top: 1px; color: red; margin: 0; }", []string{"color: red", "margin-top: 1px", "margin: 0", "z-index: 2"}},
		{"font resets line-height", "a { line-height: 2; font: 12px serif; }", []string{"line-height: 2", "font: 12px serif"}},
		{"inset resets top", "a { top: 5px; inset: 0; }", []string{"top: 5px", "inset: 0"}},
		{"unprefixed before prefixed keeps order", "a { transition: none; -webkit-transition: none; }", []string{"transition: none", "-webkit-transition: none"}},
		{"all resets everything", "a { color: red; all: unset; }", []string{"color: red", "all: unset"}},
		{"unrelated properties still sort", "a { width: 1px; background-color: red; }", []string{"background-color: red", "width: 1px"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SortDeclarations(context.Background(), nil, []byte(tt.input))
			require.NoError(t, err)
			got := string(out)
			last := -1
			for _, decl := range tt.order {
				i := strings.Index(got, decl)
				require.GreaterOrEqual(t, i, 0, "%q missing in %s", decl, got)
				assert.Greater(t, i, last, "%q out of order in %s", decl, got)
				last = i
			}
		})
	}
}

func TestInlineAssetsAndCachebust(t *testing.T) {
	env, root := testEnv(t)
	write(t, root, "assets/img/hero.jpg", "jpegbytes")
	write(t, root, "assets/img/logo.png", "pngbytes")
	write(t, root, "assets/img/icon.svg", `<svg xmlns="http://www.w3.org/2000/svg">  <rect width="10" height="10"/>  </svg>`)

	css := []byte(`.a{background:url("../img/hero.jpg")}.b{background:url(../img/logo.png)}.c{background:url(http://cdn/x.jpg)}.d{background:url(data:image/gif;base64,AA==)}`)

	inlined, err := InlineAssets(context.Background(), env, css)
	require.NoError(t, err)
	assert.Contains(t, string(inlined), `url("data:image/jpeg;base64,`)
	assert.Contains(t, string(inlined), "url(../img/logo.png)", "not matching the filter")
	assert.Contains(t, string(inlined), "url(http://cdn/x.jpg)")

	busted, err := Cachebust(context.Background(), env, inlined)
	require.NoError(t, err)
	assert.Regexp(t, `url\("\.\./img/logo\.png\?v=[0-9a-f]+"\)`, string(busted))
	assert.Contains(t, string(busted), "url(http://cdn/x.jpg)")
	assert.Contains(t, string(busted), "data:image/gif;base64,AA==")

	env.InlineFilter = "img/*.svg"
	svgCSS, err := InlineAssets(context.Background(), env, []byte(`.i{background:url(../img/icon.svg)}`))
	require.NoError(t, err)
	assert.Contains(t, string(svgCSS), "data:image/svg+xml;base64,")
}

func mapSources(t *testing.T, m []byte) []string {
	t.Helper()
	var sm struct {
		Sources []string `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(m, &sm))
	return sm.Sources
}

func hasSourceSuffix(sources []string, suffix string) bool {
	for _, s := range sources {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func TestChainRunWithSourcemap(t *testing.T) {
	env, root := testEnv(t)
	env.Sourcemap = true
	env.OutputDir = filepath.Join(root, "_gh_pages", "css")
	write(t, root, "_gh_pages/index.html", `<html><body><div class="box"><p class="note"></p></div></body></html>`)

	chain, err := NewChain([]string{"autoprefix", "uncss", "minify"})
	require.NoError(t, err)

	res, err := chain.Run(context.Background(), env, []Source{
		{Path: filepath.Join(env.SourceDir, "main.css"), CSS: []byte(".box { user-select: none; color: #ff0000; }\n.unused { color: blue; }\n")},
		{Path: filepath.Join(env.SourceDir, "extra.css"), CSS: []byte(".note { color: green; }\n")},
	})
	require.NoError(t, err)

	got := string(res.CSS)
	assert.Contains(t, got, ".box{")
	assert.Contains(t, got, ".note{")
	assert.Less(t, strings.Index(got, ".box{"), strings.Index(got, ".note{"))
	assert.NotContains(t, got, ".unused")
	assert.True(t, strings.HasSuffix(got, "/*# sourceMappingURL=app.min.css.map */\n"))

	sources := mapSources(t, res.Map)
	assert.True(t, hasSourceSuffix(sources, "main.css"), "sources: %v", sources)
	assert.True(t, hasSourceSuffix(sources, "extra.css"), "sources: %v", sources)
	assert.False(t, hasSourceSuffix(sources, "app.min.css"), "sources: %v", sources)
}

func TestChainRunComposesIncomingMap(t *testing.T) {
	env, root := testEnv(t)
	env.Sourcemap = true
	env.OutputDir = filepath.Join(root, "_gh_pages", "css")

	// maps the single output line back to theme.scss
	incoming := `{"version":3,"sources":["theme.scss"],"sourcesContent":[".btn { color: red; }"],"names":[],"mappings":"AAAA"}`
	chain, err := NewChain([]string{"autoprefix", "minify"})
	require.NoError(t, err)

	res, err := chain.Run(context.Background(), env, []Source{{
		Path: filepath.Join(env.SourceDir, "theme.css"),
		CSS:  []byte(".btn { color: red; }\n"),
		Map:  []byte(incoming),
	}})
	require.NoError(t, err)
	assert.Contains(t, string(res.CSS), ".btn{")
	sources := mapSources(t, res.Map)
	assert.True(t, hasSourceSuffix(sources, "theme.scss"), "sources: %v", sources)
}

func TestChainRunWithoutSourcemapJoinsSources(t *testing.T) {
	env, _ := testEnv(t)
	chain, err := NewChain([]string{"minify"})
	require.NoError(t, err)

	res, err := chain.Run(context.Background(), env, []Source{
		{CSS: []byte("a { color: red; }")},
		{CSS: []byte("b { color: blue; }")},
	})
	require.NoError(t, err)
	assert.Nil(t, res.Map)
	assert.Equal(t, "a{color:red}\nb{color:#00f}\n", string(res.CSS))
}

func TestWithInlineMap(t *testing.T) {
	assert.Equal(t, "a{}\n", withInlineMap([]byte("a{}\n"), nil))
	got := withInlineMap([]byte("a{}\n"), []byte(`{"version":3}`))
	assert.True(t, strings.HasPrefix(got, "a{}\n/*# sourceMappingURL=data:application/json;base64,"))
	assert.True(t, strings.HasSuffix(got, " */\n"))
}

func TestCompileSass(t *testing.T) {
	if _, err := exec.LookPath("sass"); err != nil {
		t.Skip("dart sass not installed")
	}
	dir := t.TempDir()
	write(t, dir, "_vars.scss", "$brand: #336699;\n")
	main := write(t, dir, "main.scss", "@use 'vars';\n.btn { color: vars.$brand; .icon { width: 1em; } }\n")

	c := NewCompiler("")
	t.Cleanup(func() { _ = c.Close() })
	out, err := c.Compile(context.Background(), main, false)
	require.NoError(t, err)
	assert.Equal(t, main, out.Path)
	assert.Contains(t, string(out.CSS), ".btn .icon")
	assert.Contains(t, string(out.CSS), "#336699")
	assert.Nil(t, out.Map)

	mapped, err := c.Compile(context.Background(), main, true)
	require.NoError(t, err)
	sources := mapSources(t, mapped.Map)
	assert.True(t, hasSourceSuffix(sources, "main.scss"), "sources: %v", sources)
	assert.True(t, hasSourceSuffix(sources, "_vars.scss"), "sources: %v", sources)

	env, root := testEnv(t)
	env.Sourcemap = true
	env.OutputDir = filepath.Join(root, "_gh_pages", "css")
	chain, err := NewChain([]string{"autoprefix", "minify"})
	require.NoError(t, err)
	res, err := chain.Run(context.Background(), env, []Source{mapped})
	require.NoError(t, err)
	assert.True(t, hasSourceSuffix(mapSources(t, res.Map), "main.scss"))
}
