package structure

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

func newRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default().Structure
	cfg.Root = root
	return New(cfg), root
}

func TestSourcePatterns(t *testing.T) {
	r, root := newRegistry(t)

	tests := []struct {
		category Category
		file     string
		want     bool
	}{
		{Index, "_pages/index.html", true},
		{Index, "_pages/about.html", false},
		{Pages, "_pages/about.html", true},
		{Pages, "_pages/index.html", false},
		{Pages, "_pages/_layout.html", false},
		{Pages, "_pages/blog/post.html", false},
		{Layouts, "_pages/_layout.html", true},
		{Layouts, "_pages/partials/_nav.html", true},
		{SCSS, "assets/css/scss/app.scss", true},
		{SCSS, "assets/css/scss/main.sass", true},
		{SCSS, "assets/css/scss/_vars.scss", false},
		{CSS, "assets/css/base.css", true},
		{CSS, "assets/css/scss/app.scss", false},
		{JS, "assets/js/vendor/jquery.js", true},
		{Img, "assets/img/photos/cat.jpg", true},
		{Posts, "_posts/hello.md", true},
		{Posts, "_posts/2017/old.markdown", true},
		{Posts, "_posts/draft.txt", false},
		{Root, "_gh_pages/about/index.html", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.category)+" "+tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Source(tt.category).Match(filepath.Join(root, tt.file)))
		})
	}
}

func TestWatchedIncludesSassPartials(t *testing.T) {
	r, root := newRegistry(t)

	watched, ok := r.LookupWatched(string(SCSS))
	require.True(t, ok)
	assert.True(t, watched.Match(filepath.Join(root, "assets/css/scss/_vars.scss")))
	assert.True(t, watched.Match(filepath.Join(root, "assets/css/scss/base/_reset.sass")))
	assert.True(t, watched.Match(filepath.Join(root, "assets/css/scss/app.scss")))
	assert.False(t, watched.Match(filepath.Join(root, "assets/css/base.css")))
	assert.False(t, r.Source(SCSS).Match(filepath.Join(root, "assets/css/scss/_vars.scss")))

	assert.Equal(t, r.Source(Pages), r.Watched(Pages))
	_, ok = r.LookupWatched("nope")
	assert.False(t, ok)
}

func TestDestinations(t *testing.T) {
	r, root := newRegistry(t)
	build := filepath.Join(root, "_gh_pages")

	assert.Equal(t, build, r.BuildDir())
	assert.Equal(t, filepath.Join(build, "css"), r.Dest(DestCSS))
	assert.Equal(t, filepath.Join(build, "js"), r.Dest(DestJS))
	assert.Equal(t, filepath.Join(build, "img"), r.Dest(DestImg))
	assert.Equal(t, build, r.Dest(DestMisc))
	assert.Panics(t, func() { r.Dest("fonts") })
}

func TestSourceRootsExcludeBuild(t *testing.T) {
	r, _ := newRegistry(t)
	roots := r.SourceRoots()
	require.NotEmpty(t, roots)
	for _, root := range roots {
		assert.False(t, Contains(r.BuildDir(), root), root)
	}
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("/srv/site", "/srv/site/a/b.html"))
	assert.True(t, Contains("/srv/site", "/srv/site"))
	assert.False(t, Contains("/srv/site", "/srv/site/../other/x"))
	assert.False(t, Contains("/srv/site", "/srv/site-old/x"))

	rel, ok := Rel("/srv/site", "/srv/site/css/app.min.css")
	require.True(t, ok)
	assert.Equal(t, "css/app.min.css", rel)
}
