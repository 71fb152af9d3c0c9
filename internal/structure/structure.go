// Package structure resolves every source and destination location of a project
// from the folder names in the configuration.
package structure

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

// Category names a class of source files.
type Category string

const (
	Index   Category = "index"
	Pages   Category = "pages"
	Layouts Category = "layouts"
	CSS     Category = "css"
	SCSS    Category = "scss"
	JS      Category = "js"
	Img     Category = "img"
	Misc    Category = "misc"
	Posts   Category = "posts"
	Root    Category = "root"
	Deploy  Category = "deploy"
)

// Destination names an output folder.
type Destination string

const (
	DestDir   Destination = "dir"
	DestCSS   Destination = "css"
	DestJS    Destination = "js"
	DestImg   Destination = "img"
	DestMisc  Destination = "misc"
	DestPosts Destination = "posts"
)

// Pattern is a set of files below Base selected by slash-separated doublestar globs.
type Pattern struct {
	Base    string
	Include []string
	Exclude []string
}

// Globs returns the include globs joined onto Base, for display and watching.
func (p Pattern) Globs() []string {
	out := make([]string, len(p.Include))
	for i, inc := range p.Include {
		out[i] = path.Join(filepath.ToSlash(p.Base), inc)
	}
	return out
}

// Match reports whether file (absolute or relative to the working directory) belongs to the pattern.
func (p Pattern) Match(file string) bool {
	rel, ok := Rel(p.Base, file)
	if !ok {
		return false
	}
	return p.MatchRel(rel)
}

// MatchRel reports whether a slash-separated path relative to Base belongs to the pattern.
func (p Pattern) MatchRel(rel string) bool {
	included := false
	for _, inc := range p.Include {
		if ok, _ := doublestar.Match(inc, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, exc := range p.Exclude {
		if ok, _ := doublestar.Match(exc, rel); ok {
			return false
		}
		if ok, _ := doublestar.Match(exc, path.Base(rel)); ok && !strings.Contains(exc, "/") {
			return false
		}
	}
	return true
}

// Registry is the single source of truth for project locations.
type Registry struct {
	cfg     config.StructureConfig
	sources map[Category]Pattern
	dests   map[Destination]string
}

// New builds a registry from the structure configuration.
func New(cfg config.StructureConfig) *Registry {
	root := cfg.Root
	if root == "" {
		root = "."
	}
	join := func(parts ...string) string { return filepath.Join(append([]string{root}, parts...)...) }

	pages := join(cfg.Pages)
	build := join(cfg.Build)
	cssDir := join(cfg.Assets, cfg.CSS)

	r := &Registry{
		cfg: cfg,
		sources: map[Category]Pattern{
			Index:   {Base: pages, Include: []string{"index.html"}},
			Pages:   {Base: pages, Include: []string{"*.html"}, Exclude: []string{"index.html", "_*.html"}},
			Layouts: {Base: pages, Include: []string{"**/_*.html"}},
			CSS:     {Base: cssDir, Include: []string{"*.css"}},
			SCSS:    {Base: filepath.Join(cssDir, cfg.SCSS), Include: []string{"*.{scss,sass}"}, Exclude: []string{"_*"}},
			JS:      {Base: join(cfg.Assets, cfg.JS), Include: []string{"**/*"}},
			Img:     {Base: join(cfg.Assets, cfg.Img), Include: []string{"**/*"}},
			Misc:    {Base: join(cfg.Misc), Include: []string{"**/*"}},
			Posts:   {Base: join(cfg.Posts), Include: []string{"**/*.{markdown,md}"}},
			Root:    {Base: build, Include: []string{"**/*.html"}},
			Deploy:  {Base: build, Include: []string{"**/*"}},
		},
		dests: map[Destination]string{
			DestDir:   build,
			DestCSS:   filepath.Join(build, cfg.CSS),
			DestJS:    filepath.Join(build, cfg.JS),
			DestImg:   filepath.Join(build, cfg.Img),
			DestMisc:  build,
			DestPosts: build,
		},
	}
	return r
}

// ProjectRoot returns the directory all locations are resolved against.
func (r *Registry) ProjectRoot() string {
	if r.cfg.Root == "" {
		return "."
	}
	return r.cfg.Root
}

// BuildDir returns the output root.
func (r *Registry) BuildDir() string { return r.dests[DestDir] }

// Source returns the pattern for a category. Unknown categories panic: they are programming errors.
func (r *Registry) Source(c Category) Pattern {
	p, ok := r.sources[c]
	if !ok {
		panic(fmt.Sprintf("structure: unknown source category %q", c))
	}
	return p
}

// Lookup returns the pattern for a category name supplied by users.
func (r *Registry) Lookup(name string) (Pattern, bool) {
	p, ok := r.sources[Category(name)]
	return p, ok
}

// Dest returns the output folder for a destination.
func (r *Registry) Dest(d Destination) string {
	p, ok := r.dests[d]
	if !ok {
		panic(fmt.Sprintf("structure: unknown destination %q", d))
	}
	return p
}

// Watched returns the pattern the watcher uses for a category. Sass partials
// are watched although they are never compiled on their own.
func (r *Registry) Watched(c Category) Pattern {
	p := r.Source(c)
	if c == SCSS {
		p.Include = []string{"**/*.{scss,sass}"}
		p.Exclude = nil
	}
	return p
}

// LookupWatched is Watched for a category name supplied by users.
func (r *Registry) LookupWatched(name string) (Pattern, bool) {
	if _, ok := r.sources[Category(name)]; !ok {
		return Pattern{}, false
	}
	return r.Watched(Category(name)), true
}

// SourceRoots returns the distinct folders that hold sources, for the watcher.
// The build folder is never included.
func (r *Registry) SourceRoots() []string {
	seen := make(map[string]bool)
	var roots []string
	for _, c := range []Category{Index, Pages, Layouts, CSS, SCSS, JS, Img, Misc, Posts} {
		base := r.sources[c].Base
		if !seen[base] {
			seen[base] = true
			roots = append(roots, base)
		}
	}
	return roots
}

// Contains reports whether p lies inside root (or is root).
func Contains(root, p string) bool {
	_, ok := Rel(root, p)
	return ok
}

// Rel returns p relative to root in slash form, and false when p escapes root.
func Rel(root, p string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absRoot, absP)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
