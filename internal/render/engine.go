// Package render turns Twig-style page templates into HTML.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/frontmatter"
)

// Page is a template source with its front matter removed.
type Page struct {
	Path string         // filesystem path
	Rel  string         // path relative to the pages folder
	Stem string         // file name without extension
	URL  string         // site URL the page is published at
	Data map[string]any // front matter
	Body []byte         // template body
}

// LoadPage reads asset and separates its front matter. url is the published location.
func LoadPage(asset fileset.Asset, url string) (Page, error) {
	raw, err := os.ReadFile(asset.Path)
	if err != nil {
		return Page{}, err
	}
	doc, err := frontmatter.Parse(raw)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Path: asset.Path,
		Rel:  asset.Rel,
		Stem: asset.Stem(),
		URL:  url,
		Data: doc.Data,
		Body: doc.Body,
	}, nil
}

// PageURL returns the published URL for a page written at rel inside the build folder.
func PageURL(rel string) string {
	rel = path.Clean("/" + rel)
	if path.Base(rel) == "index.html" {
		dir := path.Dir(rel)
		if dir == "/" {
			return "/"
		}
		return dir + "/"
	}
	return rel
}

// Engine renders pages against one pages folder. Layouts and partials referenced
// with extends/include resolve relative to that folder.
type Engine struct {
	set *pongo2.TemplateSet
}

// NewEngine creates an engine rooted at pagesDir.
func NewEngine(pagesDir string) (*Engine, error) {
	registerTags()
	loader, err := pongo2.NewLocalFileSystemLoader(pagesDir)
	if err != nil {
		return nil, fmt.Errorf("template loader: %w", err)
	}
	set := pongo2.NewSet("pages", loader)
	// layouts change while serving; never cache parsed templates
	set.Debug = true
	return &Engine{set: set}, nil
}

// Render executes page with the shared render context.
func (e *Engine) Render(ctx context.Context, rc Context, page Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tpl, err := e.set.FromBytes(page.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", page.Rel, err)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteWriter(rc.vars(page), &buf); err != nil {
		return nil, fmt.Errorf("execute %s: %w", page.Rel, err)
	}
	return buf.Bytes(), nil
}

var registerOnce sync.Once

func registerTags() {
	registerOnce.Do(func() {
		if err := pongo2.RegisterTag("markdown", tagMarkdownParser); err != nil &&
			!strings.Contains(err.Error(), "already registered") {
			panic(err)
		}
	})
}
