package styles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
)

// Compiler compiles Sass through the embedded Dart Sass protocol.
// One compiler serves many files; Close releases the child process.
type Compiler struct {
	binary string

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// NewCompiler creates a compiler. An empty binary uses "sass" from PATH.
func NewCompiler(binary string) *Compiler {
	return &Compiler{binary: binary}
}

func (c *Compiler) start() (*godartsass.Transpiler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transpiler != nil {
		return c.transpiler, nil
	}
	t, err := godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: c.binary})
	if err != nil {
		return nil, fmt.Errorf("start dart sass: %w", err)
	}
	c.transpiler = t
	return t, nil
}

// Compile compiles the Sass or SCSS file at path to expanded CSS.
// Imports resolve relative to the file and its folder. With sourcemap the
// result carries a map whose sources are the Sass files, partials included.
func (c *Compiler) Compile(ctx context.Context, path string, sourcemap bool) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Source{}, err
	}
	t, err := c.start()
	if err != nil {
		return Source{}, err
	}
	syntax := godartsass.SourceSyntaxSCSS
	if strings.EqualFold(filepath.Ext(path), ".sass") {
		syntax = godartsass.SourceSyntaxSASS
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, err
	}
	res, err := t.Execute(godartsass.Args{
		Source:       string(src),
		URL:          "file://" + filepath.ToSlash(abs),
		SourceSyntax: syntax,
		OutputStyle:  godartsass.OutputStyleExpanded,
		IncludePaths: []string{filepath.Dir(abs)},

		EnableSourceMap:         sourcemap,
		SourceMapIncludeSources: sourcemap,
	})
	if err != nil {
		return Source{}, err
	}
	out := Source{Path: path, CSS: []byte(res.CSS)}
	if res.SourceMap != "" {
		out.Map = []byte(res.SourceMap)
	}
	return out, nil
}

// Close stops the Dart Sass process if it was started.
func (c *Compiler) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transpiler == nil {
		return nil
	}
	err := c.transpiler.Close()
	c.transpiler = nil
	return err
}
