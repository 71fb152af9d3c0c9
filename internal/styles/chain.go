// Package styles compiles Sass and runs stylesheets through an ordered chain of transforms.
package styles

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// Env is what transforms may consult besides the stylesheet itself.
type Env struct {
	// SourceDir resolves relative url() references.
	SourceDir string
	// AssetsDir is the root inline filters are matched against.
	AssetsDir string
	// InlineFilter selects url() references to embed, relative to AssetsDir.
	InlineFilter string
	// HTML is the set of built pages used by uncss.
	HTML structure.Pattern
	// Engines are the esbuild targets.
	Engines []api.Engine
	// OutputName is the file name of the stylesheet, used for the source map.
	OutputName string
	// OutputDir is where the stylesheet is written; map sources are relative to it.
	OutputDir string
	Sourcemap bool
	// Warn receives non-fatal notices.
	Warn func(msg string)
}

func (e *Env) warn(format string, args ...any) {
	if e.Warn != nil {
		e.Warn(fmt.Sprintf(format, args...))
	}
}

// Transform rewrites a stylesheet.
type Transform func(ctx context.Context, env *Env, css []byte) ([]byte, error)

var transforms = map[string]Transform{
	"autoprefix":    Autoprefix,
	"uncss":         Uncss,
	"inline_assets": InlineAssets,
	"cachebust":     Cachebust,
	"sort":          SortDeclarations,
	"minify":        Minify,
}

// esbuildSteps carry an incoming source map through; the value is whether the step minifies.
var esbuildSteps = map[string]bool{"autoprefix": false, "minify": true}

// Chain is an ordered list of named transforms.
type Chain struct {
	names []string
}

// NewChain resolves transform names. Unknown names are an error.
func NewChain(names []string) (*Chain, error) {
	for _, n := range names {
		if _, ok := transforms[n]; !ok {
			return nil, fmt.Errorf("unknown style transform %q", n)
		}
	}
	return &Chain{names: append([]string(nil), names...)}, nil
}

// Names returns the transform names in order.
func (c *Chain) Names() []string { return append([]string(nil), c.names...) }

// Source is one stylesheet entering the chain.
type Source struct {
	// Path is the file the stylesheet was read or compiled from.
	Path string
	CSS  []byte
	// Map is an optional source map for CSS, e.g. from the Sass compiler.
	Map []byte
}

// Result is the processed stylesheet and its optional source map.
type Result struct {
	CSS []byte
	Map []byte
}

// Run applies every transform in order to each source, then joins the
// sources in order. With env.Sourcemap the esbuild steps carry each source's
// map forward and the joined stylesheet gets an external map whose sources
// are the original files. Transforms that rewrite the stylesheet as text
// restart the mapping at their own output.
func (c *Chain) Run(ctx context.Context, env *Env, sources []Source) (Result, error) {
	processed := make([]Source, 0, len(sources))
	for _, src := range sources {
		out, err := c.apply(ctx, env, src)
		if err != nil {
			if src.Path != "" {
				return Result{}, fmt.Errorf("%s: %w", filepath.Base(src.Path), err)
			}
			return Result{}, err
		}
		processed = append(processed, out)
	}
	if !env.Sourcemap {
		var buf bytes.Buffer
		for _, s := range processed {
			buf.Write(bytes.TrimRight(s.CSS, "\r\n"))
			buf.WriteByte('\n')
		}
		return Result{CSS: buf.Bytes()}, nil
	}
	res, err := bundleCSS(env, processed, c.has("minify"), c.has("autoprefix"))
	if err != nil {
		return Result{}, fmt.Errorf("sourcemap: %w", err)
	}
	return res, nil
}

func (c *Chain) apply(ctx context.Context, env *Env, src Source) (Source, error) {
	for _, name := range c.names {
		if err := ctx.Err(); err != nil {
			return Source{}, err
		}
		if minify, ok := esbuildSteps[name]; ok && env.Sourcemap {
			next, err := esbuildCSS(env, src, minify, true)
			if err != nil {
				return Source{}, fmt.Errorf("%s: %w", name, err)
			}
			src = next
			continue
		}
		out, err := transforms[name](ctx, env, src.CSS)
		if err != nil {
			return Source{}, fmt.Errorf("%s: %w", name, err)
		}
		src.CSS, src.Map = out, nil
	}
	return src, nil
}

func (c *Chain) has(name string) bool {
	for _, n := range c.names {
		if n == name {
			return true
		}
	}
	return false
}

// Engines converts configured targets ("chrome": "120") to esbuild engines.
// Unknown engine names are an error.
func Engines(targets map[string]string) ([]api.Engine, error) {
	names := make([]string, 0, len(targets))
	for n := range targets {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]api.Engine, 0, len(names))
	for _, n := range names {
		var engine api.EngineName
		switch strings.ToLower(n) {
		case "chrome":
			engine = api.EngineChrome
		case "edge":
			engine = api.EngineEdge
		case "firefox":
			engine = api.EngineFirefox
		case "safari":
			engine = api.EngineSafari
		case "ios":
			engine = api.EngineIOS
		case "opera":
			engine = api.EngineOpera
		case "ie":
			engine = api.EngineIE
		default:
			return nil, fmt.Errorf("unknown style target %q", n)
		}
		out = append(out, api.Engine{Name: engine, Version: targets[n]})
	}
	return out, nil
}

// NewEnv builds the transform environment from configuration.
func NewEnv(cfg config.StylesConfig, reg *structure.Registry, sourceDir string) (*Env, error) {
	engines, err := Engines(cfg.Targets)
	if err != nil {
		return nil, err
	}
	return &Env{
		SourceDir:    sourceDir,
		AssetsDir:    filepath.Dir(reg.Source(structure.CSS).Base),
		InlineFilter: cfg.Inline,
		HTML:         reg.Source(structure.Root),
		Engines:      engines,
		OutputName:   cfg.OutputName(),
		OutputDir:    reg.Dest(structure.DestCSS),
		Sourcemap:    cfg.Sourcemaps,
	}, nil
}
