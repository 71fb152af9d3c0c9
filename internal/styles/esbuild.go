package styles

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Autoprefix adds vendor prefixes and lowers syntax the configured engines lack.
func Autoprefix(_ context.Context, env *Env, css []byte) ([]byte, error) {
	out, err := esbuildCSS(env, Source{CSS: css}, false, false)
	return out.CSS, err
}

// Minify compresses the stylesheet.
func Minify(_ context.Context, env *Env, css []byte) ([]byte, error) {
	out, err := esbuildCSS(env, Source{CSS: css}, true, false)
	return out.CSS, err
}

// esbuildCSS runs one esbuild pass over src. With sourcemap, src.Map is fed in
// as the input map and the result maps back through it.
func esbuildCSS(env *Env, src Source, minify, sourcemap bool) (Source, error) {
	input := string(src.CSS)
	if sourcemap {
		input = withInlineMap(src.CSS, src.Map)
	}
	name := src.Path
	if name == "" {
		name = env.OutputName
	}
	opts := api.TransformOptions{
		Loader:           api.LoaderCSS,
		Engines:          env.Engines,
		MinifyWhitespace: minify,
		MinifySyntax:     minify,
		Sourcefile:       name,
		LegalComments:    api.LegalCommentsNone,
		LogLevel:         api.LogLevelSilent,
	}
	if sourcemap {
		opts.Sourcemap = api.SourceMapExternal
		opts.SourcesContent = api.SourcesContentInclude
	}
	result := api.Transform(input, opts)
	if len(result.Errors) > 0 {
		return Source{}, messagesError(result.Errors)
	}
	for _, w := range result.Warnings {
		env.warn("%s", formatMessage(w))
	}
	out := Source{Path: src.Path, CSS: result.Code}
	if sourcemap {
		out.Map = result.Map
	}
	return out, nil
}

// withInlineMap appends m to css as a data URL sourceMappingURL comment.
func withInlineMap(css, m []byte) string {
	if len(m) == 0 {
		return string(css)
	}
	return strings.TrimRight(string(css), "\r\n") +
		"\n/*# sourceMappingURL=data:application/json;base64," + base64.StdEncoding.EncodeToString(m) + " */\n"
}

const sourceImport = "pagesmith-source:"

// bundleCSS joins sources with esbuild's bundler so each source keeps its
// own file and input map in the combined source map. url() references and
// remaining @imports are left as written.
func bundleCSS(env *Env, sources []Source, minify, lower bool) (Result, error) {
	outDir := env.OutputDir
	if outDir == "" {
		outDir = env.SourceDir
	}
	outDir, err := filepath.Abs(outDir)
	if err != nil {
		return Result{}, err
	}
	name := env.OutputName
	if name == "" {
		name = "style.css"
	}

	byPath := make(map[string]Source, len(sources))
	var entry strings.Builder
	for i, s := range sources {
		p := s.Path
		if p == "" {
			p = filepath.Join(env.SourceDir, fmt.Sprintf("stylesheet-%d.css", i))
		}
		if p, err = filepath.Abs(p); err != nil {
			return Result{}, err
		}
		byPath[p] = s
		fmt.Fprintf(&entry, "@import %q;\n", sourceImport+filepath.ToSlash(p))
	}

	opts := api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   entry.String(),
			Loader:     api.LoaderCSS,
			ResolveDir: outDir,
			Sourcefile: "<stylesheets>",
		},
		Bundle:           true,
		Write:            false,
		Outfile:          filepath.Join(outDir, name),
		Sourcemap:        api.SourceMapLinked,
		SourcesContent:   api.SourcesContentInclude,
		MinifyWhitespace: minify,
		MinifySyntax:     minify,
		LegalComments:    api.LegalCommentsNone,
		LogLevel:         api.LogLevelSilent,
		Plugins:          []api.Plugin{sourcesPlugin(byPath)},
	}
	if lower {
		opts.Engines = env.Engines
	}
	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return Result{}, messagesError(result.Errors)
	}
	for _, w := range result.Warnings {
		env.warn("%s", formatMessage(w))
	}
	var res Result
	for _, f := range result.OutputFiles {
		if strings.HasSuffix(f.Path, ".map") {
			res.Map = f.Contents
		} else {
			res.CSS = f.Contents
		}
	}
	return res, nil
}

// sourcesPlugin serves the in-memory stylesheets to the bundler and keeps
// every other reference external.
func sourcesPlugin(byPath map[string]Source) api.Plugin {
	return api.Plugin{
		Name: "pagesmith-stylesheets",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: "^" + regexp.QuoteMeta(sourceImport)},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      filepath.FromSlash(strings.TrimPrefix(args.Path, sourceImport)),
						Namespace: "file",
					}, nil
				})
			build.OnResolve(api.OnResolveOptions{Filter: ".*"},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{Path: args.Path, External: true}, nil
				})
			build.OnLoad(api.OnLoadOptions{Filter: ".*", Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					s, ok := byPath[args.Path]
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("unexpected stylesheet %s", args.Path)
					}
					contents := withInlineMap(s.CSS, s.Map)
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderCSS,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				})
		},
	}
}

func messagesError(msgs []api.Message) error {
	parts := make([]string, len(msgs))
	for i, m := range msgs {
		parts[i] = formatMessage(m)
	}
	return errors.New(strings.Join(parts, "; "))
}

func formatMessage(m api.Message) string {
	if m.Location == nil {
		return m.Text
	}
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text)
}
