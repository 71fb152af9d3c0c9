// Package scripts concatenates JavaScript sources in a declared order and minifies the bundle.
package scripts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
)

// IsScript reports whether rel names a JavaScript source.
func IsScript(rel string) bool {
	switch strings.ToLower(path.Ext(rel)) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

// Order arranges assets by the manifest: each manifest glob contributes its
// matches in lexical order, a file is kept at its first position only.
// Files not covered by the manifest are an error. An empty manifest keeps
// the lexical order and returns a warning when more than one file is bundled.
func Order(assets []fileset.Asset, manifest []string) ([]fileset.Asset, []string, error) {
	var scripts []fileset.Asset
	for _, a := range assets {
		if IsScript(a.Rel) {
			scripts = append(scripts, a)
		}
	}
	if len(manifest) == 0 {
		var warnings []string
		if len(scripts) > 1 {
			warnings = append(warnings, fmt.Sprintf("no script order declared, bundling %d files in lexical order", len(scripts)))
		}
		return scripts, warnings, nil
	}

	placed := make(map[string]bool, len(scripts))
	ordered := make([]fileset.Asset, 0, len(scripts))
	for _, pattern := range manifest {
		if !doublestar.ValidatePattern(pattern) {
			return nil, nil, fmt.Errorf("invalid script order pattern %q", pattern)
		}
		matched := false
		for _, a := range scripts {
			ok, _ := doublestar.Match(pattern, a.Rel)
			if !ok {
				continue
			}
			matched = true
			if !placed[a.Rel] {
				placed[a.Rel] = true
				ordered = append(ordered, a)
			}
		}
		if !matched {
			return nil, nil, fmt.Errorf("script order entry %q matches no file", pattern)
		}
	}

	var missing []string
	for _, a := range scripts {
		if !placed[a.Rel] {
			missing = append(missing, a.Rel)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("scripts not listed in the order manifest: %s", strings.Join(missing, ", "))
	}
	return ordered, nil, nil
}

// Result is the minified bundle and its optional source map.
type Result struct {
	JS  []byte
	Map []byte
}

// Bundle concatenates files and minifies them into one script named name.
// The source map, when requested, lists every file under its relative path.
func Bundle(ctx context.Context, files []fileset.Asset, name string, sourcemap bool) (Result, error) {
	var src bytes.Buffer
	var cm concatMap
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return Result{}, err
		}
		src.Write(data)
		if !bytes.HasSuffix(data, []byte("\n")) {
			src.WriteByte('\n')
		}
		// guard against files that omit their trailing semicolon
		src.WriteString(";\n")
		cm.add(filepath.ToSlash(f.Rel), data)
		cm.skip()
	}
	if sourcemap {
		m, err := json.Marshal(&cm)
		if err != nil {
			return Result{}, err
		}
		src.WriteString("//# sourceMappingURL=data:application/json;base64,")
		src.WriteString(base64.StdEncoding.EncodeToString(m))
		src.WriteByte('\n')
	}

	opts := api.TransformOptions{
		Loader:            api.LoaderJS,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Sourcefile:        strings.TrimSuffix(name, ".min.js") + ".js",
		LegalComments:     api.LegalCommentsNone,
		LogLevel:          api.LogLevelSilent,
	}
	if sourcemap {
		opts.Sourcemap = api.SourceMapExternal
		opts.SourcesContent = api.SourcesContentInclude
	}
	result := api.Transform(src.String(), opts)
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, m := range result.Errors {
			msgs[i] = m.Text
			if m.Location != nil {
				msgs[i] = fmt.Sprintf("%d:%d: %s", m.Location.Line, m.Location.Column, m.Text)
			}
		}
		return Result{}, fmt.Errorf("minify %s: %s", name, strings.Join(msgs, "; "))
	}
	code := result.Code
	if sourcemap {
		code = append(bytes.TrimRight(code, "\n"), []byte("\n//# sourceMappingURL="+name+".map\n")...)
	}
	return Result{JS: code, Map: result.Map}, nil
}
