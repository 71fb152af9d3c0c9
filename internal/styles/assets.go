package styles

import (
	"bytes"
	"context"
	"encoding/base64"
	"mime"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"git.home.luguber.info/inful/pagesmith/internal/state"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

var urlRef = regexp.MustCompile(`url\(\s*(['"]?)([^'")]+)(['"]?)\s*\)`)

// localRef resolves a url() target to a file below the project, or returns false
// for data URIs, absolute URLs and fragments.
func localRef(env *Env, ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") || strings.HasPrefix(ref, "#") ||
		strings.HasPrefix(ref, "//") || strings.Contains(ref, "://") {
		return "", false
	}
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	var full string
	if strings.HasPrefix(ref, "/") {
		full = filepath.Join(env.AssetsDir, filepath.FromSlash(ref))
	} else {
		full = filepath.Join(env.SourceDir, filepath.FromSlash(ref))
	}
	if _, err := os.Stat(full); err != nil {
		return "", false
	}
	return full, true
}

// rewriteURLs calls fn for every url() reference; fn returns the replacement target or "" to keep it.
func rewriteURLs(src []byte, fn func(ref string) (string, error)) ([]byte, error) {
	var firstErr error
	out := urlRef.ReplaceAllFunc(src, func(m []byte) []byte {
		if firstErr != nil {
			return m
		}
		sub := urlRef.FindSubmatch(m)
		repl, err := fn(string(sub[2]))
		if err != nil {
			firstErr = err
			return m
		}
		if repl == "" {
			return m
		}
		return []byte(`url("` + repl + `")`)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// InlineAssets embeds url() references matching the inline filter as base64 data URIs.
// SVG files are minified before embedding.
func InlineAssets(_ context.Context, env *Env, src []byte) ([]byte, error) {
	if env.InlineFilter == "" {
		return src, nil
	}
	m := minify.New()
	m.AddFunc("image/svg+xml", svg.Minify)

	return rewriteURLs(src, func(ref string) (string, error) {
		full, ok := localRef(env, ref)
		if !ok {
			return "", nil
		}
		rel, ok := structure.Rel(env.AssetsDir, full)
		if !ok {
			return "", nil
		}
		if match, _ := doublestar.Match(env.InlineFilter, rel); !match {
			return "", nil
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return "", err
		}
		mediaType := mime.TypeByExtension(strings.ToLower(path.Ext(rel)))
		if mediaType == "" {
			mediaType = "application/octet-stream"
		}
		if i := strings.IndexByte(mediaType, ';'); i >= 0 {
			mediaType = mediaType[:i]
		}
		if mediaType == "image/svg+xml" {
			var buf bytes.Buffer
			if err := m.Minify(mediaType, &buf, bytes.NewReader(data)); err != nil {
				return "", err
			}
			data = buf.Bytes()
		}
		return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
	})
}

// Cachebust appends ?v=<content hash> to local url() references that were not inlined.
func Cachebust(_ context.Context, env *Env, src []byte) ([]byte, error) {
	return rewriteURLs(src, func(ref string) (string, error) {
		full, ok := localRef(env, ref)
		if !ok {
			return "", nil
		}
		sum, err := state.HashFile(full)
		if err != nil {
			return "", err
		}
		if len(sum) > 8 {
			sum = sum[:8]
		}
		base := strings.TrimSpace(ref)
		if i := strings.IndexByte(base, '#'); i >= 0 {
			base = base[:i]
		}
		sep := "?"
		if strings.Contains(base, "?") {
			sep = "&"
		}
		return base + sep + "v=" + sum, nil
	})
}
