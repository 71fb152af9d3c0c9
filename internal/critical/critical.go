// Package critical extracts the CSS needed to render the first viewport of a
// built page and inlines it into the page head.
package critical

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	perrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
)

// Extractor returns the CSS rules that style visible content of the page at url
// for one viewport.
type Extractor interface {
	Extract(ctx context.Context, url string, dim config.Dimension) ([]string, error)
}

// Result is the generated output.
type Result struct {
	Dest  string
	CSS   []byte
	Rules int
}

// Generate serves base on a loopback listener, collects the above-the-fold
// rules for every dimension and writes either the page with an inlined
// <style> or the CSS itself to dest. The run is bounded by cfg's timeout.
func Generate(ctx context.Context, cfg config.CriticalConfig, base string, ex Extractor) (Result, error) {
	var res Result
	ctx, cancel := context.WithTimeout(ctx, cfg.TimeoutDuration())
	defer cancel()

	srcPath := filepath.Join(base, filepath.FromSlash(cfg.Src))
	page, err := os.ReadFile(srcPath)
	if err != nil {
		return res, perrors.NotFoundError("critical source page not found").WithCause(err).WithContext("path", srcPath).Build()
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return res, perrors.RuntimeError("listen on loopback").WithCause(err).Build()
	}
	srv := &http.Server{Handler: http.FileServer(http.Dir(base)), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if serr := srv.Serve(ln); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			slog.Warn("Critical page server stopped", logfields.Error(serr))
		}
	}()
	defer func() {
		shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
		defer c()
		_ = srv.Shutdown(shutdownCtx)
	}()

	url := "http://" + ln.Addr().String() + "/" + path.Clean(strings.TrimPrefix(cfg.Src, "/"))
	var sets [][]string
	for _, dim := range cfg.Dimensions {
		rules, err := ex.Extract(ctx, url, dim)
		if err != nil {
			if ctx.Err() != nil {
				return res, perrors.RuntimeError("critical css timed out").WithCause(err).WithContext("timeout", cfg.Timeout).Build()
			}
			return res, perrors.StyleError(fmt.Sprintf("extract critical css at %dx%d", dim.Width, dim.Height)).WithCause(err).Build()
		}
		slog.Debug("Collected critical rules", logfields.URL(url), logfields.Count(len(rules)),
			slog.Int("width", dim.Width), slog.Int("height", dim.Height))
		sets = append(sets, rules)
	}
	rules := Union(sets...)
	res.Rules = len(rules)

	css, err := finish(strings.Join(rules, "\n"), cfg.Minify)
	if err != nil {
		return res, err
	}
	res.CSS = css

	out := css
	if cfg.Inline {
		if out, err = Inline(page, css); err != nil {
			return res, perrors.RenderError("inline critical css").WithCause(err).Build()
		}
	}
	res.Dest = filepath.Join(base, filepath.FromSlash(cfg.Dest))
	if err := os.MkdirAll(filepath.Dir(res.Dest), 0o750); err != nil {
		return res, err
	}
	if err := os.WriteFile(res.Dest, out, 0o644); err != nil { //nolint:gosec // published site content
		return res, perrors.FileSystemError("write critical output").WithCause(err).Build()
	}
	return res, nil
}

// Union concatenates rule sets, keeping the first occurrence of each rule.
func Union(sets ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, set := range sets {
		for _, r := range set {
			r = strings.TrimSpace(r)
			if r == "" || seen[r] {
				continue
			}
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

func finish(css string, minify bool) ([]byte, error) {
	result := api.Transform(css, api.TransformOptions{
		Loader:           api.LoaderCSS,
		MinifyWhitespace: minify,
		MinifySyntax:     minify,
		LogLevel:         api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return nil, perrors.StyleError("critical css is invalid").WithContext("message", result.Errors[0].Text).Build()
	}
	return result.Code, nil
}

// Inline appends a <style> element holding css to the head of page.
func Inline(page, css []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	head := find(doc, atom.Head)
	if head == nil {
		return nil, errors.New("page has no <head>")
	}
	style := &html.Node{Type: html.ElementNode, Data: "style", DataAtom: atom.Style}
	style.AppendChild(&html.Node{Type: html.TextNode, Data: string(bytes.TrimSpace(css))})
	head.AppendChild(style)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func find(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}
