// Package fileset enumerates source files and writes outputs below a fixed root.
package fileset

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/pagesmith/internal/structure"
)

// Asset is one matched source file.
type Asset struct {
	Path string // filesystem path
	Rel  string // slash path relative to the pattern base
	Info fs.FileInfo
}

// Stem returns the file name without its extension.
func (a Asset) Stem() string {
	base := path.Base(a.Rel)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Match returns the files selected by p in lexical order of their relative paths.
// Hidden files and folders are skipped. A missing base yields no assets.
func Match(p structure.Pattern) ([]Asset, error) {
	if _, err := os.Stat(p.Base); os.IsNotExist(err) {
		return nil, nil
	}
	fsys := os.DirFS(p.Base)
	seen := make(map[string]bool)
	var rels []string
	for _, inc := range p.Include {
		matches, err := doublestar.Glob(fsys, inc, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", inc, err)
		}
		for _, m := range matches {
			if seen[m] || hidden(m) || !p.MatchRel(m) {
				continue
			}
			seen[m] = true
			rels = append(rels, m)
		}
	}
	slices.Sort(rels)

	assets := make([]Asset, 0, len(rels))
	for _, rel := range rels {
		full := filepath.Join(p.Base, filepath.FromSlash(rel))
		info, err := os.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", full, err)
		}
		assets = append(assets, Asset{Path: full, Rel: rel, Info: info})
	}
	return assets, nil
}

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// Writer writes files below Root and refuses paths that would escape it.
type Writer struct {
	Root string
}

// Path resolves rel below Root.
func (w Writer) Path(rel string) (string, error) {
	full := filepath.Join(w.Root, filepath.FromSlash(rel))
	if !structure.Contains(w.Root, full) || full == filepath.Clean(w.Root) {
		return "", fmt.Errorf("refusing to write outside %s: %s", w.Root, rel)
	}
	return full, nil
}

// Write stores data at rel, creating parent folders.
func (w Writer) Write(rel string, data []byte) (string, error) {
	full, err := w.Path(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil { //nolint:gosec // published site content
		return "", err
	}
	return full, nil
}

// Copy copies src to rel below Root, preserving the modification time.
func (w Writer) Copy(src, rel string) (string, error) {
	full, err := w.Path(rel)
	if err != nil {
		return "", err
	}
	if err := Copy(src, full); err != nil {
		return "", err
	}
	return full, nil
}

// Copy copies a single file, creating parent folders of dst.
func Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644) //nolint:gosec // published site content
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// CleanURL maps a page file to its pretty-URL location: about.html -> about/index.html.
// index.html files and non-HTML files are returned unchanged.
func CleanURL(rel string) string {
	rel = path.Clean(filepath.ToSlash(rel))
	if path.Ext(rel) != ".html" || path.Base(rel) == "index.html" {
		return rel
	}
	stem := strings.TrimSuffix(rel, ".html")
	return stem + "/index.html"
}
