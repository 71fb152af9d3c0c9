// Package images derives resized and cropped variants from source images.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/disintegration/imaging"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/state"
)

// DefaultQuality is the JPEG quality used when a variant sets none.
const DefaultQuality = 80

// Variant describes one derived image.
type Variant config.VariantConfig

// Name returns the output path for rel: <dir>/<stem><suffix><ext>.
func (v Variant) Name(rel string) string {
	dir, base := path.Split(rel)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if v.Ext != "" {
		ext = v.Ext
	}
	return dir + stem + v.Suffix + ext
}

// format resolves the encoder from Format, falling back to the output extension.
func (v Variant) format(out string) (imaging.Format, error) {
	if v.Format != "" {
		return imaging.FormatFromExtension(v.Format)
	}
	return imaging.FormatFromFilename(out)
}

// resize applies the variant geometry to src.
func (v Variant) resize(src image.Image) image.Image {
	if v.WithoutEnlargement && v.enlarges(src.Bounds().Size()) {
		return src
	}
	switch {
	case v.Width > 0 && v.Height > 0:
		return imaging.Fill(src, v.Width, v.Height, imaging.Center, imaging.Lanczos)
	case v.Width > 0:
		return imaging.Resize(src, v.Width, 0, imaging.Lanczos)
	case v.Height > 0:
		return imaging.Resize(src, 0, v.Height, imaging.Lanczos)
	default:
		return src
	}
}

// enlarges reports whether any requested dimension exceeds size.
func (v Variant) enlarges(size image.Point) bool {
	return (v.Width > 0 && size.X < v.Width) || (v.Height > 0 && size.Y < v.Height)
}

type rule struct {
	pattern  string
	variants []Variant
}

// Output is one written variant.
type Output struct {
	Path    string
	Rel     string
	Variant Variant
}

// Processor writes image variants below a destination folder.
type Processor struct {
	rules  []rule
	out    fileset.Writer
	ledger state.Ledger
	force  bool
}

// NewProcessor prepares the variant rules of cfg. A nil ledger disables incremental skips.
func NewProcessor(cfg config.ImagesConfig, destDir string, ledger state.Ledger, force bool) *Processor {
	patterns := make([]string, 0, len(cfg.Variants))
	for p := range cfg.Variants {
		patterns = append(patterns, p)
	}
	sort.Strings(patterns)

	p := &Processor{out: fileset.Writer{Root: destDir}, ledger: ledger, force: force}
	if p.ledger == nil {
		p.ledger = state.NoopLedger{}
	}
	for _, pattern := range patterns {
		vs := make([]Variant, len(cfg.Variants[pattern]))
		for i, vc := range cfg.Variants[pattern] {
			vs[i] = Variant(vc)
		}
		p.rules = append(p.rules, rule{pattern: pattern, variants: vs})
	}
	return p
}

// Variants returns every variant whose pattern matches rel. Patterns without a
// slash match the file name, others the relative path.
func (p *Processor) Variants(rel string) []Variant {
	var out []Variant
	for _, r := range p.rules {
		target := rel
		if !strings.Contains(r.pattern, "/") {
			target = path.Base(rel)
		}
		if ok, _ := doublestar.Match(r.pattern, target); ok {
			out = append(out, r.variants...)
		}
	}
	return out
}

// Build writes every variant of asset. skipped is true when the ledger shows
// the same source already produced outputs that still exist.
func (p *Processor) Build(ctx context.Context, asset fileset.Asset) (outs []Output, skipped bool, err error) {
	variants := p.Variants(asset.Rel)
	if len(variants) == 0 {
		return nil, false, nil
	}

	hash, err := state.HashFile(asset.Path, fmt.Sprintf("%+v", variants))
	if err != nil {
		return nil, false, err
	}
	if !p.force {
		fresh, ferr := p.ledger.Fresh(ctx, "img", asset.Rel, hash)
		if ferr != nil {
			return nil, false, ferr
		}
		if fresh {
			return nil, true, nil
		}
	}

	src, err := imaging.Open(asset.Path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", asset.Rel, err)
	}

	paths := make([]string, 0, len(variants))
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return outs, false, err
		}
		rel := v.Name(asset.Rel)
		format, err := v.format(rel)
		if err != nil {
			return outs, false, fmt.Errorf("variant %s: %w", rel, err)
		}
		quality := v.Quality
		if quality == 0 {
			quality = DefaultQuality
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, v.resize(src), format, imaging.JPEGQuality(quality)); err != nil {
			return outs, false, fmt.Errorf("encode %s: %w", rel, err)
		}
		full, err := p.out.Write(rel, buf.Bytes())
		if err != nil {
			return outs, false, err
		}
		outs = append(outs, Output{Path: full, Rel: rel, Variant: v})
		paths = append(paths, full)
	}

	if err := p.ledger.Record(ctx, "img", asset.Rel, hash, paths); err != nil {
		return outs, false, err
	}
	return outs, false, nil
}
