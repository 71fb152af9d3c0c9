package render

import (
	"bytes"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"github.com/yosssi/gohtml"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

// Minify applies the HTML minifier configured by opts. Boolean attribute
// collapsing, empty attribute removal and script/style type removal are always
// performed by the minifier once any switch is on.
func Minify(src []byte, opts config.HTMLMinifyConfig) ([]byte, error) {
	if !opts.Enabled() {
		return src, nil
	}
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepComments:        !opts.RemoveComments,
		KeepWhitespace:      !opts.CollapseWhitespace,
		KeepQuotes:          !opts.RemoveAttributeQuotes,
		KeepDefaultAttrVals: !opts.RemoveRedundantAttributes,
		KeepEndTags:         !opts.RemoveOptionalTags,
		KeepDocumentTags:    !opts.RemoveOptionalTags,
	})
	var out bytes.Buffer
	if err := m.Minify("text/html", &out, bytes.NewReader(src)); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Prettify re-indents HTML for readable output.
func Prettify(src []byte) []byte {
	return gohtml.FormatBytes(src)
}

// Process runs the configured post-processing (minify, then prettify).
func Process(src []byte, cfg config.PagesConfig) ([]byte, error) {
	out, err := Minify(src, cfg.Minify)
	if err != nil {
		return nil, err
	}
	if cfg.Pretty {
		out = Prettify(out)
	}
	return out, nil
}
