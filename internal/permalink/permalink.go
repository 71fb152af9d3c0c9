// Package permalink expands output path patterns for posts.
package permalink

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

var placeholder = regexp.MustCompile(`:([A-Za-z]+)`)

// Helpers lists the placeholders a pattern may use.
var Helpers = []string{"date", "day", "month", "slug", "stem", "upper", "year"}

// Expander resolves a pattern for one build. The date helpers use the build time.
type Expander struct {
	pattern    string
	dateFormat string
	now        time.Time
	upper      cases.Caser
}

// New validates cfg.Pattern and fixes the build time.
func New(cfg config.PermalinkConfig, now time.Time) (*Expander, error) {
	if strings.TrimSpace(cfg.Pattern) == "" {
		return nil, errors.ValidationError("permalink pattern is empty").Build()
	}
	for _, m := range placeholder.FindAllStringSubmatch(cfg.Pattern, -1) {
		if !known(m[1]) {
			return nil, errors.ValidationError(fmt.Sprintf("unknown permalink helper :%s", m[1])).
				WithContext("pattern", cfg.Pattern).
				WithContext("available", Helpers).
				Build()
		}
	}
	format := cfg.DateFormat
	if format == "" {
		format = "2006/01/02"
	}
	return &Expander{
		pattern:    cfg.Pattern,
		dateFormat: format,
		now:        now,
		upper:      cases.Upper(language.Und),
	}, nil
}

func known(name string) bool {
	for _, h := range Helpers {
		if h == name {
			return true
		}
	}
	return false
}

// Expand returns the output path for the post at rel.
func (e *Expander) Expand(rel string) (string, error) {
	base := path.Base(rel)
	stem := strings.TrimSuffix(base, path.Ext(base))
	out := placeholder.ReplaceAllStringFunc(e.pattern, func(tok string) string {
		switch tok[1:] {
		case "date":
			return e.now.Format(e.dateFormat)
		case "year":
			return e.now.Format("2006")
		case "month":
			return e.now.Format("01")
		case "day":
			return e.now.Format("02")
		case "stem":
			return stem
		case "upper":
			return e.upper.String(stem)
		case "slug":
			return Slug(stem)
		}
		return tok
	})
	out = path.Clean(strings.TrimPrefix(out, "/"))
	if out == "." || out == ".." || strings.HasPrefix(out, "../") {
		return "", fmt.Errorf("permalink for %s escapes the build directory: %s", rel, out)
	}
	return out, nil
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// Slug lowercases s, folds accents and joins word runs with dashes.
func Slug(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFKD, stripMarks, norm.NFC), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}
