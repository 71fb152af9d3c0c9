package styles

import (
	"bytes"
	"context"
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
)

// SortDeclarations orders the declarations of every style rule by property name.
// Vendor-prefixed properties sort next to their unprefixed form. Declarations
// of one shorthand family (padding and padding-left, font and line-height)
// keep their relative order, so a later shorthand still overrides its longhands.
func SortDeclarations(_ context.Context, _ *Env, src []byte) ([]byte, error) {
	sheet, err := parser.Parse(string(src))
	if err != nil {
		return nil, err
	}
	sortRules(sheet.Rules)
	return serialize(sheet.Rules), nil
}

func sortRules(rules []*css.Rule) {
	for _, r := range rules {
		if r.Kind == css.QualifiedRule {
			r.Declarations = sortDeclarations(r.Declarations)
		}
		sortRules(r.Rules)
	}
}

// sortDeclarations is an insertion sort that never moves a declaration past
// another one it interacts with in the cascade.
func sortDeclarations(decls []*css.Declaration) []*css.Declaration {
	out := make([]*css.Declaration, 0, len(decls))
	for _, d := range decls {
		key := sortKey(d.Property)
		pos := len(out)
		for pos > 0 {
			prev := out[pos-1]
			if interacts(prev.Property, d.Property) || sortKey(prev.Property) <= key {
				break
			}
			pos--
		}
		out = append(out, nil)
		copy(out[pos+1:], out[pos:])
		out[pos] = d
	}
	return out
}

// sortKey drops a vendor prefix (-webkit-, -moz-, ...) so prefixed and
// unprefixed declarations stay adjacent; the prefixed form sorts first.
func sortKey(prop string) string {
	if bare := unprefixed(prop); bare != prop {
		return bare + "\x00"
	}
	return prop + "\x01"
}

func unprefixed(prop string) string {
	prop = strings.ToLower(prop)
	if len(prop) > 1 && prop[0] == '-' && prop[1] != '-' {
		if i := strings.IndexByte(prop[1:], '-'); i >= 0 {
			return prop[i+2:]
		}
	}
	return prop
}

// familyOf groups longhands whose shorthand does not share their prefix.
var familyOf = map[string]string{
	"top":             "inset",
	"right":           "inset",
	"bottom":          "inset",
	"left":            "inset",
	"row-gap":         "gap",
	"column-gap":      "gap",
	"grid-gap":        "gap",
	"grid-row-gap":    "gap",
	"grid-column-gap": "gap",
	"columns":         "column",
	"line-height":     "font",
	"align-content":   "place",
	"align-items":     "place",
	"align-self":      "place",
	"justify-content": "place",
	"justify-items":   "place",
	"justify-self":    "place",
}

// family returns the shorthand family of a property: padding-left and
// -webkit-padding-start belong to padding, border-top-width to border.
func family(prop string) string {
	if strings.HasPrefix(prop, "--") {
		return prop
	}
	bare := unprefixed(prop)
	if f, ok := familyOf[bare]; ok {
		return f
	}
	if i := strings.IndexByte(bare, '-'); i > 0 {
		return bare[:i]
	}
	return bare
}

func interacts(a, b string) bool {
	if strings.EqualFold(a, "all") || strings.EqualFold(b, "all") {
		return true
	}
	return family(a) == family(b)
}

// serialize writes rules back to CSS, dropping style rules left without declarations.
func serialize(rules []*css.Rule) []byte {
	var buf bytes.Buffer
	for _, r := range rules {
		if r.Kind == css.QualifiedRule && len(r.Declarations) == 0 {
			continue
		}
		buf.WriteString(r.String())
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
