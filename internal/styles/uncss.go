package styles

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagesmith/internal/fileset"
)

// pseudo-classes and pseudo-elements that depend on interaction or rendering
// and can never match a static document.
var dynamicPseudo = regexp.MustCompile(`::?(?:hover|focus|focus-within|focus-visible|active|visited|link|any-link|target|checked|disabled|enabled|invalid|valid|required|optional|read-only|read-write|indeterminate|placeholder-shown|autofill|before|after|first-line|first-letter|selection|placeholder|marker|backdrop|-[a-z][a-z-]*)(?:\([^)]*\))?`)

// Uncss removes rules whose selectors match no element in any built page.
func Uncss(ctx context.Context, env *Env, src []byte) ([]byte, error) {
	docs, err := loadDocuments(ctx, env)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		env.warn("uncss: no built HTML pages matched %v, stylesheet left untouched", env.HTML.Globs())
		return src, nil
	}

	sheet, err := parser.Parse(string(src))
	if err != nil {
		return nil, err
	}
	m := &selectorMatcher{docs: docs, cache: make(map[string]bool)}
	sheet.Rules = m.filterRules(sheet.Rules)
	return serialize(sheet.Rules), nil
}

func loadDocuments(ctx context.Context, env *Env) ([]*html.Node, error) {
	if env.HTML.Base == "" {
		return nil, nil
	}
	assets, err := fileset.Match(env.HTML)
	if err != nil {
		return nil, err
	}
	docs := make([]*html.Node, 0, len(assets))
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(a.Path)
		if err != nil {
			return nil, err
		}
		doc, err := html.Parse(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type selectorMatcher struct {
	docs  []*html.Node
	cache map[string]bool
}

func (m *selectorMatcher) filterRules(rules []*css.Rule) []*css.Rule {
	out := rules[:0]
	for _, r := range rules {
		switch {
		case r.Kind == css.QualifiedRule:
			r.Selectors = m.usedSelectors(r.Selectors)
			if len(r.Selectors) == 0 {
				continue
			}
			r.Prelude = strings.Join(r.Selectors, ", ")
		case isGroupingAtRule(r.Name):
			r.Rules = m.filterRules(r.Rules)
			if len(r.Rules) == 0 {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// isGroupingAtRule reports at-rules whose children are ordinary style rules.
// @keyframes, @font-face and friends are kept verbatim.
func isGroupingAtRule(name string) bool {
	switch strings.ToLower(name) {
	case "@media", "@supports", "@document", "@-moz-document", "@layer", "@container":
		return true
	}
	return false
}

func (m *selectorMatcher) usedSelectors(selectors []string) []string {
	var kept []string
	for _, sel := range selectors {
		if m.used(sel) {
			kept = append(kept, sel)
		}
	}
	return kept
}

func (m *selectorMatcher) used(selector string) bool {
	if v, ok := m.cache[selector]; ok {
		return v
	}
	v := m.match(selector)
	m.cache[selector] = v
	return v
}

func (m *selectorMatcher) match(selector string) bool {
	stripped := strings.TrimSpace(dynamicPseudo.ReplaceAllString(selector, ""))
	if stripped == "" || strings.HasSuffix(stripped, ">") || strings.HasSuffix(stripped, "+") || strings.HasSuffix(stripped, "~") {
		stripped += " *"
	}
	sel, err := cascadia.Parse(strings.TrimSpace(stripped))
	if err != nil {
		// selectors the matcher does not understand are kept
		return true
	}
	for _, doc := range m.docs {
		if cascadia.Query(doc, sel) != nil {
			return true
		}
	}
	return false
}
