package render

import (
	"maps"
	"sort"

	"github.com/flosch/pongo2/v6"

	"git.home.luguber.info/inful/pagesmith/internal/config"
)

// reserved names cannot be shadowed by front matter at the top level.
var reserved = map[string]bool{"site": true, "navigation": true, "data": true, "page": true}

// Context is the immutable data every template sees. Build it once per run with
// NewContext and pass it to each Render call.
type Context struct {
	site       map[string]any
	navigation []map[string]any
}

// NewContext copies the site configuration into a render context.
// Navigation entries are ordered by weight.
func NewContext(cfg config.SiteConfig) Context {
	nav := make([]config.NavItem, len(cfg.Navigation))
	copy(nav, cfg.Navigation)
	sort.SliceStable(nav, func(i, j int) bool { return nav[i].Weight < nav[j].Weight })

	items := make([]map[string]any, len(nav))
	for i, n := range nav {
		items[i] = map[string]any{"label": n.Label, "href": n.Href, "weight": n.Weight}
	}
	return Context{site: deepCopy(cfg.Site), navigation: items}
}

// Site returns a copy of the site map.
func (c Context) Site() map[string]any { return deepCopy(c.site) }

// vars builds the template variables for page. Front matter is available as
// data.<key> and, unless it clashes with a reserved name, as <key>.
func (c Context) vars(page Page) pongo2.Context {
	vars := pongo2.Context{}
	for k, v := range page.Data {
		if !reserved[k] {
			vars[k] = v
		}
	}
	nav := make([]map[string]any, len(c.navigation))
	for i, item := range c.navigation {
		nav[i] = maps.Clone(item)
	}
	vars["site"] = deepCopy(c.site)
	vars["navigation"] = nav
	vars["data"] = deepCopy(page.Data)
	vars["page"] = map[string]any{
		"path": page.Rel,
		"stem": page.Stem,
		"url":  page.URL,
	}
	return vars
}

func deepCopy(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
