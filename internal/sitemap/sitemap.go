// Package sitemap writes sitemap.xml for the built HTML pages.
package sitemap

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/snabb/sitemap"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/fileset"
)

// FileName is the sitemap output name at the build root.
const FileName = "sitemap.xml"

// Loc maps a built page path to its public URL. index.html maps to its directory.
func Loc(siteURL, rel string) string {
	base := strings.TrimRight(siteURL, "/")
	rel = strings.TrimPrefix(rel, "/")
	switch {
	case rel == "index.html":
		rel = ""
	case strings.HasSuffix(rel, "/index.html"):
		rel = strings.TrimSuffix(rel, "index.html")
	}
	return base + "/" + rel
}

// Build renders the sitemap for pages: one <url> per distinct location, sorted.
// The most recent modification time wins when two files map to the same URL.
func Build(cfg config.SitemapConfig, pages []fileset.Asset) ([]byte, int, error) {
	latest := make(map[string]time.Time, len(pages))
	for _, p := range pages {
		loc := Loc(cfg.SiteURL, p.Rel)
		var mod time.Time
		if p.Info != nil {
			mod = p.Info.ModTime().UTC().Truncate(time.Second)
		}
		if cur, ok := latest[loc]; !ok || mod.After(cur) {
			latest[loc] = mod
		}
	}
	locs := make([]string, 0, len(latest))
	for loc := range latest {
		locs = append(locs, loc)
	}
	sort.Strings(locs)

	sm := sitemap.New()
	for _, loc := range locs {
		u := &sitemap.URL{
			Loc:        loc,
			ChangeFreq: sitemap.ChangeFreq(cfg.ChangeFreq),
			Priority:   cfg.Priority,
		}
		if mod := latest[loc]; !mod.IsZero() {
			u.LastMod = &mod
		}
		sm.Add(u)
	}
	var buf bytes.Buffer
	if _, err := sm.WriteTo(&buf); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), len(locs), nil
}
