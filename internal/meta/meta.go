// Package meta copies miscellaneous root files and generates robots.txt and humans.txt.
package meta

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/fileset"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

const (
	RobotsFile = "robots.txt"
	HumansFile = "humans.txt"
)

// Robots renders robots.txt.
func Robots(cfg config.RobotsConfig) []byte {
	var b strings.Builder
	ua := cfg.UserAgent
	if ua == "" {
		ua = "*"
	}
	b.WriteString("User-agent: " + ua + "\n")
	for _, a := range cfg.Allow {
		b.WriteString("Allow: " + a + "\n")
	}
	for _, d := range cfg.Disallow {
		b.WriteString("Disallow: " + d + "\n")
	}
	if cfg.Sitemap != "" {
		b.WriteString("\nSitemap: " + cfg.Sitemap + "\n")
	}
	return []byte(b.String())
}

// Humans renders humans.txt. Empty sections are omitted.
func Humans(cfg config.HumansConfig) []byte {
	var b strings.Builder
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("/* " + title + " */\n")
		for _, l := range lines {
			b.WriteString("\t" + l + "\n")
		}
	}
	section("TEAM", cfg.Team)
	section("THANKS", cfg.Thanks)
	section("SITE", cfg.Site)
	if cfg.Note != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(cfg.Note + "\n")
	}
	return []byte(b.String())
}

// Result lists the written files.
type Result struct {
	Copied    []string
	Generated []string
}

// Build copies assets unchanged into w, then writes the generated files.
// Copy failures are collected per file; generated files are written regardless.
func Build(ctx context.Context, assets []fileset.Asset, w fileset.Writer, cfg config.MiscConfig) (Result, error) {
	var res Result
	fe := errors.NewFileErrors("misc", errors.CategoryFileSystem)
	for _, a := range assets {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if a.Rel == RobotsFile || a.Rel == HumansFile {
			continue
		}
		full, err := w.Copy(a.Path, a.Rel)
		if err != nil {
			fe.Add(a.Path, err)
			continue
		}
		res.Copied = append(res.Copied, full)
	}

	for _, gen := range []struct {
		name string
		data []byte
	}{
		{RobotsFile, Robots(cfg.Robots)},
		{HumansFile, Humans(cfg.Humans)},
	} {
		full, err := w.Write(gen.name, gen.data)
		if err != nil {
			fe.Add(gen.name, err)
			continue
		}
		res.Generated = append(res.Generated, full)
	}
	return res, fe.Err()
}
