package config

import (
	stderrors "errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// KnownTransforms lists the stylesheet transform names a chain may reference.
var KnownTransforms = []string{"autoprefix", "uncss", "inline_assets", "cachebust", "sort", "minify"}

// KnownSources lists the structure categories a watch rule may reference.
var KnownSources = []string{"index", "pages", "layouts", "css", "scss", "js", "img", "misc", "posts", "root"}

// Validate checks the configuration for values no task could work with.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	s := c.Structure
	for name, v := range map[string]string{
		"build": s.Build, "pages": s.Pages, "assets": s.Assets, "css": s.CSS, "scss": s.SCSS,
		"js": s.JS, "img": s.Img, "misc": s.Misc, "posts": s.Posts,
	} {
		if strings.TrimSpace(v) == "" {
			add("structure.%s must not be empty", name)
		}
		if strings.Contains(v, "..") {
			add("structure.%s must not contain '..'", name)
		}
	}

	for _, chain := range [][]string{c.Styles.SCSSChain, c.Styles.CSSChain} {
		for _, t := range chain {
			if !slices.Contains(KnownTransforms, t) {
				add("styles: unknown transform %q", t)
			}
		}
	}
	if c.Styles.Basename == "" {
		add("styles.basename must not be empty")
	}
	if c.Scripts.Bundle == "" {
		add("scripts.bundle must not be empty")
	}

	for rule, sev := range c.Lint.Rules {
		if sev < 0 || sev > 2 {
			add("lint.rules.%s: severity must be 0, 1 or 2", rule)
		}
	}

	for pattern, variants := range c.Images.Variants {
		if !doublestar.ValidatePattern(pattern) {
			add("images.variants[%q]: invalid pattern", pattern)
		}
		seen := make(map[string]bool)
		for i, v := range variants {
			if v.Width <= 0 && v.Height <= 0 {
				add("images.variants[%q][%d]: width or height must be positive", pattern, i)
			}
			if v.Width < 0 || v.Height < 0 {
				add("images.variants[%q][%d]: dimensions must not be negative", pattern, i)
			}
			if v.Quality < 0 || v.Quality > 100 {
				add("images.variants[%q][%d]: quality must be between 0 and 100", pattern, i)
			}
			key := v.Suffix + "|" + v.Ext
			if seen[key] {
				add("images.variants[%q]: duplicate suffix %q ext %q", pattern, v.Suffix, v.Ext)
			}
			seen[key] = true
		}
	}

	if c.Permalinks.Pattern == "" {
		add("permalinks.pattern must not be empty")
	}

	for i, t := range c.Deploy.Targets {
		if t.Repository == "" {
			add("deploy.targets[%d]: repository is required", i)
		}
		if len(t.Branches) == 0 {
			add("deploy.targets[%d]: at least one branch is required", i)
		}
	}
	if c.Deploy.Retry.MaxRetries < 0 {
		add("deploy.retry.max_retries must not be negative")
	}
	if c.Deploy.Retry.Backoff != "" && NormalizeRetryBackoff(string(c.Deploy.Retry.Backoff)) == "" {
		add("deploy.retry.backoff: unknown mode %q", c.Deploy.Retry.Backoff)
	}

	if err := checkDuration("critical.timeout", c.Critical.Timeout); err != nil {
		errs = append(errs, err)
	}
	for i, d := range c.Critical.Dimensions {
		if d.Width <= 0 || d.Height <= 0 {
			add("critical.dimensions[%d]: width and height must be positive", i)
		}
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		add("server.port out of range: %d", c.Server.Port)
	}
	if err := checkDuration("watch.debounce", c.Watch.Debounce); err != nil {
		errs = append(errs, err)
	}
	for i, r := range c.Watch.Rules {
		if len(r.Tasks) == 0 {
			add("watch.rules[%d] (%s): no tasks", i, r.Name)
		}
		if len(r.Sources) == 0 && len(r.Globs) == 0 {
			add("watch.rules[%d] (%s): no sources or globs", i, r.Name)
		}
		for _, src := range r.Sources {
			if !slices.Contains(KnownSources, src) {
				add("watch.rules[%d] (%s): unknown source %q", i, r.Name, src)
			}
		}
	}
	if err := checkDuration("schedule.interval", c.Schedule.Interval); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return errors.WrapError(stderrors.Join(errs...), errors.CategoryConfig, "invalid configuration").Build()
	}
	return nil
}

func checkDuration(field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive", field)
	}
	return nil
}
