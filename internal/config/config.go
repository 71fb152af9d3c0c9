package config

import (
	"fmt"
	"time"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1"

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "pagesmith.yaml"

// Config is the complete build configuration. Every field has a default (see Default).
type Config struct {
	Version    string          `yaml:"version"`
	Structure  StructureConfig `yaml:"structure"`
	Site       SiteConfig      `yaml:"site"`
	Pages      PagesConfig     `yaml:"pages"`
	Styles     StylesConfig    `yaml:"styles"`
	Scripts    ScriptsConfig   `yaml:"scripts"`
	Lint       LintConfig      `yaml:"lint"`
	Images     ImagesConfig    `yaml:"images"`
	Misc       MiscConfig      `yaml:"misc"`
	Sitemap    SitemapConfig   `yaml:"sitemap"`
	Permalinks PermalinkConfig `yaml:"permalinks"`
	Deploy     DeployConfig    `yaml:"deploy"`
	Critical   CriticalConfig  `yaml:"critical"`
	Server     ServerConfig    `yaml:"server"`
	Watch      WatchConfig     `yaml:"watch"`
	Reporter   ReporterConfig  `yaml:"reporter"`
	State      StateConfig     `yaml:"state"`
	Schedule   ScheduleConfig  `yaml:"schedule"`
}

// StructureConfig names the source and output folders. Globs are derived from these names.
type StructureConfig struct {
	Root   string `yaml:"root"`
	Build  string `yaml:"build"`
	Pages  string `yaml:"pages"`
	Assets string `yaml:"assets"`
	CSS    string `yaml:"css"`
	SCSS   string `yaml:"scss"`
	JS     string `yaml:"js"`
	Img    string `yaml:"img"`
	Misc   string `yaml:"misc"`
	Posts  string `yaml:"posts"`
}

// SiteConfig is the immutable render context shared by every template.
type SiteConfig struct {
	Site       map[string]any `yaml:"site"`
	Navigation []NavItem      `yaml:"navigation"`
}

// NavItem is one entry of the site navigation.
type NavItem struct {
	Label  string `yaml:"label"`
	Href   string `yaml:"href"`
	Weight int    `yaml:"weight"`
}

// PagesConfig controls HTML post-processing of rendered pages.
type PagesConfig struct {
	Minify HTMLMinifyConfig `yaml:"minify"`
	Pretty bool             `yaml:"pretty"`
}

// HTMLMinifyConfig mirrors the classic htmlmin switches.
type HTMLMinifyConfig struct {
	RemoveComments                bool `yaml:"remove_comments"`
	CollapseWhitespace            bool `yaml:"collapse_whitespace"`
	CollapseBooleanAttributes     bool `yaml:"collapse_boolean_attributes"`
	RemoveAttributeQuotes         bool `yaml:"remove_attribute_quotes"`
	RemoveRedundantAttributes     bool `yaml:"remove_redundant_attributes"`
	RemoveEmptyAttributes         bool `yaml:"remove_empty_attributes"`
	RemoveScriptTypeAttributes    bool `yaml:"remove_script_type_attributes"`
	RemoveStyleLinkTypeAttributes bool `yaml:"remove_style_link_type_attributes"`
	RemoveOptionalTags            bool `yaml:"remove_optional_tags"`
}

// Enabled reports whether any minification switch is on.
func (h HTMLMinifyConfig) Enabled() bool {
	return h.RemoveComments || h.CollapseWhitespace || h.CollapseBooleanAttributes ||
		h.RemoveAttributeQuotes || h.RemoveRedundantAttributes || h.RemoveEmptyAttributes ||
		h.RemoveScriptTypeAttributes || h.RemoveStyleLinkTypeAttributes || h.RemoveOptionalTags
}

// StylesConfig configures both stylesheet paths.
type StylesConfig struct {
	Targets        map[string]string `yaml:"targets"`
	SCSSChain      []string          `yaml:"scss_chain"`
	CSSChain       []string          `yaml:"css_chain"`
	Inline         string            `yaml:"inline"`
	Basename       string            `yaml:"basename"`
	Suffix         string            `yaml:"suffix"`
	Sourcemaps     bool              `yaml:"sourcemaps"`
	DartSassBinary string            `yaml:"dart_sass_binary,omitempty"`
}

// OutputName returns the stylesheet file name, e.g. app.min.css.
func (s StylesConfig) OutputName() string { return s.Basename + s.Suffix + ".css" }

// ScriptsConfig configures the script bundle.
type ScriptsConfig struct {
	Bundle     string   `yaml:"bundle"`
	Order      []string `yaml:"order"`
	Sourcemaps bool     `yaml:"sourcemaps"`
}

// LintConfig holds rule severities (0 off, 1 warn, 2 error).
type LintConfig struct {
	Rules map[string]int `yaml:"rules"`
}

// ImagesConfig maps a file name glob to its ordered list of variants.
type ImagesConfig struct {
	Variants map[string][]VariantConfig `yaml:"variants"`
}

// VariantConfig describes one derived image.
type VariantConfig struct {
	Width              int    `yaml:"width,omitempty"`
	Height             int    `yaml:"height,omitempty"`
	Suffix             string `yaml:"suffix"`
	Ext                string `yaml:"ext,omitempty"`
	Format             string `yaml:"format,omitempty"`
	WithoutEnlargement bool   `yaml:"without_enlargement,omitempty"`
	Quality            int    `yaml:"quality,omitempty"`
}

// MiscConfig holds the literals for generated meta files.
type MiscConfig struct {
	Robots RobotsConfig `yaml:"robots"`
	Humans HumansConfig `yaml:"humans"`
}

// RobotsConfig describes robots.txt.
type RobotsConfig struct {
	UserAgent string   `yaml:"useragent"`
	Allow     []string `yaml:"allow"`
	Disallow  []string `yaml:"disallow"`
	Sitemap   string   `yaml:"sitemap,omitempty"`
}

// HumansConfig describes humans.txt.
type HumansConfig struct {
	Team   []string `yaml:"team,omitempty"`
	Thanks []string `yaml:"thanks"`
	Site   []string `yaml:"site"`
	Note   string   `yaml:"note"`
}

// SitemapConfig configures sitemap.xml.
type SitemapConfig struct {
	SiteURL    string  `yaml:"site_url"`
	ChangeFreq string  `yaml:"changefreq,omitempty"`
	Priority   float32 `yaml:"priority,omitempty"`
}

// PermalinkConfig configures post output paths.
type PermalinkConfig struct {
	Pattern    string `yaml:"pattern"`
	DateFormat string `yaml:"date_format"`
}

// DeployConfig lists the push targets for the build tree.
type DeployConfig struct {
	Targets []DeployTarget `yaml:"targets"`
	Message string         `yaml:"message"`
	Author  AuthorConfig   `yaml:"author"`
	Retry   RetryConfig    `yaml:"retry"`
}

// DeployTarget is one repository and the branches it receives.
type DeployTarget struct {
	Repository string      `yaml:"repository"`
	Branches   []string    `yaml:"branches"`
	Auth       *AuthConfig `yaml:"auth,omitempty"`
}

// AuthorConfig is the commit identity for deploy commits.
type AuthorConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// CriticalConfig configures critical-path CSS extraction.
type CriticalConfig struct {
	Base       string      `yaml:"base"`
	Src        string      `yaml:"src"`
	Dest       string      `yaml:"dest"`
	Inline     bool        `yaml:"inline"`
	Minify     bool        `yaml:"minify"`
	Dimensions []Dimension `yaml:"dimensions"`
	Timeout    string      `yaml:"timeout"`
}

// Dimension is a viewport size.
type Dimension struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// TimeoutDuration returns the parsed timeout.
func (c CriticalConfig) TimeoutDuration() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// ServerConfig configures the development server.
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	LiveReload bool   `yaml:"live_reload"`
	Metrics    bool   `yaml:"metrics"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// WatchConfig maps source globs to the tasks they trigger.
type WatchConfig struct {
	Debounce string      `yaml:"debounce"`
	Rules    []WatchRule `yaml:"rules"`
}

// DebounceDuration returns the parsed quiet window.
func (w WatchConfig) DebounceDuration() time.Duration {
	return parseDuration(w.Debounce, 300*time.Millisecond)
}

// WatchRule triggers Tasks when a file matching one of its sources changes.
// Sources name structure categories (scss, pages, layouts, ...); Globs add raw patterns.
type WatchRule struct {
	Name    string   `yaml:"name"`
	Sources []string `yaml:"sources,omitempty"`
	Globs   []string `yaml:"globs,omitempty"`
	Tasks   []string `yaml:"tasks"`
}

// ReporterConfig configures console error reporting.
type ReporterConfig struct {
	Beep  bool `yaml:"beep"`
	Color bool `yaml:"color"`
}

// StateConfig configures the incremental build ledger.
type StateConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ScheduleConfig configures the daemon.
type ScheduleConfig struct {
	Interval string `yaml:"interval"`
	Deploy   bool   `yaml:"deploy"`
}

// IntervalDuration returns the parsed daemon interval.
func (s ScheduleConfig) IntervalDuration() time.Duration { return parseDuration(s.Interval, time.Hour) }

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
