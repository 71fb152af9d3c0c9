package config

// Default returns the configuration that reproduces the stock project layout.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Structure: StructureConfig{
			Root:   ".",
			Build:  "_gh_pages",
			Pages:  "_pages",
			Assets: "assets",
			CSS:    "css",
			SCSS:   "scss",
			JS:     "js",
			Img:    "img",
			Misc:   "misc",
			Posts:  "_posts",
		},
		Site: SiteConfig{
			Site: map[string]any{
				"google__analytics":      "<SITEKEYHERE>e.g.UA-XXXXX-J",
				"site__name":             "<SITE NAME HERE>",
				"set__lang":              "en",
				"title":                  "TITLE HERE",
				"longform__description":  "<LONG FORM DESCRIPTION HERE>",
				"shortform__description": "<SHORT FORM DESCRIPTION HERE>",
				"copyright":              "<COPYRIGHT HERE>",
				"og__image":              "<OPEN GRAPH IMAGE HERE>",
				"og__alt":                "<ALT IMAGE TAG HERE>",
				"og__url":                "<HOMEPAGE URL HERE> e.g. http://example.com",
				"base__url":              "",
			},
			Navigation: []NavItem{
				{Label: "home", Href: "/", Weight: 0},
				{Label: "about", Href: "/about", Weight: 1},
				{Label: "contact", Href: "/contact", Weight: 2},
				{Label: "play", Href: "/play", Weight: 3},
			},
		},
		Pages: PagesConfig{
			Minify: HTMLMinifyConfig{
				RemoveComments:                true,
				CollapseWhitespace:            true,
				CollapseBooleanAttributes:     true,
				RemoveAttributeQuotes:         true,
				RemoveRedundantAttributes:     true,
				RemoveEmptyAttributes:         true,
				RemoveScriptTypeAttributes:    true,
				RemoveStyleLinkTypeAttributes: true,
				RemoveOptionalTags:            true,
			},
			Pretty: true,
		},
		Styles: StylesConfig{
			// last 2 versions, Firefox > 20
			Targets: map[string]string{
				"chrome":  "120",
				"edge":    "120",
				"firefox": "21",
				"safari":  "16",
				"ios":     "16",
			},
			SCSSChain:  []string{"autoprefix", "uncss", "minify"},
			CSSChain:   []string{"inline_assets", "sort", "autoprefix", "uncss", "minify"},
			Inline:     "img/*.jpg",
			Basename:   "app",
			Suffix:     ".min",
			Sourcemaps: true,
		},
		Scripts: ScriptsConfig{
			Bundle:     "main.min.js",
			Sourcemaps: true,
		},
		Lint: LintConfig{
			Rules: map[string]int{
				"camelcase":    1,
				"comma-dangle": 2,
				"quotes":       0,
			},
		},
		Images: ImagesConfig{
			Variants: map[string][]VariantConfig{
				"*.{jpg,png}": {
					{Width: 1200, Height: 628, Suffix: "-banner", Ext: ".jpg", Format: "jpeg"},
					{Width: 100, Height: 100, Suffix: "-100px", Ext: ".jpg", Format: "jpeg"},
					{Width: 240, Height: 240, Suffix: "-240px", Ext: ".jpg", Format: "jpeg"},
					{Width: 320, Height: 320, Suffix: "-320px", Ext: ".jpg", Format: "jpeg"},
					{Width: 500, Suffix: "-500px", Ext: ".jpg", Format: "jpeg"},
					{Width: 640, Suffix: "-640px", Ext: ".jpg"},
					{Width: 800, Suffix: "-800px", Ext: ".jpg", Format: "jpeg"},
					{Width: 1600, Suffix: "-1600px", Ext: ".jpg", Format: "jpeg"},
					{Width: 2048, Suffix: "-2048px", Ext: ".jpg", WithoutEnlargement: true},
				},
			},
		},
		Misc: MiscConfig{
			Robots: RobotsConfig{
				UserAgent: "*",
				Allow:     []string{"folder1/", "folder2/"},
				Disallow:  []string{"cgi-bin/"},
			},
			Humans: HumansConfig{
				Thanks: []string{
					"Node (@nodejs on Twitter)",
					"Gulp (@gulpjs on Twitter)",
				},
				Site: []string{
					"Standards: HTML5, CSS3",
					"Components: jQuery, Normalize.css",
					"Software: Atom",
				},
				Note: "Built with love by ...",
			},
		},
		Sitemap: SitemapConfig{
			SiteURL: "https://www.your_url_here.co",
		},
		Permalinks: PermalinkConfig{
			Pattern:    "blog/:date/:upper.md",
			DateFormat: "2006/01/02",
		},
		Deploy: DeployConfig{
			Targets: []DeployTarget{
				{Repository: "https://username@github.com/username/my-repo.git", Branches: []string{"gh-pages"}},
				{Repository: "https://username@github.com/username/my-repo.git", Branches: []string{"master"}},
			},
			Message: "Deploy site",
			Author:  AuthorConfig{Name: "pagesmith", Email: "pagesmith@localhost"},
			Retry:   RetryConfig{MaxRetries: 0, Backoff: RetryBackoffExponential, Initial: "1s", Max: "30s"},
		},
		Critical: CriticalConfig{
			Base:   "_gh_pages",
			Src:    "index.html",
			Dest:   "index-critical.html",
			Inline: true,
			Minify: true,
			Dimensions: []Dimension{
				{Width: 320, Height: 480},
				{Width: 1300, Height: 900},
			},
			Timeout: "30s",
		},
		Server: ServerConfig{
			Host:       "localhost",
			Port:       3000,
			LiveReload: true,
			Metrics:    true,
		},
		Watch: WatchConfig{
			Debounce: "300ms",
			Rules: []WatchRule{
				{Name: "scss", Sources: []string{"scss"}, Tasks: []string{"scss"}},
				{Name: "css", Sources: []string{"css"}, Tasks: []string{"css"}},
				{Name: "js", Sources: []string{"js"}, Tasks: []string{"js"}},
				{Name: "img", Sources: []string{"img"}, Tasks: []string{"img"}},
				{Name: "index", Sources: []string{"index"}, Tasks: []string{"index"}},
				{Name: "pages", Sources: []string{"pages"}, Tasks: []string{"pages"}},
				{Name: "layouts", Sources: []string{"layouts"}, Tasks: []string{"pages", "index"}},
				{Name: "misc", Sources: []string{"misc"}, Tasks: []string{"misc"}},
				{Name: "posts", Sources: []string{"posts"}, Tasks: []string{"permalinks"}},
			},
		},
		Reporter: ReporterConfig{Beep: true, Color: true},
		State:    StateConfig{Enabled: true, Path: ".pagesmith/state.db"},
		Schedule: ScheduleConfig{Interval: "1h"},
	}
}
