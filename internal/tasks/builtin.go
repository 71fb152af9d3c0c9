package tasks

import "git.home.luguber.info/inful/pagesmith/internal/structure"

// Task names.
const (
	Index      = "index"
	Pages      = "pages"
	SCSS       = "scss"
	CSS        = "css"
	JS         = "js"
	Lint       = "lint"
	Img        = "img"
	Misc       = "misc"
	Clean      = "clean"
	Sitemap    = "sitemap"
	Permalinks = "permalinks"
	Deploy     = "deploy"
	Critical   = "critical"

	// Default is the composite run by `pagesmith build`.
	Default = "default"
)

// DefaultMembers are the tasks of the default build.
var DefaultMembers = []string{Pages, Index, JS, Img, Misc, Sitemap, SCSS}

// Builtins returns every built-in task in declaration order.
func Builtins() []Task {
	return []Task{
		Func{Index, Spec{
			Description: "render the home page to the build root",
			Consumes:    []Resource{ResClean},
			Produces:    []Resource{ResHTML},
			Watch:       []structure.Category{structure.Index, structure.Layouts},
		}, runIndex},
		Func{Pages, Spec{
			Description: "render every other page to <stem>/index.html",
			Consumes:    []Resource{ResClean},
			Produces:    []Resource{ResHTML},
			Watch:       []structure.Category{structure.Pages, structure.Layouts},
		}, runPages},
		Func{SCSS, Spec{
			Description: "compile Sass and run the scss transform chain",
			Consumes:    []Resource{ResClean, ResHTML},
			Produces:    []Resource{ResCSS},
			Watch:       []structure.Category{structure.SCSS},
		}, runSCSS},
		Func{CSS, Spec{
			Description: "run plain stylesheets through the css transform chain",
			Consumes:    []Resource{ResClean, ResHTML},
			Produces:    []Resource{ResCSS},
			Watch:       []structure.Category{structure.CSS},
		}, runCSS},
		Func{JS, Spec{
			Description: "bundle and minify scripts in manifest order",
			Consumes:    []Resource{ResClean},
			Produces:    []Resource{ResJS},
			Watch:       []structure.Category{structure.JS},
		}, runJS},
		Func{Lint, Spec{
			Description: "lint scripts",
			Produces:    []Resource{ResLint},
			Watch:       []structure.Category{structure.JS},
		}, runLint},
		Func{Img, Spec{
			Description: "write responsive image variants",
			Consumes:    []Resource{ResClean},
			Produces:    []Resource{ResImages},
			Watch:       []structure.Category{structure.Img},
		}, runImg},
		Func{Misc, Spec{
			Description: "copy misc files and write robots.txt and humans.txt",
			Consumes:    []Resource{ResClean},
			Produces:    []Resource{ResMisc},
			Watch:       []structure.Category{structure.Misc},
		}, runMisc},
		Func{Clean, Spec{
			Description: "empty the build folder except .git",
			Produces:    []Resource{ResClean},
		}, runClean},
		Func{Sitemap, Spec{
			Description: "write sitemap.xml for the built pages",
			Consumes:    []Resource{ResClean, ResHTML, ResCritical},
			Produces:    []Resource{ResSitemap},
		}, runSitemap},
		Func{Permalinks, Spec{
			Description: "copy posts to their permalink paths",
			Consumes:    []Resource{ResClean},
			Produces:    []Resource{ResPosts},
			Watch:       []structure.Category{structure.Posts},
		}, runPermalinks},
		Func{Critical, Spec{
			Description: "extract and inline critical-path css",
			Consumes:    []Resource{ResHTML, ResCSS},
			Produces:    []Resource{ResCritical},
		}, runCritical},
		Func{Deploy, Spec{
			Description: "push the build folder to every deploy target",
			Consumes: []Resource{
				ResHTML, ResCSS, ResJS, ResImages, ResMisc,
				ResSitemap, ResPosts, ResCritical,
			},
			Produces: []Resource{ResDeploy},
		}, runDeploy},
	}
}

// NewDefaultRegistry registers the built-in tasks and the default composite.
func NewDefaultRegistry() (*Registry, error) {
	r, err := NewRegistry(Builtins()...)
	if err != nil {
		return nil, err
	}
	if err := r.Composite(Default, DefaultMembers...); err != nil {
		return nil, err
	}
	return r, nil
}
