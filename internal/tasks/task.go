// Package tasks defines the named build tasks and runs them in dependency order.
//
// Every task declares the resources it consumes and produces. Planning derives
// a DAG from those declarations and groups it into levels; tasks of one level
// run concurrently, levels run in order.
package tasks

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/critical"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/render"
	"git.home.luguber.info/inful/pagesmith/internal/reporter"
	"git.home.luguber.info/inful/pagesmith/internal/state"
	"git.home.luguber.info/inful/pagesmith/internal/structure"
	"git.home.luguber.info/inful/pagesmith/internal/styles"
)

// Resource names an output class tasks exchange through the build folder.
type Resource string

const (
	ResClean    Resource = "clean"
	ResHTML     Resource = "html"
	ResCSS      Resource = "css"
	ResJS       Resource = "js"
	ResImages   Resource = "img"
	ResMisc     Resource = "misc"
	ResSitemap  Resource = "sitemap"
	ResPosts    Resource = "posts"
	ResCritical Resource = "critical"
	ResLint     Resource = "lint"
	ResDeploy   Resource = "deploy"
)

// Spec declares how a task relates to others.
type Spec struct {
	Description string
	Consumes    []Resource
	Produces    []Resource
	// Watch lists the source categories whose changes make the task stale.
	Watch []structure.Category
}

// Task is a named unit of work.
type Task interface {
	Name() string
	Spec() Spec
	Run(ctx context.Context, env *Env) error
}

// Func adapts a function into a Task.
type Func struct {
	TaskName string
	TaskSpec Spec
	Fn       func(ctx context.Context, env *Env) error
}

func (f Func) Name() string                            { return f.TaskName }
func (f Func) Spec() Spec                              { return f.TaskSpec }
func (f Func) Run(ctx context.Context, env *Env) error { return f.Fn(ctx, env) }

// Env carries what tasks share during a run. Fields are read-only once a run starts.
type Env struct {
	Config   *config.Config
	Paths    *structure.Registry
	Render   render.Context
	Reporter *reporter.Reporter
	Recorder metrics.Recorder
	Ledger   state.Ledger
	Logger   *slog.Logger
	// Out receives task reports such as lint results.
	Out io.Writer
	// Force disables incremental skips.
	Force bool
	Now   func() time.Time
	// Extractor overrides the headless browser used by the critical task.
	Extractor critical.Extractor

	sassOnce sync.Once
	sass     *styles.Compiler
}

// Options customizes NewEnv. Zero fields fall back to no-op or standard values.
type Options struct {
	Recorder  metrics.Recorder
	Ledger    state.Ledger
	Logger    *slog.Logger
	Out       io.Writer
	ReportOut io.Writer
	Force     bool
	Extractor critical.Extractor
}

// NewEnv builds an environment for cfg.
func NewEnv(cfg *config.Config, opts Options) *Env {
	env := &Env{
		Config:    cfg,
		Paths:     structure.New(cfg.Structure),
		Render:    render.NewContext(cfg.Site),
		Recorder:  opts.Recorder,
		Ledger:    opts.Ledger,
		Logger:    opts.Logger,
		Out:       opts.Out,
		Force:     opts.Force,
		Now:       time.Now,
		Extractor: opts.Extractor,
	}
	if env.Recorder == nil {
		env.Recorder = metrics.NoopRecorder{}
	}
	if env.Ledger == nil {
		env.Ledger = state.NoopLedger{}
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	if env.Out == nil {
		env.Out = os.Stdout
	}
	env.Reporter = reporter.New(reporter.Options{
		Out:      opts.ReportOut,
		Beep:     cfg.Reporter.Beep,
		Color:    cfg.Reporter.Color,
		Recorder: env.Recorder,
		Logger:   env.Logger,
	})
	return env
}

// Sass returns the shared Sass compiler, starting it on first use.
func (e *Env) Sass() *styles.Compiler {
	e.sassOnce.Do(func() {
		e.sass = styles.NewCompiler(e.Config.Styles.DartSassBinary)
	})
	return e.sass
}

// Close releases the Sass compiler and the ledger.
func (e *Env) Close() error {
	var errs []error
	if e.sass != nil {
		errs = append(errs, e.sass.Close())
	}
	if e.Ledger != nil {
		errs = append(errs, e.Ledger.Close())
	}
	return stdErrors.Join(errs...)
}

// fail sends every per-file error of err to the reporter and returns err.
func (e *Env) fail(task string, err error) error {
	if err == nil {
		return nil
	}
	if tf, ok := errors.AsTaskFailure(err); ok {
		for _, f := range tf.Files {
			e.Reporter.Report(task, f.Path, f.Err)
		}
		return err
	}
	e.Reporter.Report(task, "", err)
	return err
}

func (e *Env) warn(task string) func(string) {
	return func(msg string) { e.Reporter.Warn(task, msg) }
}

func (e *Env) log(task string) *slog.Logger {
	return e.Logger.With(logfields.Task(task))
}
