package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/state"
	"git.home.luguber.info/inful/pagesmith/internal/tasks"
)

// Global is shared by every subcommand.
type Global struct {
	Ctx context.Context
	// Out receives command output; nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) context() context.Context {
	if g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"pagesmith.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd      `cmd:"" default:"1" help:"Run the default build (pages, index, js, img, misc, sitemap, scss)"`
	Run        RunCmd        `cmd:"" help:"Run named tasks in dependency order"`
	Serve      ServeCmd      `cmd:"" help:"Build, serve the build folder and rebuild on change with live reload"`
	Lint       LintCmd       `cmd:"" help:"Lint scripts"`
	Clean      CleanCmd      `cmd:"" help:"Empty the build folder except .git"`
	Deploy     DeployCmd     `cmd:"" help:"Push the build folder to the configured repositories"`
	Critical   CriticalCmd   `cmd:"" help:"Extract and inline critical-path CSS"`
	Permalinks PermalinksCmd `cmd:"" help:"Copy posts to their permalink paths"`
	Graph      GraphCmd      `cmd:"" help:"Show the task graph (text, mermaid, dot, json)"`
	Init       InitCmd       `cmd:"" help:"Write a default configuration and create the source folders"`
	Daemon     DaemonCmd     `cmd:"" help:"Rebuild (and optionally deploy) on a schedule"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)})))
	return nil
}

// parseLogLevel honours PAGESMITH_LOG_LEVEL over the verbose flag.
func parseLogLevel(verbose bool) slog.Level {
	switch strings.ToLower(os.Getenv("PAGESMITH_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// session bundles what a command needs to run tasks.
type session struct {
	cfg      *config.Config
	env      *tasks.Env
	registry *tasks.Registry
}

func (s *session) Close() {
	if err := s.env.Close(); err != nil {
		slog.Warn("Failed to release build resources", "error", err)
	}
}

// openSession loads the configuration and prepares the task environment.
func openSession(g *Global, root *CLI, force bool, recorder metrics.Recorder) (*session, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	registry, err := tasks.NewDefaultRegistry()
	if err != nil {
		return nil, errors.InternalError("register tasks").WithCause(err).Build()
	}
	ledger, err := openLedger(cfg)
	if err != nil {
		return nil, err
	}
	env := tasks.NewEnv(cfg, tasks.Options{
		Recorder: recorder,
		Ledger:   ledger,
		Logger:   slog.Default(),
		Out:      g.out(),
		Force:    force,
	})
	return &session{cfg: cfg, env: env, registry: registry}, nil
}

func openLedger(cfg *config.Config) (state.Ledger, error) {
	if !cfg.State.Enabled || cfg.State.Path == "" {
		return state.NoopLedger{}, nil
	}
	path := cfg.State.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Structure.Root, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, errors.FileSystemError("create state folder").WithCause(err).WithContext("path", path).Build()
	}
	ledger, err := state.OpenSQLite(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "open build ledger").WithContext("path", path).Build()
	}
	return ledger, nil
}

// run plans names, runs them and prints the reporter summary.
func (s *session) run(ctx context.Context, names ...string) (tasks.Summary, error) {
	plan, err := s.registry.Plan(names...)
	if err != nil {
		return tasks.Summary{}, err
	}
	sum, err := tasks.NewRunner(s.env).Run(ctx, plan)
	s.env.Reporter.Summary()
	return sum, err
}

// runTasks is the body of every one-shot task command.
func runTasks(g *Global, root *CLI, force bool, names ...string) error {
	s, err := openSession(g, root, force, nil)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = s.run(g.context(), names...)
	return err
}
