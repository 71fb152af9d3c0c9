package commands

import (
	"git.home.luguber.info/inful/pagesmith/internal/tasks"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Clean bool `help:"Empty the build folder first"`
	Force bool `short:"f" help:"Ignore the incremental build ledger"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	names := []string{tasks.Default}
	if b.Clean {
		names = append([]string{tasks.Clean}, names...)
	}
	return runTasks(g, root, b.Force, names...)
}

// RunCmd implements the 'run' command.
type RunCmd struct {
	Tasks []string `arg:"" help:"Task or composite names"`
	Force bool     `short:"f" help:"Ignore the incremental build ledger"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	return runTasks(g, root, r.Force, r.Tasks...)
}

// LintCmd implements the 'lint' command.
type LintCmd struct{}

func (*LintCmd) Run(g *Global, root *CLI) error { return runTasks(g, root, false, tasks.Lint) }

// CleanCmd implements the 'clean' command.
type CleanCmd struct{}

func (*CleanCmd) Run(g *Global, root *CLI) error { return runTasks(g, root, false, tasks.Clean) }

// DeployCmd implements the 'deploy' command.
type DeployCmd struct {
	Build bool `help:"Run the default build before deploying"`
}

func (d *DeployCmd) Run(g *Global, root *CLI) error {
	if d.Build {
		return runTasks(g, root, false, tasks.Default, tasks.Deploy)
	}
	return runTasks(g, root, false, tasks.Deploy)
}

// CriticalCmd implements the 'critical' command.
type CriticalCmd struct{}

func (*CriticalCmd) Run(g *Global, root *CLI) error { return runTasks(g, root, false, tasks.Critical) }

// PermalinksCmd implements the 'permalinks' command.
type PermalinksCmd struct{}

func (*PermalinksCmd) Run(g *Global, root *CLI) error {
	return runTasks(g, root, false, tasks.Permalinks)
}
