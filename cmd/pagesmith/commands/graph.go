package commands

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/pagesmith/internal/tasks"
)

// GraphCmd implements the 'graph' command.
type GraphCmd struct {
	Tasks  []string `arg:"" optional:"" help:"Tasks to plan (default: the default build)"`
	Format string   `short:"f" help:"Output format: text, mermaid, dot, json" default:"text" enum:"text,mermaid,dot,json"`
	Output string   `short:"o" help:"Output file path (optional, prints to stdout if not specified)"`
	List   bool     `short:"l" help:"List tasks and composites and exit"`
}

// Run executes the graph command.
func (cmd *GraphCmd) Run(g *Global, _ *CLI) error {
	registry, err := tasks.NewDefaultRegistry()
	if err != nil {
		return err
	}
	w := g.out()

	if cmd.List {
		_, _ = fmt.Fprintln(w, "Tasks:")
		for _, name := range registry.Names() {
			t, _ := registry.Get(name)
			_, _ = fmt.Fprintf(w, "  %-12s %s\n", name, t.Spec().Description)
		}
		_, _ = fmt.Fprintln(w, "\nComposites:")
		for _, name := range registry.Composites() {
			members, _ := registry.Members(name)
			_, _ = fmt.Fprintf(w, "  %-12s %v\n", name, members)
		}
		return nil
	}

	names := cmd.Tasks
	if len(names) == 0 {
		names = []string{tasks.Default}
	}
	plan, err := registry.Plan(names...)
	if err != nil {
		return err
	}
	output, err := tasks.Graph(plan, tasks.GraphFormat(cmd.Format))
	if err != nil {
		return fmt.Errorf("failed to render task graph: %w", err)
	}

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		slog.Info("Task graph written", "file", cmd.Output, "format", cmd.Format)
		return nil
	}
	_, err = fmt.Fprint(w, output)
	return err
}
