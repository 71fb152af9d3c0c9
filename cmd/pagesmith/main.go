package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagesmith/cmd/pagesmith/commands"
	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pagesmith"),
		kong.Description("Build, serve and deploy a static site from templates, styles, scripts and images."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	err := parser.Run(&commands.Global{Ctx: ctx}, cli)
	if err == nil {
		return
	}
	code := errors.NewCLIErrorAdapter(cli.Verbose, nil).Report(os.Stderr, err)
	cancel()
	os.Exit(code)
}
