package commands

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/server"
	"git.home.luguber.info/inful/pagesmith/internal/tasks"
	"git.home.luguber.info/inful/pagesmith/internal/watch"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Port         int  `short:"p" help:"Port to listen on (overrides server.port)"`
	NoLiveReload bool `name:"no-live-reload" help:"Do not inject the live-reload client"`
	NoBuild      bool `name:"no-build" help:"Skip the initial build"`
	NoWatch      bool `name:"no-watch" help:"Serve without watching sources"`
}

// Run builds, serves and watches until interrupted. Task failures are reported
// and the server keeps running.
func (s *ServeCmd) Run(g *Global, root *CLI) error {
	reg := metrics.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(reg)
	sess, err := openSession(g, root, false, recorder)
	if err != nil {
		return err
	}
	defer sess.Close()

	cfg := sess.cfg.Server
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	ctx := g.context()

	if !s.NoBuild {
		if _, err := sess.run(ctx, tasks.Default); err != nil {
			slog.Warn("Initial build finished with errors", "error", err)
		}
	}

	opts := server.Options{}
	if cfg.LiveReload && !s.NoLiveReload {
		opts.Hub = server.NewHub(recorder)
	}
	if cfg.Metrics {
		opts.Metrics = metrics.HTTPHandler(reg)
	}
	srv := server.New(cfg, sess.env.Paths.BuildDir(), opts)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(stopCtx); err != nil {
			slog.Warn("Development server shutdown error", "error", err)
		}
	}()

	if s.NoWatch {
		<-ctx.Done()
		return nil
	}

	runner := tasks.NewRunner(sess.env)
	qopts := watch.QueueOptions{
		Recorder:    recorder,
		BeforeBatch: sess.env.Reporter.Reset,
		AfterBatch:  func(tasks.Summary, error) { sess.env.Reporter.Summary() },
	}
	if opts.Hub != nil {
		qopts.Notifier = opts.Hub
	}
	queue := watch.NewQueue(sess.registry, runner, qopts)
	rules, err := watch.Compile(sess.cfg.Watch, sess.env.Paths, sess.registry)
	if err != nil {
		return err
	}
	watcher := watch.New(rules, sess.env.Paths, sess.cfg.Watch.DebounceDuration(), queue, slog.Default())

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return queue.Run(gctx) })
	group.Go(func() error { return watcher.Run(gctx) })
	return group.Wait()
}
