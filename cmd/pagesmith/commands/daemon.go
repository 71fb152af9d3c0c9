package commands

import (
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/scheduler"
	"git.home.luguber.info/inful/pagesmith/internal/tasks"
	"git.home.luguber.info/inful/pagesmith/internal/watch"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval string `help:"Build interval (overrides schedule.interval), e.g. 30m"`
	Deploy   bool   `help:"Deploy after every build (overrides schedule.deploy)"`
}

// Run rebuilds on a schedule until interrupted.
func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	sess, err := openSession(g, root, false, nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	interval := sess.cfg.Schedule.IntervalDuration()
	if d.Interval != "" {
		if interval, err = time.ParseDuration(d.Interval); err != nil {
			return errors.ValidationError("invalid --interval").WithCause(err).Build()
		}
	}
	names := []string{tasks.Default}
	if d.Deploy || sess.cfg.Schedule.Deploy {
		names = append(names, tasks.Deploy)
	}

	queue := watch.NewQueue(sess.registry, tasks.NewRunner(sess.env), watch.QueueOptions{
		BeforeBatch: sess.env.Reporter.Reset,
		AfterBatch:  func(tasks.Summary, error) { sess.env.Reporter.Summary() },
	})
	sched, err := scheduler.New(queue, slog.Default())
	if err != nil {
		return err
	}
	if _, err := sched.Every(interval, true, names...); err != nil {
		return err
	}
	slog.Info("Daemon started", "interval", interval.String(), "tasks", names)

	group, gctx := errgroup.WithContext(g.context())
	group.Go(func() error { return queue.Run(gctx) })
	group.Go(func() error { return sched.Run(gctx) })
	return group.Wait()
}
