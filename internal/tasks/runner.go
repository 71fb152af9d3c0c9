package tasks

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
)

// Summary describes a finished run.
type Summary struct {
	RunID    string
	Ran      []string
	Failed   []string
	Skipped  []string
	Produced map[Resource]bool
	Duration time.Duration
}

// OnlyProduced reports whether every produced resource is res.
func (s Summary) OnlyProduced(res Resource) bool {
	if len(s.Produced) == 0 {
		return false
	}
	for r := range s.Produced {
		if r != res {
			return false
		}
	}
	return true
}

// Runner executes plans against one environment.
type Runner struct {
	env *Env
}

// NewRunner creates a runner for env.
func NewRunner(env *Env) *Runner { return &Runner{env: env} }

type outcome struct {
	task string
	err  error
}

// Run executes plan level by level. Tasks of a level run concurrently. A task
// that fails with per-file errors does not stop the run; any other failure
// stops later levels. All failures are joined into the returned error.
func (r *Runner) Run(ctx context.Context, plan *Plan) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Produced: make(map[Resource]bool)}
	logger := r.env.Logger.With(logfields.RunID(sum.RunID))
	start := time.Now()
	logger.Info("Run started", slog.Any("tasks", plan.Names()), logfields.Count(len(plan.Levels)))

	var failures []error
	stopped := false
	for i, level := range plan.Levels {
		if stopped || ctx.Err() != nil {
			for _, t := range level {
				sum.Skipped = append(sum.Skipped, t.Name())
				r.env.Recorder.IncTaskResult(t.Name(), metrics.ResultSkipped)
			}
			continue
		}

		outcomes := make([]outcome, len(level))
		var g errgroup.Group
		for j, t := range level {
			g.Go(func() error {
				outcomes[j] = outcome{task: t.Name(), err: r.runTask(ctx, logger, i, t)}
				return nil
			})
		}
		_ = g.Wait()

		for j, o := range outcomes {
			sum.Ran = append(sum.Ran, o.task)
			if o.err == nil {
				for _, res := range level[j].Spec().Produces {
					sum.Produced[res] = true
				}
				continue
			}
			sum.Failed = append(sum.Failed, o.task)
			failures = append(failures, o.err)
			if _, perFile := errors.AsTaskFailure(o.err); perFile {
				// the files that did succeed were still written
				for _, res := range level[j].Spec().Produces {
					sum.Produced[res] = true
				}
				continue
			}
			stopped = true
		}
	}

	sum.Duration = time.Since(start)
	r.env.Recorder.ObserveBuildDuration(sum.Duration)
	err := stdErrors.Join(failures...)
	switch {
	case ctx.Err() != nil:
		r.env.Recorder.IncBuildOutcome(metrics.ResultCanceled)
		if err == nil {
			err = ctx.Err()
		}
	case err != nil:
		r.env.Recorder.IncBuildOutcome(metrics.ResultFailed)
	default:
		r.env.Recorder.IncBuildOutcome(metrics.ResultSuccess)
	}
	logger.Info("Run finished",
		logfields.DurationMS(float64(sum.Duration.Milliseconds())),
		slog.Int("failed", len(sum.Failed)),
		slog.Int("skipped", len(sum.Skipped)))
	return sum, err
}

func (r *Runner) runTask(ctx context.Context, logger *slog.Logger, level int, t Task) error {
	name := t.Name()
	logger = logger.With(logfields.Task(name), logfields.Level(level))
	logger.Debug("Task started")
	start := time.Now()

	err := t.Run(ctx, r.env)
	d := time.Since(start)
	r.env.Recorder.ObserveTaskDuration(name, d)

	switch {
	case err == nil:
		r.env.Recorder.IncTaskResult(name, metrics.ResultSuccess)
		logger.Info("Task finished", logfields.DurationMS(float64(d.Milliseconds())))
	case stdErrors.Is(err, context.Canceled) || stdErrors.Is(err, context.DeadlineExceeded):
		r.env.Recorder.IncTaskResult(name, metrics.ResultCanceled)
		logger.Warn("Task canceled", logfields.Error(err))
	default:
		r.env.Recorder.IncTaskResult(name, metrics.ResultFailed)
		logger.Error("Task failed", logfields.Error(err), logfields.DurationMS(float64(d.Milliseconds())))
	}
	return err
}
