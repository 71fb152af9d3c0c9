// Package scheduler runs builds on a fixed interval for the daemon command.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

// Enqueuer accepts task names.
type Enqueuer interface {
	Enqueue(names ...string)
}

// Scheduler wraps a gocron scheduler.
type Scheduler struct {
	scheduler gocron.Scheduler
	out       Enqueuer
	logger    *slog.Logger
}

// New creates a scheduler that hands due work to out.
func New(out Enqueuer, logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{scheduler: s, out: out, logger: logger}, nil
}

// Every enqueues names once per interval, first right after Start when
// immediately is set. It returns the job ID.
func (s *Scheduler) Every(interval time.Duration, immediately bool, names ...string) (string, error) {
	if interval <= 0 {
		return "", errors.ValidationError("schedule interval must be > 0").WithContext("interval", interval.String()).Build()
	}
	if len(names) == 0 {
		return "", errors.ValidationError("scheduled job has no tasks").Build()
	}
	opts := []gocron.JobOption{
		gocron.WithName(fmt.Sprintf("every-%s", interval)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.fire, append([]string(nil), names...)),
		opts...,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create scheduled job: %w", err)
	}
	return job.ID().String(), nil
}

func (s *Scheduler) fire(names []string) {
	s.logger.Info("Scheduled run due", slog.Any("tasks", names))
	s.out.Enqueue(names...)
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
	<-ctx.Done()
	s.logger.Info("Stopping scheduler")
	return s.scheduler.Shutdown()
}
