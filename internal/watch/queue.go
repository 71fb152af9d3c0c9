package watch

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/pagesmith/internal/logfields"
	"git.home.luguber.info/inful/pagesmith/internal/metrics"
	"git.home.luguber.info/inful/pagesmith/internal/tasks"
)

// Live-reload kinds.
const (
	KindCSS    = "css"
	KindReload = "reload"
)

// Planner orders task names.
type Planner interface {
	Plan(names ...string) (*tasks.Plan, error)
}

// Executor runs a plan.
type Executor interface {
	Run(ctx context.Context, plan *tasks.Plan) (tasks.Summary, error)
}

// Notifier receives a live-reload kind after every batch.
type Notifier interface {
	Broadcast(kind string)
}

// QueueOptions customizes a Queue.
type QueueOptions struct {
	Notifier Notifier
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// BeforeBatch runs before each batch starts, e.g. to reset counters.
	BeforeBatch func()
	// AfterBatch receives the outcome of each batch.
	AfterBatch func(tasks.Summary, error)
}

// Queue runs enqueued tasks one batch at a time on a single worker.
// Names enqueued while a batch runs are collected into the next batch.
type Queue struct {
	planner  Planner
	executor Executor
	opts     QueueOptions

	mu      sync.Mutex
	pending []string
	queued  map[string]bool
	wake    chan struct{}
}

// NewQueue creates a queue. Call Run to start the worker.
func NewQueue(planner Planner, executor Executor, opts QueueOptions) *Queue {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Queue{
		planner:  planner,
		executor: executor,
		opts:     opts,
		queued:   make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}
}

// Enqueue adds names to the next batch. Names already pending are ignored.
func (q *Queue) Enqueue(names ...string) {
	q.mu.Lock()
	for _, n := range names {
		if !q.queued[n] {
			q.queued[n] = true
			q.pending = append(q.pending, n)
		}
	}
	depth := len(q.pending)
	q.mu.Unlock()
	q.opts.Recorder.SetQueueDepth(depth)

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Pending returns the names waiting for the next batch.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.pending...)
}

func (q *Queue) take() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	q.queued = make(map[string]bool)
	return batch
}

// Run processes batches until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-q.wake:
		}
		batch := q.take()
		q.opts.Recorder.SetQueueDepth(0)
		if len(batch) == 0 {
			continue
		}
		q.runBatch(ctx, batch)
	}
}

func (q *Queue) runBatch(ctx context.Context, batch []string) {
	logger := q.opts.Logger.With(slog.Any("tasks", batch))
	plan, err := q.planner.Plan(batch...)
	if err != nil {
		logger.Error("Cannot plan watched tasks", logfields.Error(err))
		return
	}
	if q.opts.BeforeBatch != nil {
		q.opts.BeforeBatch()
	}
	sum, err := q.executor.Run(ctx, plan)
	if err != nil {
		logger.Warn("Watched tasks failed", logfields.Error(err))
	}
	if q.opts.AfterBatch != nil {
		q.opts.AfterBatch(sum, err)
	}
	if ctx.Err() != nil || q.opts.Notifier == nil || len(sum.Produced) == 0 {
		return
	}
	kind := KindReload
	if sum.OnlyProduced(tasks.ResCSS) {
		kind = KindCSS
	}
	q.opts.Notifier.Broadcast(kind)
	q.opts.Recorder.IncLiveReload(kind)
}
