// Package worker runs queued analysis jobs and records their outcome.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
	"github.com/vitazok/exercise-analyzer-backend/pkg/metrics"
)

// Analyzer turns one job's upload into its result.
type Analyzer interface {
	Analyze(ctx context.Context, job model.Job) (model.Result, error)
}

// Tracker records job status transitions.
type Tracker interface {
	MarkRunning(ctx context.Context, id string, at time.Time) error
	Complete(ctx context.Context, id string, result model.Result, at time.Time) error
	Fail(ctx context.Context, id string, reason string, at time.Time) error
}

// Notifier is told about jobs that finished.
type Notifier interface {
	Publish(ctx context.Context, job model.Job) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Job
}

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, model.Job) error { return nil }

// InMemoryWorker processes jobs one at a time.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	tracker  Tracker
	notifier Notifier
	name     string
	timeout  time.Duration
	active   *atomic.Int64

	done   chan struct{}
	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, a Analyzer, t Tracker, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		analyzer: a,
		tracker:  t,
		notifier: nopNotifier{},
		name:     "worker",
		active:   &atomic.Int64{},
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run processes jobs until the queue is drained and closed or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, job model.Job) { //nolint:gocritic // jobs travel by value
	start := time.Now()
	if err := w.tracker.MarkRunning(ctx, job.ID, start); err != nil {
		w.logger.Warn(ctx, "skipping job that cannot start", logger.String("job_id", job.ID), logger.Error(err))
		return
	}
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	defer func() { metrics.UpdateWorkerActiveCount(int(w.active.Add(-1))) }()

	w.logger.Info(ctx, "analysis started",
		logger.String("job_id", job.ID),
		logger.String("kind", string(job.Kind)),
	)

	result, err := w.analyze(ctx, job)
	finished := time.Now()
	took := finished.Sub(start)

	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_failed")
		metrics.RecordJobFinished(string(model.StatusFailed), took.Seconds())
		if ferr := w.tracker.Fail(ctx, job.ID, err.Error(), finished); ferr != nil {
			w.logger.Error(ctx, "recording failure", logger.String("job_id", job.ID), logger.Error(ferr))
		}
		w.logger.Error(ctx, "analysis failed", logger.String("job_id", job.ID), logger.Duration("took", took), logger.Error(err))
		job.Status, job.Error = model.StatusFailed, err.Error()
	} else {
		metrics.RecordJobFinished(string(model.StatusCompleted), took.Seconds())
		if cerr := w.tracker.Complete(ctx, job.ID, result, finished); cerr != nil {
			w.logger.Error(ctx, "recording result", logger.String("job_id", job.ID), logger.Error(cerr))
		}
		w.logger.Info(ctx, "analysis completed",
			logger.String("job_id", job.ID),
			logger.String("category", result.ExerciseType.String()),
			logger.Duration("took", took),
		)
		job.Status, job.Result = model.StatusCompleted, &result
	}

	job.StartedAt, job.FinishedAt = start, finished
	if err := w.notifier.Publish(ctx, job); err != nil {
		w.logger.Warn(ctx, "job event not published", logger.String("job_id", job.ID), logger.Error(err))
	}
}

// analyze runs the analyzer under the job timeout and turns a panic into an
// error so one bad upload cannot take the worker down.
func (w *InMemoryWorker) analyze(ctx context.Context, job model.Job) (res model.Result, err error) { //nolint:gocritic // jobs travel by value
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panic: %v", r)
		}
	}()
	return w.analyzer.Analyze(ctx, job)
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	cancel  context.CancelFunc
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one uses NumCPU.
// Options are applied to every worker.
func NewPool(workerCount int, q Queue, a Analyzer, t Tracker, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	active := &atomic.Int64{}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Nop(),
	}
	for i := range p.workers {
		wopts := append([]Option{}, opts...)
		wopts = append(wopts, WithName("worker-"+strconv.Itoa(i)))
		w := NewInMemoryWorker(q, a, t, wopts...)
		w.active = active
		p.workers[i] = w
	}
	if len(p.workers) > 0 {
		p.logger = p.workers[0].logger
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it. When ctx
// expires first, in-flight analyses are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			if p.cancel != nil {
				p.cancel()
			}
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker pool shutdown: %w", ctx.Err())
		}
	}
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}
