package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/mq/queue"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/repository"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
)

type analyzerFunc func(ctx context.Context, job model.Job) (model.Result, error)

func (f analyzerFunc) Analyze(ctx context.Context, job model.Job) (model.Result, error) {
	return f(ctx, job)
}

type recordingNotifier struct {
	mu   sync.Mutex
	jobs []model.Job
}

func (n *recordingNotifier) Publish(_ context.Context, job model.Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs = append(n.jobs, job)
	return nil
}

func (n *recordingNotifier) published() []model.Job {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Job(nil), n.jobs...)
}

func waitFor(store *repository.MemoryStore, id string, status model.Status) model.Job {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if j, err := store.Get(context.Background(), id); err == nil && j.Status == status {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	j, _ := store.Get(context.Background(), id)
	return j
}

func submit(ctx context.Context, store *repository.MemoryStore, q *queue.InMemoryQueue, id string) {
	So(store.Create(ctx, model.Job{ID: id}), ShouldBeNil)
	So(q.Enqueue(ctx, model.Job{ID: id}), ShouldBeNil)
}

func squatResult() model.Result {
	return model.Result{Report: report.Synthesize(exercise.Squat, 1, nil), ProcessedFile: "p.jsonl"}
}

func TestPool(t *testing.T) {
	Convey("Given a running pool", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		store := repository.NewMemoryStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		notes := &recordingNotifier{}

		analyzer := analyzerFunc(func(ctx context.Context, job model.Job) (model.Result, error) {
			switch job.ID {
			case "bad":
				return model.Result{}, errors.New("detector exited with status 1")
			case "panic":
				panic("corrupt frame table")
			case "slow":
				<-ctx.Done()
				return model.Result{}, ctx.Err()
			}
			return squatResult(), nil
		})
		pool := NewPool(2, q, analyzer, store, WithNotifier(notes), WithJobTimeout(50*time.Millisecond))
		So(pool.Size(), ShouldEqual, 2)
		pool.Start(ctx)

		Convey("When a good job is queued", func() {
			submit(ctx, store, q, "good")
			j := waitFor(store, "good", model.StatusCompleted)

			Convey("Then it completes with its result", func() {
				So(j.Status, ShouldEqual, model.StatusCompleted)
				So(j.Result.ExerciseType, ShouldEqual, exercise.Squat)
				So(j.Result.ProcessedFile, ShouldEqual, "p.jsonl")
				So(j.StartedAt.IsZero(), ShouldBeFalse)
			})

			Convey("Then a completion event is published", func() {
				deadline := time.Now().Add(time.Second)
				for len(notes.published()) == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				pub := notes.published()
				So(pub, ShouldHaveLength, 1)
				So(pub[0].Status, ShouldEqual, model.StatusCompleted)
			})
		})

		Convey("When the analyzer fails", func() {
			submit(ctx, store, q, "bad")
			j := waitFor(store, "bad", model.StatusFailed)

			Convey("Then the job fails with the cause", func() {
				So(j.Status, ShouldEqual, model.StatusFailed)
				So(j.Error, ShouldContainSubstring, "detector exited")
			})
		})

		Convey("When the analyzer panics", func() {
			submit(ctx, store, q, "panic")
			j := waitFor(store, "panic", model.StatusFailed)

			Convey("Then the job fails and the worker survives", func() {
				So(j.Error, ShouldContainSubstring, "corrupt frame table")
				submit(ctx, store, q, "after")
				So(waitFor(store, "after", model.StatusCompleted).Status, ShouldEqual, model.StatusCompleted)
			})
		})

		Convey("When an analysis exceeds the job timeout", func() {
			submit(ctx, store, q, "slow")
			j := waitFor(store, "slow", model.StatusFailed)

			Convey("Then it fails with a deadline error", func() {
				So(j.Error, ShouldContainSubstring, context.DeadlineExceeded.Error())
			})
		})

		Convey("When a queued job is unknown to the store", func() {
			So(q.Enqueue(ctx, model.Job{ID: "ghost"}), ShouldBeNil)
			submit(ctx, store, q, "next")

			Convey("Then it is skipped and later jobs still run", func() {
				So(waitFor(store, "next", model.StatusCompleted).Status, ShouldEqual, model.StatusCompleted)
			})
		})
	})
}

func TestPoolShutdown(t *testing.T) {
	Convey("Given a pool with queued work", t, func() {
		store := repository.NewMemoryStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		release := make(chan struct{})
		analyzer := analyzerFunc(func(ctx context.Context, job model.Job) (model.Result, error) {
			<-release
			return squatResult(), nil
		})
		pool := NewPool(1, q, analyzer, store)
		ctx := context.Background()
		for _, id := range []string{"a", "b", "c"} {
			submit(ctx, store, q, id)
		}
		pool.Start(ctx)

		Convey("When shutdown is given time", func() {
			close(release)
			sctx, cancel := context.WithTimeout(ctx, 2*time.Second)
			defer cancel()
			err := pool.Shutdown(sctx)

			Convey("Then every queued job is drained", func() {
				So(err, ShouldBeNil)
				So(q.IsClosed(), ShouldBeTrue)
				for _, id := range []string{"a", "b", "c"} {
					j, _ := store.Get(ctx, id)
					So(j.Status, ShouldEqual, model.StatusCompleted)
				}
			})
		})

		Convey("When shutdown times out", func() {
			sctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			err := pool.Shutdown(sctx)
			close(release)

			Convey("Then the deadline is reported", func() {
				So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
			})
		})
	})
}
