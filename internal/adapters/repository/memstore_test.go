package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	Convey("Given a store with one job", t, func() {
		s := NewMemoryStore()
		So(s.Create(ctx, model.Job{ID: "j1", Status: model.StatusCompleted}), ShouldBeNil)

		Convey("Then new jobs always start pending", func() {
			j, err := s.Get(ctx, "j1")
			So(err, ShouldBeNil)
			So(j.Status, ShouldEqual, model.StatusPending)
		})

		Convey("Then ids are unique", func() {
			err := s.Create(ctx, model.Job{ID: "j1"})
			So(errors.Is(err, ErrDuplicateID), ShouldBeTrue)
		})

		Convey("Then unknown ids are reported", func() {
			_, err := s.Get(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(errors.Is(s.MarkRunning(ctx, "nope", at), ErrNotFound), ShouldBeTrue)
		})

		Convey("When the job runs to completion", func() {
			So(s.MarkRunning(ctx, "j1", at), ShouldBeNil)
			res := model.Result{Report: report.Synthesize(exercise.Pushup, 3, nil), ProcessedFile: "out.jsonl"}
			So(s.Complete(ctx, "j1", res, at.Add(time.Second)), ShouldBeNil)

			Convey("Then the result and timestamps are stored", func() {
				j, _ := s.Get(ctx, "j1")
				So(j.Status, ShouldEqual, model.StatusCompleted)
				So(j.Result.ProcessedFile, ShouldEqual, "out.jsonl")
				So(j.StartedAt, ShouldEqual, at)
				So(j.FinishedAt, ShouldEqual, at.Add(time.Second))
			})

			Convey("Then terminal jobs cannot change", func() {
				So(errors.Is(s.Fail(ctx, "j1", "late", at), ErrInvalidTransition), ShouldBeTrue)
				So(errors.Is(s.MarkRunning(ctx, "j1", at), ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("Then a pending job cannot complete directly", func() {
			err := s.Complete(ctx, "j1", model.Result{}, at)
			So(errors.Is(err, ErrInvalidTransition), ShouldBeTrue)
		})

		Convey("When a pending job fails", func() {
			So(s.Fail(ctx, "j1", "queue closed", at), ShouldBeNil)

			Convey("Then the reason is kept", func() {
				j, _ := s.Get(ctx, "j1")
				So(j.Status, ShouldEqual, model.StatusFailed)
				So(j.Error, ShouldEqual, "queue closed")
			})
		})

		Convey("Then Get returns a copy", func() {
			j, _ := s.Get(ctx, "j1")
			j.Status = model.StatusFailed
			again, _ := s.Get(ctx, "j1")
			So(again.Status, ShouldEqual, model.StatusPending)
		})

		Convey("Then counts cover every status", func() {
			c := s.Counts(ctx)
			So(c[model.StatusPending], ShouldEqual, 1)
			So(c, ShouldContainKey, model.StatusFailed)
		})
	})

	Convey("Given a store with a one hour retention", t, func() {
		now := at
		var evicted []string
		s := NewMemoryStore(
			WithRetention(time.Hour),
			WithClock(func() time.Time { return now }),
			WithEvictHook(func(j model.Job) { evicted = append(evicted, j.ID) }),
		)
		So(s.Create(ctx, model.Job{ID: "old"}), ShouldBeNil)
		So(s.Create(ctx, model.Job{ID: "fresh"}), ShouldBeNil)
		So(s.Create(ctx, model.Job{ID: "open"}), ShouldBeNil)
		So(s.Fail(ctx, "old", "x", at.Add(-2*time.Hour)), ShouldBeNil)
		So(s.Fail(ctx, "fresh", "x", at.Add(-time.Minute)), ShouldBeNil)

		Convey("When a sweep runs", func() {
			n := s.Sweep(ctx)

			Convey("Then only stale finished jobs are removed", func() {
				So(n, ShouldEqual, 1)
				So(evicted, ShouldResemble, []string{"old"})
				_, err := s.Get(ctx, "open")
				So(err, ShouldBeNil)
				_, err = s.Get(ctx, "fresh")
				So(err, ShouldBeNil)
			})
		})
	})

	Convey("Given a store that keeps jobs forever", t, func() {
		s := NewMemoryStore(WithRetention(0))
		So(s.Create(ctx, model.Job{ID: "j"}), ShouldBeNil)
		So(s.Fail(ctx, "j", "x", time.Time{}), ShouldBeNil)
		So(s.Sweep(ctx), ShouldEqual, 0)
	})
}
