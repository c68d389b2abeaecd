package service

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

func TestClaim(t *testing.T) {
	Convey("Given a started service", t, func() {
		dir := t.TempDir()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s := New(WithDirs(dir+"/up", dir+"/out"), WithWorkerCount(1), WithLogger(logger.Nop()))
		So(s.Start(ctx), ShouldBeNil)
		defer func() { _ = s.Stop(ctx) }()

		Convey("When the owner has claimed the digest but is not stored yet", func() {
			s.index.Claim(ctx, "digest", "job-a")
			owner, seen := s.claim(ctx, "digest", "job-b")

			Convey("Then the second upload is a duplicate of the first", func() {
				So(seen, ShouldBeTrue)
				So(owner, ShouldEqual, "job-a")
				got, _ := s.index.Lookup(ctx, "digest")
				So(got, ShouldEqual, "job-a")
			})
		})

		Convey("When the owner is still pending", func() {
			So(s.store.Create(ctx, model.Job{ID: "job-a", Digest: "digest"}), ShouldBeNil)
			s.index.Claim(ctx, "digest", "job-a")
			owner, seen := s.claim(ctx, "digest", "job-b")

			Convey("Then the pending job is returned", func() {
				So(seen, ShouldBeTrue)
				So(owner, ShouldEqual, "job-a")
			})
		})

		Convey("When the owner failed", func() {
			So(s.store.Create(ctx, model.Job{ID: "job-a", Digest: "digest"}), ShouldBeNil)
			So(s.store.Fail(ctx, "job-a", "detector exited", time.Now()), ShouldBeNil)
			s.index.Claim(ctx, "digest", "job-a")
			owner, seen := s.claim(ctx, "digest", "job-b")

			Convey("Then the new upload takes the digest over", func() {
				So(seen, ShouldBeFalse)
				So(owner, ShouldEqual, "job-b")
				got, _ := s.index.Lookup(ctx, "digest")
				So(got, ShouldEqual, "job-b")
			})

			Convey("And a later identical upload joins the new owner", func() {
				owner, seen := s.claim(ctx, "digest", "job-c")
				So(seen, ShouldBeTrue)
				So(owner, ShouldEqual, "job-b")
			})
		})
	})
}
