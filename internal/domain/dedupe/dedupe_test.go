package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	dedupe "github.com/vitazok/exercise-analyzer-backend/internal/domain/dedupe"
)

func TestInMemoryIndex(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new index", t, func() {
		d := dedupe.NewInMemoryIndex()

		Convey("Then it starts empty", func() {
			So(d.Size(), ShouldEqual, 0)
			_, ok := d.Lookup(ctx, "abc")
			So(ok, ShouldBeFalse)
		})

		Convey("When a digest is claimed", func() {
			owner, seen := d.Claim(ctx, "abc", "job-1")

			Convey("Then the claimant owns it", func() {
				So(seen, ShouldBeFalse)
				So(owner, ShouldEqual, "job-1")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And the same digest is claimed again", func() {
				owner, seen := d.Claim(ctx, "abc", "job-2")

				Convey("Then the first job is returned", func() {
					So(seen, ShouldBeTrue)
					So(owner, ShouldEqual, "job-1")
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And it is released", func() {
				d.Release(ctx, "abc")

				Convey("Then a new job may claim it", func() {
					So(d.Size(), ShouldEqual, 0)
					owner, seen := d.Claim(ctx, "abc", "job-3")
					So(seen, ShouldBeFalse)
					So(owner, ShouldEqual, "job-3")
				})
			})

			Convey("And an unknown digest is released", func() {
				d.Release(ctx, "zzz")

				Convey("Then nothing changes", func() {
					So(d.Size(), ShouldEqual, 1)
				})
			})
		})
	})

	Convey("Given an index bounded to three digests", t, func() {
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(3))
		for i := 1; i <= 4; i++ {
			d.Claim(ctx, fmt.Sprintf("d%d", i), fmt.Sprintf("job-%d", i))
		}

		Convey("Then the oldest digest was evicted", func() {
			So(d.Size(), ShouldEqual, 3)
			_, ok := d.Lookup(ctx, "d1")
			So(ok, ShouldBeFalse)
			owner, ok := d.Lookup(ctx, "d4")
			So(ok, ShouldBeTrue)
			So(owner, ShouldEqual, "job-4")
		})
	})

	Convey("Given an unbounded index", t, func() {
		d := dedupe.NewInMemoryIndex(dedupe.WithMaxSize(0))
		for i := 0; i < 500; i++ {
			d.Claim(ctx, fmt.Sprintf("d%d", i), "job")
		}

		Convey("Then nothing is evicted", func() {
			So(d.Size(), ShouldEqual, 500)
		})
	})

	Convey("Given a digest owned by a job", t, func() {
		d := dedupe.NewInMemoryIndex()
		d.Claim(ctx, "abc", "job-old")

		Convey("When it is transferred from its owner", func() {
			owner, ok := d.Transfer(ctx, "abc", "job-old", "job-new")

			Convey("Then the new job owns it", func() {
				So(ok, ShouldBeTrue)
				So(owner, ShouldEqual, "job-new")
				got, _ := d.Lookup(ctx, "abc")
				So(got, ShouldEqual, "job-new")
				So(d.Size(), ShouldEqual, 1)
			})

			Convey("And a second transfer from the old owner loses", func() {
				owner, ok := d.Transfer(ctx, "abc", "job-old", "job-other")
				So(ok, ShouldBeFalse)
				So(owner, ShouldEqual, "job-new")
			})
		})

		Convey("When an unowned digest is transferred", func() {
			owner, ok := d.Transfer(ctx, "fresh", "job-gone", "job-new")

			Convey("Then it is claimed for the new job", func() {
				So(ok, ShouldBeTrue)
				So(owner, ShouldEqual, "job-new")
				So(d.Size(), ShouldEqual, 2)
			})
		})
	})

	Convey("Given concurrent claims of one digest", t, func() {
		d := dedupe.NewInMemoryIndex()
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for i := 0; i < 32; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, seen := d.Claim(ctx, "same", fmt.Sprintf("job-%d", i)); !seen {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one claim wins", func() {
			So(winners, ShouldEqual, 1)
			So(d.Size(), ShouldEqual, 1)
		})
	})
}
