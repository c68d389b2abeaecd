package exercise_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
)

// heights builds a frame with only the classifier joints set.
func heights(ls, rs, hip, knee, ankle float64) pose.Frame {
	return pose.NewFrame(map[pose.Joint]pose.Landmark{
		pose.LeftShoulder:  {X: 0.4, Y: ls},
		pose.RightShoulder: {X: 0.6, Y: rs},
		pose.LeftHip:       {X: 0.5, Y: hip},
		pose.LeftKnee:      {X: 0.5, Y: knee},
		pose.LeftAnkle:     {X: 0.5, Y: ankle},
	})
}

func TestClassifier(t *testing.T) {
	c := exercise.NewClassifier()

	Convey("Given a classifier with default thresholds", t, func() {
		Convey("When shoulders are below hips and close to ankle height", func() {
			cat, ok := c.Classify(heights(0.62, 0.62, 0.58, 0.6, 0.65))

			Convey("Then the frame is a push-up", func() {
				So(ok, ShouldBeTrue)
				So(cat, ShouldEqual, exercise.Pushup)
			})
		})

		Convey("When the push-up branch holds regardless of the other joints", func() {
			// knee above ankle and hip above knee would also satisfy the squat branch
			cat, _ := c.Classify(heights(0.9, 0.9, 0.85, 0.8, 0.7))

			Convey("Then push-up still wins", func() {
				So(cat, ShouldEqual, exercise.Pushup)
			})
		})

		Convey("When knee is below ankle and hip is below knee", func() {
			cat, _ := c.Classify(heights(0.3, 0.3, 0.9, 0.8, 0.7))

			Convey("Then the frame is a squat", func() {
				So(cat, ShouldEqual, exercise.Squat)
			})
		})

		Convey("When the body hangs upright with level shoulders", func() {
			cat, _ := c.Classify(heights(0.3, 0.32, 0.55, 0.7, 0.9))

			Convey("Then the frame is a pull-up", func() {
				So(cat, ShouldEqual, exercise.Pullup)
			})
		})

		Convey("When shoulders are upright but tilted", func() {
			cat, _ := c.Classify(heights(0.2, 0.35, 0.55, 0.7, 0.9))

			Convey("Then the frame falls through to general", func() {
				So(cat, ShouldEqual, exercise.General)
			})
		})

		Convey("When the shoulder-ankle gap is exactly the threshold", func() {
			cat, _ := c.Classify(heights(0.6, 0.6, 0.5, 0.8, 0.9))

			Convey("Then the push-up branch does not fire", func() {
				So(cat, ShouldNotEqual, exercise.Pushup)
			})
		})

		Convey("When a required joint is missing", func() {
			f := pose.NewFrame(map[pose.Joint]pose.Landmark{
				pose.LeftShoulder: {Y: 0.5},
				pose.LeftHip:      {Y: 0.4},
			})
			cat, ok := c.Classify(f)

			Convey("Then the frame cannot be classified", func() {
				So(ok, ShouldBeFalse)
				So(cat, ShouldEqual, exercise.Category(""))
			})
		})
	})

	Convey("Given a classifier with a wider push-up gap", t, func() {
		wide := exercise.NewClassifier(exercise.WithPushupAnkleGap(0.5))

		Convey("Then a steeper plank is still a push-up", func() {
			cat, _ := wide.Classify(heights(0.5, 0.5, 0.45, 0.8, 0.9))
			So(cat, ShouldEqual, exercise.Pushup)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Given category names", t, func() {
		Convey("Then known names parse case-insensitively", func() {
			c, ok := exercise.Parse("SQUAT")
			So(ok, ShouldBeTrue)
			So(c, ShouldEqual, exercise.Squat)
		})

		Convey("Then unknown names are rejected", func() {
			_, ok := exercise.Parse("deadlift")
			So(ok, ShouldBeFalse)
		})
	})
}
