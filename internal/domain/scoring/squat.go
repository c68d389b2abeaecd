package scoring

import (
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/feedback"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
)

// SquatScorer grades knee depth and knee tracking, and reports the hip angle.
type SquatScorer struct {
	excellentBelow float64
	parallelBelow  float64
	kneeCave       float64
	phaseSplit     float64
}

// NewSquatScorer builds a squat scorer from its standard.
func NewSquatScorer(s standards.Standard) *SquatScorer {
	_, bottomHi := bounds(s, standards.BottomKneeAngle, 80, 100)
	return &SquatScorer{
		excellentBelow: threshold(s, standards.ExcellentKneeAngle, 90),
		parallelBelow:  threshold(s, standards.ParallelKneeAngle, 110),
		kneeCave:       threshold(s, standards.KneeTracking, 20),
		phaseSplit:     (bottomHi + straightBody) / 2,
	}
}

// Score implements Scorer.
func (q *SquatScorer) Score(in Input) Result {
	var res Result

	if knee, _, ok := angleAt(in, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle); ok {
		res.Angles = append(res.Angles, Measurement{Name: KneeAngle, Degrees: knee})
		switch {
		case knee < q.excellentBelow:
			res.Tokens = append(res.Tokens, feedback.Good(MsgSquatDepthExcellent))
		case knee < q.parallelBelow:
			res.Tokens = append(res.Tokens, feedback.Good(MsgSquatDepthParallel))
		default:
			res.Tokens = append(res.Tokens, feedback.Warn(MsgSquatTooShallow))
		}
		res.Phase = exercise.Top
		if knee < q.phaseSplit {
			res.Phase = exercise.Bottom
		}
	}

	if pts, ok := pixels(in, pose.LeftKnee, pose.LeftAnkle); ok {
		if pts[0].X < pts[1].X-q.kneeCave {
			res.Tokens = append(res.Tokens, feedback.Warn(MsgSquatKneesCaving))
		} else {
			res.Tokens = append(res.Tokens, feedback.Good(MsgSquatKneeTracking))
		}
	}

	if hip, _, ok := angleAt(in, pose.LeftKnee, pose.LeftHip, pose.LeftShoulder); ok {
		res.Angles = append(res.Angles, Measurement{Name: HipAngle, Degrees: hip})
	}

	return res
}
