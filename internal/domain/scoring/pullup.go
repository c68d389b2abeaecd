package scoring

import (
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/feedback"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/geometry"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
)

// PullupScorer grades range of motion at the elbow and body swing.
type PullupScorer struct {
	topAtMost     float64
	bottomAtLeast float64
	maxSwing      float64
	phaseSplit    float64
}

// NewPullupScorer builds a pull-up scorer from its standard.
func NewPullupScorer(s standards.Standard) *PullupScorer {
	_, topHi := bounds(s, standards.TopElbowAngle, 30, 60)
	bottomLo, _ := bounds(s, standards.BottomElbowAngle, 160, 180)
	return &PullupScorer{
		topAtMost:     topHi,
		bottomAtLeast: bottomLo,
		maxSwing:      threshold(s, standards.BodySwing, 15),
		phaseSplit:    (topHi + bottomLo) / 2,
	}
}

// Score implements Scorer.
func (p *PullupScorer) Score(in Input) Result {
	var res Result

	if elbow, _, ok := angleAt(in, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist); ok {
		res.Angles = append(res.Angles, Measurement{Name: ElbowAngle, Degrees: elbow})
		switch {
		case elbow <= p.topAtMost:
			res.Tokens = append(res.Tokens, feedback.Good(MsgPullupTopGood))
		case elbow >= p.bottomAtLeast:
			res.Tokens = append(res.Tokens, feedback.Good(MsgPullupBottomGood))
		}
		res.Phase = exercise.Bottom
		if elbow < p.phaseSplit {
			res.Phase = exercise.Top
		}
	}

	if pts, ok := pixels(in, pose.LeftShoulder, pose.LeftAnkle); ok {
		swing, measured := geometry.DeviationFromVertical(pts[0], pts[1])
		if !measured {
			return res
		}
		res.Angles = append(res.Angles, Measurement{Name: BodySwing, Degrees: swing})
		if swing > p.maxSwing {
			res.Tokens = append(res.Tokens, feedback.Warn(MsgPullupSwing))
		} else {
			res.Tokens = append(res.Tokens, feedback.Good(MsgPullupStableSwing))
		}
	}

	return res
}
