package scoring

import (
	"math"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/feedback"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
	"gonum.org/v1/gonum/spatial/r2"
)

const straightBody = 180.0

// PushupScorer grades elbow depth and shoulder-hip-ankle alignment.
type PushupScorer struct {
	depthBelow    float64 // elbow angle under which depth is good
	shallowAbove  float64 // elbow angle over which the rep is too shallow
	maxBodyBend   float64 // allowed deviation of the body line from 180 degrees
	hipLineOffset float64 // pixels the hip may sit above the shoulder-ankle line
	phaseSplit    float64
}

// NewPushupScorer builds a push-up scorer from its standard.
func NewPushupScorer(s standards.Standard) *PushupScorer {
	bottomLo, bottomHi := bounds(s, standards.BottomElbowAngle, 80, 95)
	topLo, _ := bounds(s, standards.TopElbowAngle, 160, 180)
	return &PushupScorer{
		depthBelow:    bottomLo,
		shallowAbove:  threshold(s, standards.ShallowElbowAngle, 120),
		maxBodyBend:   threshold(s, standards.HipAlignment, 15),
		hipLineOffset: threshold(s, standards.HipLineOffset, 20),
		phaseSplit:    (bottomHi + topLo) / 2,
	}
}

// Score implements Scorer.
func (p *PushupScorer) Score(in Input) Result {
	var res Result

	if elbow, _, ok := angleAt(in, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist); ok {
		res.Angles = append(res.Angles, Measurement{Name: ElbowAngle, Degrees: elbow})
		switch {
		case elbow < p.depthBelow:
			res.Tokens = append(res.Tokens, feedback.Good(MsgPushupDepthGood))
		case elbow > p.shallowAbove:
			res.Tokens = append(res.Tokens, feedback.Warn(MsgPushupTooShallow))
		}
		res.Phase = exercise.Top
		if elbow < p.phaseSplit {
			res.Phase = exercise.Bottom
		}
	}

	if body, pts, ok := angleAt(in, pose.LeftShoulder, pose.LeftHip, pose.LeftAnkle); ok {
		shoulder, hip, ankle := pts[0], pts[1], pts[2]
		res.Angles = append(res.Angles, Measurement{Name: BodyAngle, Degrees: body})
		switch {
		case math.Abs(body-straightBody) <= p.maxBodyBend:
			res.Tokens = append(res.Tokens, feedback.Good(MsgPushupAlignmentGood))
		case hip.Y < lineYAt(shoulder, ankle, hip.X)-p.hipLineOffset:
			res.Tokens = append(res.Tokens, feedback.Warn(MsgPushupHipsTooHigh))
		default:
			res.Tokens = append(res.Tokens, feedback.Warn(MsgPushupHipsSagging))
		}
	}

	return res
}

// lineYAt returns the Y of the line a-b at the given X. A vertical line has
// no single answer; its midpoint is used.
func lineYAt(a, b r2.Vec, x float64) float64 {
	dx := b.X - a.X
	if math.Abs(dx) < 1e-9 {
		return (a.Y + b.Y) / 2
	}
	return a.Y + (x-a.X)*(b.Y-a.Y)/dx
}
