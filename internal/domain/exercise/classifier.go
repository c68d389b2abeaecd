package exercise

import (
	"math"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
)

// Default decision thresholds, in normalized frame heights.
const (
	defaultPushupAnkleGap    = 0.3
	defaultShoulderLevelSkew = 0.1
)

// RequiredJoints are the landmarks the decision tree reads. A frame missing
// any of them cannot be classified.
var RequiredJoints = []pose.Joint{
	pose.LeftShoulder, pose.RightShoulder, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
}

// Option applies a configuration option to the Classifier.
type Option func(*Classifier)

// WithPushupAnkleGap sets the maximum shoulder-to-ankle height gap for a
// frame to count as a push-up.
func WithPushupAnkleGap(gap float64) Option {
	return func(c *Classifier) {
		if gap > 0 {
			c.pushupAnkleGap = gap
		}
	}
}

// WithShoulderLevelSkew sets the maximum left/right shoulder height
// difference for a frame to count as a pull-up.
func WithShoulderLevelSkew(skew float64) Option {
	return func(c *Classifier) {
		if skew > 0 {
			c.shoulderLevelSkew = skew
		}
	}
}

// Classifier maps a landmark frame to a Category using relative joint heights.
type Classifier struct {
	pushupAnkleGap    float64
	shoulderLevelSkew float64
}

// NewClassifier creates a classifier with the default thresholds.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{
		pushupAnkleGap:    defaultPushupAnkleGap,
		shoulderLevelSkew: defaultShoulderLevelSkew,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the decision tree. The second return value is false when the
// frame lacks one of RequiredJoints.
//
// Branches are evaluated in a fixed order (push-up, squat, pull-up, general)
// and a frame that sits on a threshold falls through to the next branch.
// Heights are normalized Y values, so "greater" means lower in the frame.
func (c *Classifier) Classify(f pose.Frame) (Category, bool) {
	if !f.Has(RequiredJoints...) {
		return "", false
	}
	ls, _ := f.Get(pose.LeftShoulder)
	rs, _ := f.Get(pose.RightShoulder)
	hip, _ := f.Get(pose.LeftHip)
	knee, _ := f.Get(pose.LeftKnee)
	ankle, _ := f.Get(pose.LeftAnkle)

	shoulder := (ls.Y + rs.Y) / 2

	switch {
	case shoulder > hip.Y && math.Abs(shoulder-ankle.Y) < c.pushupAnkleGap:
		return Pushup, true
	case knee.Y > ankle.Y && hip.Y > knee.Y:
		return Squat, true
	case shoulder < hip.Y && math.Abs(ls.Y-rs.Y) < c.shoulderLevelSkew:
		return Pullup, true
	default:
		return General, true
	}
}
