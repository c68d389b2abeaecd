// Package scoring defines the per-exercise form scorers and the registry the
// pipeline uses to look them up by category.
package scoring

import (
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/feedback"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/geometry"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
	"gonum.org/v1/gonum/spatial/r2"
)

// Measurement names reported in Result.Angles.
const (
	ElbowAngle = "elbow_angle"
	BodyAngle  = "body_angle"
	KneeAngle  = "knee_angle"
	HipAngle   = "hip_angle"
	BodySwing  = "body_swing"
)

// Input is one frame's landmarks plus the pixel size of that frame.
type Input struct {
	Frame pose.Frame
	Dims  pose.Dimensions
}

// Measurement is a raw angle, in degrees, that a scorer computed.
type Measurement struct {
	Name    string  `json:"name"`
	Degrees float64 `json:"degrees"`
}

// Result is what a scorer observed in a single frame. Tokens holds at most
// one entry per check and only covers the current frame.
type Result struct {
	Tokens []feedback.Token
	Angles []Measurement
	// Phase is empty when the scorer could not tell.
	Phase exercise.Phase
}

// Angle returns the named measurement.
func (r Result) Angle(name string) (float64, bool) {
	for _, m := range r.Angles {
		if m.Name == name {
			return m.Degrees, true
		}
	}
	return 0, false
}

// Scorer grades one frame for a single exercise. Implementations must be pure
// and must skip any check whose joints are missing from the frame.
type Scorer interface {
	Score(in Input) Result
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(in Input) Result

// Score implements Scorer.
func (f ScorerFunc) Score(in Input) Result { return f(in) }

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithStandards builds the built-in scorers from the given table instead of
// the embedded defaults.
func WithStandards(t *standards.Table) Option {
	return func(r *Registry) {
		if t != nil {
			r.table = t
		}
	}
}

// WithScorer registers or replaces the scorer for a category.
func WithScorer(cat exercise.Category, s Scorer) Option {
	return func(r *Registry) {
		if s != nil {
			r.custom[cat] = s
		}
	}
}

// Registry resolves the scorer for an exercise category. Adding an exercise
// means adding a scorer and a standards entry; the pipeline is unchanged.
type Registry struct {
	table   *standards.Table
	custom  map[exercise.Category]Scorer
	scorers map[exercise.Category]Scorer
}

// NewRegistry creates a registry holding the built-in scorers.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		table:  standards.Default(),
		custom: make(map[exercise.Category]Scorer),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.scorers = map[exercise.Category]Scorer{
		exercise.Pushup:  NewPushupScorer(r.standard(exercise.Pushup)),
		exercise.Squat:   NewSquatScorer(r.standard(exercise.Squat)),
		exercise.Pullup:  NewPullupScorer(r.standard(exercise.Pullup)),
		exercise.General: GeneralScorer{},
	}
	for cat, s := range r.custom {
		r.scorers[cat] = s
	}
	return r
}

// Lookup returns the scorer for cat.
func (r *Registry) Lookup(cat exercise.Category) (Scorer, bool) {
	s, ok := r.scorers[cat]
	return s, ok
}

// Standards returns the table the built-in scorers were built from.
func (r *Registry) Standards() *standards.Table { return r.table }

func (r *Registry) standard(cat exercise.Category) standards.Standard {
	s, _ := r.table.For(cat)
	return s
}

// threshold reads a single-value check, falling back to def when absent.
func threshold(s standards.Standard, name string, def float64) float64 {
	if c, ok := s.Check(name); ok {
		if v, ok := c.Threshold(); ok {
			return v
		}
	}
	return def
}

// bounds reads a range check, falling back to the given defaults when absent.
func bounds(s standards.Standard, name string, lo, hi float64) (float64, float64) {
	if c, ok := s.Check(name); ok {
		if l, h, ok := c.Range(); ok {
			return l, h
		}
	}
	return lo, hi
}

// pixels returns the joints in pixel space. It fails when a joint is missing
// or the frame has no usable size.
func pixels(in Input, js ...pose.Joint) ([]r2.Vec, bool) {
	if !in.Dims.Valid() {
		return nil, false
	}
	return in.Frame.Pixels(in.Dims, js...)
}

// angleAt measures the angle at b. It fails when pixels fails or the angle
// is degenerate, so callers skip the check instead of grading a sentinel.
func angleAt(in Input, a, b, c pose.Joint) (float64, []r2.Vec, bool) {
	pts, ok := pixels(in, a, b, c)
	if !ok {
		return 0, nil, false
	}
	deg, ok := geometry.Measure(pts[0], pts[1], pts[2])
	if !ok {
		return 0, nil, false
	}
	return deg, pts, true
}
