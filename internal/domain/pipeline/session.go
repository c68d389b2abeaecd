// Package pipeline drives a single analysis session: it fixes the exercise
// category from the first usable frame, scores every later frame, and
// reduces the collected feedback into a report.
package pipeline

import (
	"context"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/feedback"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/ghost"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/scoring"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
	"github.com/vitazok/exercise-analyzer-backend/pkg/metrics"
)

// Overlay settings.
const (
	OverlayAlpha  = 0.3
	CaptionTokens = 3
)

// State is the session's position in its two-state lifecycle.
type State int

// States.
const (
	AwaitingFirstDetection State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "TRACKING"
	}
	return "AWAITING_FIRST_DETECTION"
}

// Input is one decoded frame. An empty Frame means nobody was detected.
type Input struct {
	Index int
	Dims  pose.Dimensions
	Frame pose.Frame
}

// Detected reports whether the frame carries any landmarks.
func (in Input) Detected() bool { return !in.Frame.Empty() }

// Overlay asks the renderer to blend a reference skeleton over the frame.
type Overlay struct {
	Alpha    float64        `json:"alpha"`
	Phase    exercise.Phase `json:"phase"`
	Skeleton ghost.Skeleton `json:"skeleton"`
}

// Output is what a scored frame produces for visualization.
type Output struct {
	Index    int                   `json:"frame_index"`
	Category exercise.Category     `json:"category"`
	Tokens   []feedback.Token      `json:"tokens"`
	Caption  []string              `json:"caption"`
	Angles   []scoring.Measurement `json:"angles,omitempty"`
	Overlay  *Overlay              `json:"overlay,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithClassifier replaces the default classifier.
func WithClassifier(c *exercise.Classifier) Option {
	return func(s *Session) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithRegistry replaces the default scorer registry.
func WithRegistry(r *scoring.Registry) Option {
	return func(s *Session) {
		if r != nil {
			s.scorers = r
		}
	}
}

// WithPoses replaces the built-in reference pose table.
func WithPoses(l *ghost.Library) Option {
	return func(s *Session) {
		if l != nil {
			s.poses = l
		}
	}
}

// WithOverlay toggles overlay instructions on scored frames.
func WithOverlay(enabled bool) Option {
	return func(s *Session) { s.overlay = enabled }
}

// WithLogger sets the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithReportOptions forwards options to report synthesis.
func WithReportOptions(opts ...report.Option) Option {
	return func(s *Session) { s.reportOpts = append(s.reportOpts, opts...) }
}

// Session holds the state of one analysis. It is not safe for concurrent use.
type Session struct {
	classifier *exercise.Classifier
	scorers    *scoring.Registry
	poses      *ghost.Library
	overlay    bool
	log        logger.Logger
	reportOpts []report.Option

	state    State
	category exercise.Category
	frames   int
	stream   feedback.Stream
}

// NewSession creates a session awaiting its first detection.
func NewSession(opts ...Option) *Session {
	s := &Session{
		overlay: true,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.classifier == nil {
		s.classifier = exercise.NewClassifier()
	}
	if s.scorers == nil {
		s.scorers = scoring.NewRegistry()
	}
	if s.poses == nil {
		s.poses = ghost.Default()
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Category returns the fixed category, or empty while awaiting detection.
func (s *Session) Category() exercise.Category { return s.category }

// Frames returns how many frames the session has seen.
func (s *Session) Frames() int { return s.frames }

// Stream returns the feedback collected so far.
func (s *Session) Stream() feedback.Stream { return s.stream }

// Skip counts a frame that could not be decoded.
func (s *Session) Skip() { s.frames++ }

// Process advances the session by one frame. The boolean is false when the
// frame produced nothing: no person, or no category fixed yet.
func (s *Session) Process(ctx context.Context, in Input) (Output, bool) {
	s.frames++
	if !in.Detected() {
		metrics.RecordFrameWithoutDetection()
		return Output{}, false
	}

	if s.state == AwaitingFirstDetection {
		cat, ok := s.classifier.Classify(in.Frame)
		if !ok {
			s.log.Debug(ctx, "frame lacks joints needed for classification", logger.Int("frame", in.Index))
			return Output{}, false
		}
		s.category = cat
		s.state = Tracking
		metrics.RecordClassification(cat.String())
		s.log.Info(ctx, "exercise detected",
			logger.String("category", cat.String()),
			logger.Int("frame", in.Index),
		)
	}

	scorer, ok := s.scorers.Lookup(s.category)
	if !ok {
		s.log.Warn(ctx, "no scorer registered", logger.String("category", s.category.String()))
		return Output{}, false
	}
	res := scorer.Score(scoring.Input{Frame: in.Frame, Dims: in.Dims})

	s.stream = append(s.stream, feedback.Frame{Index: in.Index, Tokens: res.Tokens})
	metrics.RecordFrameProcessed(s.category.String())
	for _, t := range res.Tokens {
		metrics.RecordFeedbackToken(s.category.String(), string(t.Polarity))
	}

	out := Output{
		Index:    in.Index,
		Category: s.category,
		Tokens:   res.Tokens,
		Caption:  caption(res.Tokens),
		Angles:   res.Angles,
	}
	if s.overlay {
		phase := res.Phase
		if phase == "" {
			phase = exercise.Bottom
		}
		if sk := s.poses.Pose(s.category, phase, in.Dims); !sk.Empty() {
			out.Overlay = &Overlay{Alpha: OverlayAlpha, Phase: phase, Skeleton: sk}
		}
	}
	return out, true
}

// Report synthesizes the end-of-session report.
func (s *Session) Report() report.Report {
	return report.Synthesize(s.category, s.frames, s.stream, s.reportOpts...)
}

func caption(tokens []feedback.Token) []string {
	if len(tokens) > CaptionTokens {
		tokens = tokens[len(tokens)-CaptionTokens:]
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.String()
	}
	return out
}
