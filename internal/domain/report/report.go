// Package report reduces a session's feedback stream into the final
// analysis report returned to callers.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/feedback"
)

// DefaultTopN is the number of ranked entries in TopFeedback.
const DefaultTopN = 5

// Entry is one ranked feedback text.
type Entry struct {
	Text       string  `json:"text"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Report is the end-of-session analysis.
type Report struct {
	ExerciseType    exercise.Category `json:"exercise_type"`
	TotalFrames     int               `json:"total_frames"`
	ScoredFrames    int               `json:"scored_frames"`
	Feedback        []string          `json:"feedback"`
	Summary         string            `json:"summary"`
	PositiveCount   int               `json:"positive_count"`
	WarningCount    int               `json:"warning_count"`
	TopFeedback     []Entry           `json:"top_feedback"`
	Recommendations []string          `json:"recommendations"`
	AnalyzedAt      time.Time         `json:"analyzed_at"`

	// Stream keeps the per-frame grouping of Feedback.
	Stream feedback.Stream `json:"-"`
}

// UniqueFeedback lists each distinct feedback text once. The order is not
// guaranteed.
func (r Report) UniqueFeedback() []string {
	uniq := feedback.Unique(r.Stream.Tokens())
	out := make([]string, len(uniq))
	for i, t := range uniq {
		out[i] = t.String()
	}
	return out
}

type options struct {
	topN int
	now  func() time.Time
}

// Option configures Synthesize.
type Option func(*options)

// WithTopN sets how many ranked entries are reported. Values below one are
// ignored.
func WithTopN(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.topN = n
		}
	}
}

// WithClock sets the time source for AnalyzedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Synthesize builds the report for a finished session. An empty category
// means no person was ever detected and is reported as unknown.
func Synthesize(cat exercise.Category, totalFrames int, stream feedback.Stream, opts ...Option) Report {
	o := options{topN: DefaultTopN, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if cat == "" {
		cat = exercise.Unknown
	}

	tokens := stream.Tokens()
	r := Report{
		ExerciseType:    cat,
		TotalFrames:     totalFrames,
		ScoredFrames:    len(stream),
		Feedback:        make([]string, 0, len(tokens)),
		TopFeedback:     []Entry{},
		Recommendations: Recommendations(cat),
		AnalyzedAt:      o.now().UTC(),
		Stream:          stream,
	}

	for _, t := range tokens {
		r.Feedback = append(r.Feedback, t.String())
		switch t.Polarity {
		case feedback.Positive:
			r.PositiveCount++
		case feedback.Warning:
			r.WarningCount++
		}
	}

	r.TopFeedback = rank(r.Feedback, o.topN)
	r.Summary = summarize(r)
	return r
}

// rank counts distinct texts, orders them by count with ties kept in
// first-occurrence order, and keeps the first n.
func rank(texts []string, n int) []Entry {
	if len(texts) == 0 {
		return []Entry{}
	}

	index := make(map[string]int)
	var entries []Entry
	for _, t := range texts {
		i, ok := index[t]
		if !ok {
			i = len(entries)
			index[t] = i
			entries = append(entries, Entry{Text: t})
		}
		entries[i].Count++
	}

	sort.SliceStable(entries, func(a, b int) bool { return entries[a].Count > entries[b].Count })
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Percentage = percentage(entries[i].Count, len(texts))
	}
	return entries
}

// percentage is count/total as a percent floored to one decimal, so ranked
// shares never add up to more than 100.
func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Floor(float64(count)*1000/float64(total)) / 10
}

func summarize(r Report) string {
	if r.ExerciseType == exercise.Unknown {
		return fmt.Sprintf("No person detected in %d frames; no feedback produced.", r.TotalFrames)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Detected %s across %d frames (%d scored). ", r.ExerciseType, r.TotalFrames, r.ScoredFrames)
	fmt.Fprintf(&b, "%d positive points, %d areas for improvement.", r.PositiveCount, r.WarningCount)
	if len(r.TopFeedback) > 0 {
		top := r.TopFeedback[0]
		fmt.Fprintf(&b, " Most common: %s (%.1f%% of feedback).", top.Text, top.Percentage)
	}
	return b.String()
}
