package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
	"github.com/vitazok/exercise-analyzer-backend/pkg/metrics"
)

// Source yields frames in video order and returns io.EOF after the last one.
// Errors wrapping ErrFrameDecode are local to one frame; any other error
// ends the run.
type Source interface {
	Next(ctx context.Context) (Input, error)
}

// Sink receives the output of every scored frame.
type Sink interface {
	Write(ctx context.Context, out Output) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, out Output) error

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, out Output) error { return f(ctx, out) }

// Run reads src to the end through a new session and returns its report.
// sink may be nil. Sink failures are logged and do not stop the run.
func Run(ctx context.Context, src Source, sink Sink, opts ...Option) (report.Report, error) {
	if src == nil {
		return report.Report{}, ErrNilSource
	}
	s := NewSession(opts...)
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return report.Report{}, fmt.Errorf("analysis stopped after %d frames: %w", s.Frames(), err)
		}

		in, err := src.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			rep := s.Report()
			s.log.Info(ctx, "analysis finished",
				logger.String("category", rep.ExerciseType.String()),
				logger.Int("frames", rep.TotalFrames),
				logger.Int("scored_frames", rep.ScoredFrames),
				logger.Int("positive", rep.PositiveCount),
				logger.Int("warnings", rep.WarningCount),
				logger.Duration("took", time.Since(start)),
			)
			return rep, nil
		case errors.Is(err, ErrFrameDecode):
			s.Skip()
			metrics.RecordFrameError("decode")
			s.log.Warn(ctx, "skipping undecodable frame", logger.Int("frame", s.Frames()), logger.Error(err))
			continue
		case err != nil:
			return report.Report{}, fmt.Errorf("read frame %d: %w", s.Frames()+1, err)
		}

		out, ok := s.Process(ctx, in)
		if !ok || sink == nil {
			continue
		}
		if err := sink.Write(ctx, out); err != nil {
			metrics.RecordFrameError("sink")
			s.log.Warn(ctx, "overlay write failed", logger.Int("frame", in.Index), logger.Error(err))
		}
	}
}
