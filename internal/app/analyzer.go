package service

import (
	"context"
	"fmt"
	"io"

	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/annotate"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/detector"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pipeline"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/scoring"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

// Analyzer runs the frame pipeline for one job. It implements
// worker.Analyzer.
type Analyzer struct {
	ProcessedDir    string
	DetectorCommand string
	MinVisibility   float64
	TopFeedback     int
	Overlay         bool
	Standards       *standards.Table
	Logger          logger.Logger
}

type source interface {
	pipeline.Source
	io.Closer
}

// Analyze opens the job's landmark source, streams it through a session and
// returns the report together with the annotation file path.
func (a *Analyzer) Analyze(ctx context.Context, job model.Job) (model.Result, error) { //nolint:gocritic // jobs travel by value
	log := a.Logger
	if log == nil {
		log = logger.Nop()
	}

	src, err := a.open(ctx, job, log)
	if err != nil {
		return model.Result{}, err
	}
	defer func() { _ = src.Close() }()

	sink, err := annotate.Create(annotate.PathFor(a.ProcessedDir, job.UploadPath))
	if err != nil {
		return model.Result{}, err
	}
	defer func() { _ = sink.Close() }()

	opts := []pipeline.Option{
		pipeline.WithOverlay(a.Overlay),
		pipeline.WithLogger(log.Named("pipeline")),
	}
	if a.Standards != nil {
		opts = append(opts, pipeline.WithRegistry(scoring.NewRegistry(scoring.WithStandards(a.Standards))))
	}
	if a.TopFeedback > 0 {
		opts = append(opts, pipeline.WithReportOptions(report.WithTopN(a.TopFeedback)))
	}

	rep, err := pipeline.Run(ctx, src, sink, opts...)
	if err != nil {
		return model.Result{}, err
	}
	if err := sink.Close(); err != nil {
		return model.Result{}, fmt.Errorf("finish annotations: %w", err)
	}
	return model.Result{Report: rep, ProcessedFile: sink.Path()}, nil
}

func (a *Analyzer) open(ctx context.Context, job model.Job, log logger.Logger) (source, error) { //nolint:gocritic // jobs travel by value
	opts := []detector.Option{
		detector.WithMinVisibility(a.MinVisibility),
		detector.WithLogger(log),
	}
	if job.Kind == model.InputLandmarks {
		return detector.Open(job.UploadPath, opts...)
	}
	if a.DetectorCommand == "" {
		return nil, fmt.Errorf("%w: cannot analyze %q", detector.ErrNoCommand, job.Filename)
	}
	return detector.Start(ctx, a.DetectorCommand, job.UploadPath, opts...)
}
