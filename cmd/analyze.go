package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb/v3"
	"github.com/spf13/cobra"

	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/annotate"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/detector"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pipeline"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/scoring"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/standards"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

const progressTemplate = `{{ string . "prefix" }} {{counters . "%s/%s" "%s/?"}} {{bar . }} {{percent . "%.03f%%" "?"}} {{etime . "%s elapsed"}} {{rtime . "%s remain" "%s total" "???"}}`

type analyzeFlags struct {
	input         string
	overlay       string
	detector      string
	standardsFile string
	logLevel      string
	minVisibility float64
	top           int
	skeleton      bool
	progress      bool
}

func newAnalyzeCmd() *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one landmark file or video and print the report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return analyze(cmd.Context(), cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "landmark JSONL file, or a video when --detector is set")
	cmd.Flags().StringVarP(&f.overlay, "overlay", "o", "", "write per-frame annotations to this JSONL file")
	cmd.Flags().StringVar(&f.detector, "detector", "", `detector command template, "{input}" is replaced by the input path`)
	cmd.Flags().StringVar(&f.standardsFile, "standards", "", "YAML file replacing the built-in form standards")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "warn", "debug, info, warn or error")
	cmd.Flags().Float64Var(&f.minVisibility, "min-visibility", 0.5, "drop landmarks below this visibility")
	cmd.Flags().IntVar(&f.top, "top", report.DefaultTopN, "ranked feedback entries in the report")
	cmd.Flags().BoolVar(&f.skeleton, "skeleton", true, "include the reference skeleton in annotations")
	cmd.Flags().BoolVar(&f.progress, "progress", true, "show a progress bar on stderr")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func analyze(ctx context.Context, cmd *cobra.Command, f analyzeFlags) error {
	if err := initLogger(cmd, "text", f.logLevel); err != nil {
		return err
	}
	log := logger.Get()

	opts := []pipeline.Option{
		pipeline.WithOverlay(f.skeleton),
		pipeline.WithLogger(log.Named("pipeline")),
		pipeline.WithReportOptions(report.WithTopN(f.top)),
	}
	if f.standardsFile != "" {
		table, err := standards.LoadFile(f.standardsFile)
		if err != nil {
			return err
		}
		opts = append(opts, pipeline.WithRegistry(scoring.NewRegistry(scoring.WithStandards(table))))
	}

	detOpts := []detector.Option{
		detector.WithMinVisibility(f.minVisibility),
		detector.WithLogger(log.Named("detector")),
	}
	var (
		src   pipeline.Source
		total int
	)
	if f.detector != "" {
		proc, err := detector.Start(ctx, f.detector, f.input, detOpts...)
		if err != nil {
			return err
		}
		defer func() { _ = proc.Close() }()
		src = proc
	} else {
		n, err := countLines(f.input)
		if err != nil {
			return fmt.Errorf("%w: %w", detector.ErrOpenSource, err)
		}
		r, err := detector.Open(f.input, detOpts...)
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		src, total = r, n
	}

	var sink pipeline.Sink
	if f.overlay != "" {
		w, err := annotate.Create(f.overlay)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		sink = w
	}

	if f.progress {
		bar := pb.ProgressBarTemplate(progressTemplate).New(total).SetWriter(cmd.ErrOrStderr())
		bar.Set("prefix", "frames")
		bar.Start()
		defer bar.Finish()
		src = &progressSource{src: src, bar: bar}
	}

	rep, err := pipeline.Run(ctx, src, sink, opts...)
	if err != nil {
		return err
	}
	if c, ok := sink.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("finish annotations: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

// progressSource advances bar once per frame read, decodable or not.
type progressSource struct {
	src pipeline.Source
	bar *pb.ProgressBar
}

func (p *progressSource) Next(ctx context.Context) (pipeline.Input, error) {
	in, err := p.src.Next(ctx)
	if err == nil || errors.Is(err, pipeline.ErrFrameDecode) {
		p.bar.Increment()
	}
	return in, err
}

// countLines counts non-blank lines, which is the frame count of a
// landmark file.
func countLines(path string) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = fh.Close() }()

	sc := bufio.NewScanner(fh)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) > 0 {
			n++
		}
	}
	return n, sc.Err()
}
