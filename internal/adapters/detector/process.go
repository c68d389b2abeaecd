package detector

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pipeline"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

// InputPlaceholder is replaced by the upload path in a command template.
const InputPlaceholder = "{input}"

// Command expands a detector command template such as
// "python detect.py --video {input}" into argv. The input path is appended
// when the template has no placeholder.
func Command(template, input string) ([]string, error) {
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, ErrNoCommand
	}
	replaced := false
	for i, f := range fields {
		if strings.Contains(f, InputPlaceholder) {
			fields[i] = strings.ReplaceAll(f, InputPlaceholder, input)
			replaced = true
		}
	}
	if !replaced {
		fields = append(fields, input)
	}
	return fields, nil
}

// Process runs the external detector on one video and reads landmark JSONL
// from its stdout. It implements pipeline.Source.
type Process struct {
	*Reader
	cmd    *exec.Cmd
	stderr sync.WaitGroup

	waitOnce sync.Once
	waitErr  error
}

var _ pipeline.Source = (*Process)(nil)

// Start launches the detector for input. The process is killed when ctx is
// done.
func Start(ctx context.Context, template, input string, opts ...Option) (*Process, error) {
	argv, err := Command(template, input)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // operator-configured command
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrOpenSource, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %w", ErrOpenSource, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", ErrOpenSource, argv[0], err)
	}

	p := &Process{Reader: NewReader(stdout, opts...), cmd: cmd}
	p.logger = p.logger.Named("detector")
	p.logger.Debug(ctx, "detector started", logger.String("command", argv[0]), logger.Int("pid", cmd.Process.Pid))

	p.stderr.Add(1)
	go p.logStderr(ctx, stderr)
	return p, nil
}

// Next returns the next frame. After the last frame it waits for the
// process and returns io.EOF only if the detector exited cleanly.
func (p *Process) Next(ctx context.Context) (pipeline.Input, error) {
	in, err := p.Reader.Next(ctx)
	if !errors.Is(err, io.EOF) {
		return in, err
	}
	if werr := p.wait(); werr != nil {
		return pipeline.Input{}, werr
	}
	return pipeline.Input{}, io.EOF
}

// Close stops the detector if it is still running.
func (p *Process) Close() error {
	if p.cmd.ProcessState == nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.wait()
	return nil
}

func (p *Process) wait() error {
	p.waitOnce.Do(func() {
		p.stderr.Wait()
		if err := p.cmd.Wait(); err != nil {
			p.waitErr = fmt.Errorf("%w: %w", ErrDetectorExit, err)
		}
	})
	return p.waitErr
}

func (p *Process) logStderr(ctx context.Context, r io.Reader) {
	defer p.stderr.Done()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "ERROR"), strings.Contains(line, "CRITICAL"):
			p.logger.Error(ctx, "detector error", logger.String("log", line))
		case strings.Contains(line, "WARN"):
			p.logger.Warn(ctx, "detector warning", logger.String("log", line))
		default:
			p.logger.Debug(ctx, "detector log", logger.String("log", line))
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		p.logger.Warn(ctx, "reading detector stderr", logger.Error(err))
	}
}
