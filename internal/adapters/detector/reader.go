// Package detector reads landmark streams produced by the external pose
// estimator, either from a file or from a detector process's stdout.
//
// The stream is newline-delimited JSON with one object per decoded frame:
//
//	{"frame_index":0,"width":1280,"height":720,"landmarks":{"LEFT_SHOULDER":{"x":0.41,"y":0.52,"z":-0.1,"visibility":0.98}}}
//
// A null or empty "landmarks" means nobody was detected in that frame.
// Width and height are required and must be positive.
package detector

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pipeline"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pose"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

const maxLineBytes = 1 << 20

type record struct {
	FrameIndex *int                     `json:"frame_index"`
	Width      int                      `json:"width"`
	Height     int                      `json:"height"`
	Landmarks  map[string]pose.Landmark `json:"landmarks"`
}

// Reader decodes a landmark stream. It implements pipeline.Source.
type Reader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	seq     int
	settings
}

var _ pipeline.Source = (*Reader)(nil)

// NewReader reads frames from r. Closing the Reader closes r when it is an
// io.Closer.
func NewReader(r io.Reader, opts ...Option) *Reader {
	rd := &Reader{settings: defaults()}
	for _, opt := range opts {
		opt(&rd.settings)
	}
	rd.scanner = bufio.NewScanner(r)
	rd.scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// Open reads frames from the file at path.
func Open(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the job store
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpenSource, err)
	}
	return NewReader(f, opts...), nil
}

// Next returns the next frame, or io.EOF after the last one. A line that
// cannot be decoded yields an error wrapping pipeline.ErrFrameDecode.
func (r *Reader) Next(ctx context.Context) (pipeline.Input, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		in, err := r.decode(ctx, raw)
		r.seq++
		return in, err
	}
	if err := r.scanner.Err(); err != nil {
		return pipeline.Input{}, fmt.Errorf("landmark stream line %d: %w", r.line+1, err)
	}
	return pipeline.Input{}, io.EOF
}

func (r *Reader) decode(ctx context.Context, raw []byte) (pipeline.Input, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return pipeline.Input{}, fmt.Errorf("%w: line %d: %v", pipeline.ErrFrameDecode, r.line, err) //nolint:errorlint // one wrapped sentinel
	}

	dims := pose.Dimensions{Width: rec.Width, Height: rec.Height}
	if !dims.Valid() {
		return pipeline.Input{}, fmt.Errorf("%w: line %d: frame size %dx%d", pipeline.ErrFrameDecode, r.line, rec.Width, rec.Height)
	}

	in := pipeline.Input{Index: r.seq, Dims: dims}
	if rec.FrameIndex != nil {
		in.Index = *rec.FrameIndex
	}
	if len(rec.Landmarks) == 0 {
		return in, nil
	}

	marks := make(map[pose.Joint]pose.Landmark, len(rec.Landmarks))
	for name, lm := range rec.Landmarks {
		j, ok := pose.ParseJoint(name)
		if !ok {
			r.logger.Debug(ctx, "ignoring unknown joint", logger.String("joint", name), logger.Int("line", r.line))
			continue
		}
		if lm.Visibility < r.minVisibility {
			continue
		}
		marks[j] = lm
	}
	in.Frame = pose.NewFrame(marks)
	return in, nil
}

// Close releases the underlying reader.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}
