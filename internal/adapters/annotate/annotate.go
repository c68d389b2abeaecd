// Package annotate writes the per-frame overlay instructions of an analysis
// as newline-delimited JSON, one line per scored frame.
package annotate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vitazok/exercise-analyzer-backend/internal/domain/pipeline"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("annotation writer closed")

// Suffix is appended to the upload's base name.
const Suffix = ".overlay.jsonl"

// PathFor returns where the annotations of upload are stored under dir.
func PathFor(dir, upload string) string {
	base := filepath.Base(upload)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "processed_"+base+Suffix)
}

// Writer is a pipeline.Sink that encodes every Output it receives.
type Writer struct {
	mu     sync.Mutex
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
	path   string
	frames int
	closed bool
}

var _ pipeline.Sink = (*Writer)(nil)

// NewWriter writes to w. Close flushes and closes w when it is an io.Closer.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriter(w)
	aw := &Writer{buf: buf, enc: json.NewEncoder(buf)}
	aw.enc.SetEscapeHTML(false)
	if c, ok := w.(io.Closer); ok {
		aw.closer = c
	}
	return aw
}

// Create truncates or creates the file at path, making parent directories.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create annotation dir: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // path is built by PathFor
	if err != nil {
		return nil, fmt.Errorf("create annotation file: %w", err)
	}
	w := NewWriter(f)
	w.path = path
	return w, nil
}

// Write implements pipeline.Sink.
func (w *Writer) Write(_ context.Context, out pipeline.Output) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if err := w.enc.Encode(out); err != nil {
		return fmt.Errorf("encode frame %d: %w", out.Index, err)
	}
	w.frames++
	return nil
}

// Frames returns how many lines were written.
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Path returns the file path for writers made by Create.
func (w *Writer) Path() string { return w.path }

// Close flushes buffered lines. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	err := w.buf.Flush()
	if w.closer != nil {
		err = errors.Join(err, w.closer.Close())
	}
	return err
}
