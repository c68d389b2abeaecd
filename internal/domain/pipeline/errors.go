package pipeline

import "errors"

// Sentinel errors for the frame pipeline.
var (
	// ErrFrameDecode marks a Source error that only affects the current
	// frame. Run counts the frame and keeps reading.
	ErrFrameDecode = errors.New("frame decode failed")
	ErrNilSource   = errors.New("nil frame source")
)
