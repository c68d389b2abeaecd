package detector

import "errors"

// Sentinel errors for landmark sources.
var (
	// ErrOpenSource means no frame could be read at all: the file is missing
	// or the detector process did not start.
	ErrOpenSource = errors.New("cannot open landmark source")
	// ErrNoCommand is returned when a video needs the detector but none is
	// configured.
	ErrNoCommand = errors.New("no detector command configured")
	// ErrDetectorExit is returned after the last frame when the detector
	// process exited unsuccessfully.
	ErrDetectorExit = errors.New("detector exited with error")
)
