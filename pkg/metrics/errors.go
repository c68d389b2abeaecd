package metrics

import "errors"

// ErrCollectFailed is returned when a runtime sample cannot be taken.
var ErrCollectFailed = errors.New("metrics collect failed")
