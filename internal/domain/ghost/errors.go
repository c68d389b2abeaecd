package ghost

import "errors"

// ErrInvalidPose is returned when a pose table fails validation.
var ErrInvalidPose = errors.New("invalid reference pose")
