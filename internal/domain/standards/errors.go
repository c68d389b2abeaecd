package standards

import "errors"

// Sentinel kinds for standards errors.
var (
	ErrInvalidStandard = errors.New("invalid form standard")
	ErrUnknownCategory = errors.New("unknown exercise category")
)
