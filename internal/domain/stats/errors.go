package stats

import "errors"

// Sentinel kinds for stats errors.
var (
	ErrInvalidInnings = errors.New("invalid innings pitched")
)
