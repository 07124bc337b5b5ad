package ratelimit

import "errors"

// ErrRateLimited is returned when the current window is exhausted.
var ErrRateLimited = errors.New("rate limit exceeded")
