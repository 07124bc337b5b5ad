package fetcher

import "errors"

var (
	// ErrExhausted is returned, together with the fallback payload, when
	// every attempt failed.
	ErrExhausted = errors.New("all fetch attempts failed")
	// ErrInvalidPayload marks a successful response whose body is not JSON.
	ErrInvalidPayload = errors.New("response body is not valid JSON")
)
