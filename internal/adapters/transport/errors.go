package transport

import (
	"errors"
	"fmt"
)

// Failure kinds carried by *Error.
var (
	ErrNetwork        = errors.New("network error")
	ErrTimeout        = errors.New("request timed out")
	ErrUpstreamStatus = errors.New("upstream returned non-success status")
	ErrCircuitOpen    = errors.New("circuit breaker open")
	ErrNoStrategies   = errors.New("no transport strategies configured")

	// ErrBodyTooLarge is the cause of an ErrNetwork failure whose response
	// body exceeded the configured limit.
	ErrBodyTooLarge = errors.New("response body too large")
)

// Error describes one failed strategy attempt.
type Error struct {
	Kind       error
	Strategy   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %v (status %d)", e.Strategy, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Strategy, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Strategy, e.Kind)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// statusError is returned from inside the breaker for 5xx responses so they
// count as failures.
type statusError struct {
	code int
}

func (s *statusError) Error() string { return fmt.Sprintf("status %d", s.code) }
