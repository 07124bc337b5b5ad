package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/mlbedge/internal/adapters/mlbapi"
	"github.com/okian/mlbedge/internal/adapters/ratelimit"
	"github.com/okian/mlbedge/internal/adapters/transport"
)

// Sentinel kinds for service errors.
var (
	ErrValidation = errors.New("invalid request")
	ErrNotStarted = errors.New("service not started")
)

// Dismiss durations for user-facing messages.
const (
	DefaultDismiss   = 5 * time.Second
	RateLimitDismiss = 8 * time.Second
)

func validationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &validationErr{problems: problems}
}

type validationErr struct {
	problems []string
}

func (v *validationErr) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(v.problems, "; ")
}

func (v *validationErr) Unwrap() error { return ErrValidation }

// UserMessage maps any surfaced error to one human-readable message and how
// long it should stay on screen.
func UserMessage(err error) (string, time.Duration) {
	var ve *validationErr
	var te *transport.Error
	switch {
	case err == nil:
		return "", 0
	case errors.As(err, &ve):
		return strings.Join(ve.problems, "; "), DefaultDismiss
	case errors.Is(err, ErrValidation):
		return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "), DefaultDismiss
	case errors.Is(err, ratelimit.ErrRateLimited):
		return "Too many requests. Please wait a moment.", RateLimitDismiss
	case errors.Is(err, mlbapi.ErrDataShape):
		return "Received unexpected data from the stats service.", DefaultDismiss
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, transport.ErrTimeout):
		return "Request timed out. Please try again.", DefaultDismiss
	case errors.Is(err, context.Canceled):
		return "Request was cancelled.", DefaultDismiss
	case errors.As(err, &te) && errors.Is(te.Kind, transport.ErrUpstreamStatus):
		return statusMessage(te.StatusCode)
	case errors.Is(err, transport.ErrNetwork), errors.Is(err, transport.ErrCircuitOpen):
		return "Network error. Please check your connection.", DefaultDismiss
	}
	return "An unexpected error occurred.", DefaultDismiss
}

func statusMessage(code int) (string, time.Duration) {
	switch {
	case code == http.StatusUnauthorized:
		return "Authentication failed. Please refresh the page.", DefaultDismiss
	case code == http.StatusForbidden:
		return "Access denied. Please check API permissions.", DefaultDismiss
	case code == http.StatusNotFound:
		return "Requested data not found.", DefaultDismiss
	case code == http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment.", RateLimitDismiss
	case code >= http.StatusInternalServerError:
		return "Server error. Please try again later.", DefaultDismiss
	}
	return "An unexpected error occurred.", DefaultDismiss
}
