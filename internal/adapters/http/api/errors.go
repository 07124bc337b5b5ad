package api

import (
	"errors"
	"net/http"

	"github.com/okian/mlbedge/internal/adapters/mlbapi"
	"github.com/okian/mlbedge/internal/adapters/ratelimit"
	"github.com/okian/mlbedge/internal/adapters/repository"
	service "github.com/okian/mlbedge/internal/app"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrInvalidID  = errors.New("invalid identifier")
)

// Error codes carried in errorResponse.Code.
const (
	codeBadRequest  = "bad_request"
	codeValidation  = "validation_error"
	codeRateLimited = "rate_limited"
	codeDataShape   = "data_shape"
	codeNotFound    = "not_found"
	codeUnavailable = "unavailable"
	codeInternal    = "internal_error"
)

// classify maps a service error to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidID), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, codeValidation
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, codeRateLimited
	case errors.Is(err, mlbapi.ErrDataShape):
		return http.StatusBadGateway, codeDataShape
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	}
	return http.StatusInternalServerError, codeInternal
}
