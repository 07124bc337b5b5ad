package mlbapi

import "errors"

// ErrDataShape marks a successful response missing the fields or groups
// the analyzer depends on. Retrying does not help.
var ErrDataShape = errors.New("unexpected response shape")
