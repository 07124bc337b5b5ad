package valuation

import "errors"

// Sentinel kinds for valuation input problems. They never escape FindValue;
// they are logged and turned into an insufficient-data report.
var (
	ErrMissingSide    = errors.New("missing side statistics")
	ErrNonFiniteLine  = errors.New("market line is not a finite number")
	ErrUnknownWeather = errors.New("unknown weather condition")
)
