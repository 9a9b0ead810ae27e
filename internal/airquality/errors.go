package airquality

import "github.com/rotisserie/eris"

var (
	// ErrInvalidInput is returned for malformed core inputs: mismatched grid
	// dimensions, an empty sensor set or weights that do not sum to one.
	ErrInvalidInput = eris.New("invalid input")

	// ErrNoDataAvailable is returned when no population dataset exists to sample from.
	ErrNoDataAvailable = eris.New("no data available")

	// ErrUpstreamUnavailable is returned when the sensor source cannot be reached.
	ErrUpstreamUnavailable = eris.New("upstream unavailable")
)
