package domain

import "errors"

var (
	// ErrSourceUnavailable means a source has no configuration or credentials; callers skip it.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrFetchFailure covers network, HTTP and timeout failures for one source.
	ErrFetchFailure = errors.New("fetch failure")
	// ErrMalformedInput marks a roster row missing required fields.
	ErrMalformedInput = errors.New("malformed input")
	// ErrRateLimited is an external throttling signal; the call is retried once.
	ErrRateLimited = errors.New("rate limited")
	// ErrStateCorruption means the persisted scan state could not be read. Fatal to a run.
	ErrStateCorruption = errors.New("scan state corrupted")
)
