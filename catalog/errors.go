package catalog

import "errors"

var (
	// ErrCountUnavailable means the season count of a title could not be
	// determined. No season pages are fetched after it.
	ErrCountUnavailable = errors.New("season count unavailable")

	// ErrCancelled means the caller cancelled an aggregation in progress.
	// No partial result accompanies it.
	ErrCancelled = errors.New("aggregation cancelled")
)
