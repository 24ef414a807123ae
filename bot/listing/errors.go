package listing

import "errors"

var (
	// ErrQuotaExceeded is returned when the user already reached the daily submission limit.
	ErrQuotaExceeded = errors.New("listing: daily quota exceeded")
	// ErrStorage wraps failures of the underlying persistence layer.
	ErrStorage = errors.New("listing: storage failure")
	// ErrIncompleteDraft is returned when a draft misses a required field.
	ErrIncompleteDraft = errors.New("listing: incomplete draft")
)
