package resample

import "errors"

var (
	// ErrInvalidConfig indicates options the resampler cannot run with:
	// a non-positive step, a negative order, or an unknown method.
	ErrInvalidConfig = errors.New("resample: invalid configuration")
	// ErrEmptySeries indicates a series with zero samples.
	ErrEmptySeries = errors.New("resample: series has no samples")
	// ErrInsufficientData indicates fewer samples than the chosen fit
	// requires. Per-interval it is recoverable; for the global fallback it
	// is fatal.
	ErrInsufficientData = errors.New("resample: not enough samples for the requested fit")
)
