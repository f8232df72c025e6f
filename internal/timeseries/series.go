// Package timeseries provides the timestamped series type shared by the
// resampling core and its input/output collaborators.
package timeseries

import (
	"errors"
	"time"
)

var (
	// ErrEmpty indicates a series with no samples.
	ErrEmpty = errors.New("timeseries: series has no samples")
	// ErrLengthMismatch indicates times and values of differing lengths.
	ErrLengthMismatch = errors.New("timeseries: times and values must have the same length")
	// ErrUnordered indicates timestamps that are not strictly increasing.
	ErrUnordered = errors.New("timeseries: timestamps must be strictly increasing")
)

// Sample is a single timestamped measurement.
type Sample struct {
	Time  time.Time
	Value float64
}

// Series is an ordered sequence of samples for one property group.
// Times and Values are parallel slices; consumers must not mutate them.
type Series struct {
	Property string
	Times    []time.Time
	Values   []float64
}

// New creates a series after checking the length invariant. Ordering is
// checked separately by Validate so callers can construct first and
// validate at the pipeline boundary.
func New(property string, times []time.Time, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, ErrLengthMismatch
	}
	return &Series{
		Property: property,
		Times:    times,
		Values:   values,
	}, nil
}

// Len returns the number of samples in the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// At returns the i-th sample.
func (s *Series) At(i int) Sample {
	return Sample{Time: s.Times[i], Value: s.Values[i]}
}

// Validate checks the series invariants: at least one sample, parallel
// slices of equal length, and strictly increasing timestamps.
func (s *Series) Validate() error {
	if len(s.Values) == 0 {
		return ErrEmpty
	}
	if len(s.Times) != len(s.Values) {
		return ErrLengthMismatch
	}
	for i := 1; i < len(s.Times); i++ {
		if !s.Times[i].After(s.Times[i-1]) {
			return ErrUnordered
		}
	}
	return nil
}

// UnixSeconds projects timestamps onto a linear numeric axis (Unix epoch
// seconds as float64) for curve fitting. The projection is monotonic and is
// applied identically to sample times and grid times, so fitted curves are
// always evaluated in the same coordinate system they were fitted in.
func UnixSeconds(times []time.Time) []float64 {
	xs := make([]float64, len(times))
	for i, t := range times {
		xs[i] = float64(t.UnixNano()) / float64(time.Second)
	}
	return xs
}
