// Package resample maps irregularly sampled time series onto a fixed-step
// grid. The series is split into runs of closely spaced samples, a curve is
// fitted inside each run, and grid points no run covers fall back to one
// piecewise-linear fit through the whole series. Every output point is tagged
// with whether it reproduces an input sample or was synthesized.
package resample

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/interp"

	"github.com/chrissnell/regrid/internal/timeseries"
)

// Provenance records whether an output point is an input sample or was
// synthesized by fitting.
type Provenance int

const (
	// Original marks a point whose timestamp and value come from the input.
	Original Provenance = iota
	// Interpolated marks a point synthesized by curve fitting.
	Interpolated
)

func (p Provenance) String() string {
	switch p {
	case Original:
		return "original"
	case Interpolated:
		return "interpolated"
	default:
		return "unknown"
	}
}

// Point is one resampled output point.
type Point struct {
	Time       time.Time
	Value      float64
	Provenance Provenance
}

// Options configures a Resampler.
type Options struct {
	// Method selects the per-interval fitting strategy.
	Method Method
	// Order is the fit degree: 0 holds values, 1 is linear, higher orders
	// bend. Ignored by MethodConstant.
	Order int
	// Step is the spacing of the output grid. Must be positive.
	Step time.Duration
	// MaxGap splits the series into separately fitted runs wherever
	// consecutive samples lie further apart than this. Zero disables
	// splitting.
	MaxGap time.Duration
	// KeepOriginal unions every original timestamp into the output grid.
	KeepOriginal bool
	// FitBudget caps the time spent fitting one interval. An interval whose
	// fit runs over budget is discarded and its grid points are left to the
	// global linear fallback. Zero means no budget.
	FitBudget time.Duration
}

// Validate reports a configuration the resampler cannot run with.
func (o Options) Validate() error {
	if o.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, got %v", ErrInvalidConfig, o.Step)
	}
	if o.MaxGap < 0 {
		return fmt.Errorf("%w: max gap must not be negative, got %v", ErrInvalidConfig, o.MaxGap)
	}
	if o.FitBudget < 0 {
		return fmt.Errorf("%w: fit budget must not be negative, got %v", ErrInvalidConfig, o.FitBudget)
	}
	_, err := newFitter(o.Method, o.Order)
	return err
}

// Resampler resamples series onto a regular grid. It holds no mutable state
// across calls and is safe for concurrent use.
type Resampler struct {
	opts   Options
	fitter fitter
	logger *zap.SugaredLogger
}

// New validates opts and returns a Resampler. The logger receives advisory
// warnings for intervals that could not be fitted; passing nil silences them.
func New(opts Options, logger *zap.SugaredLogger) (*Resampler, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := newFitter(opts.Method, opts.Order)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Resampler{opts: opts, fitter: f, logger: logger}, nil
}

// Resample maps the series onto the configured grid. Grid points inside a
// fittable interval take that interval's fitted value; all remaining points
// take the global piecewise-linear fallback. A grid point whose timestamp is
// exactly an input sample's keeps that sample's value verbatim and is tagged
// Original, regardless of method.
func (r *Resampler) Resample(s *timeseries.Series) ([]Point, error) {
	if s == nil {
		return nil, ErrEmptySeries
	}
	if err := s.Validate(); err != nil {
		if errors.Is(err, timeseries.ErrEmpty) {
			return nil, ErrEmptySeries
		}
		return nil, err
	}
	if s.Len() == 1 {
		// The grid can only contain the sample itself; emit it unchanged.
		return []Point{{Time: s.Times[0], Value: s.Values[0], Provenance: Original}}, nil
	}

	grid, err := BuildGrid(s.Times, r.opts.Step, r.opts.KeepOriginal)
	if err != nil {
		return nil, err
	}
	runs := Intervals(s.Times, r.opts.MaxGap)

	xs := timeseries.UnixSeconds(s.Times)
	gx := timeseries.UnixSeconds(grid.Times)

	values := make([]float64, grid.Len())
	covered := make([]bool, grid.Len())
	r.fitIntervals(s, runs, xs, gx, grid, values, covered)

	if err := fillGaps(xs, s.Values, gx, values, covered); err != nil {
		return nil, err
	}

	points := make([]Point, grid.Len())
	for i := range points {
		if j, ok := grid.Origin(i); ok {
			points[i] = Point{Time: s.Times[j], Value: s.Values[j], Provenance: Original}
			continue
		}
		points[i] = Point{Time: grid.Times[i], Value: values[i], Provenance: Interpolated}
	}
	return points, nil
}

// fitIntervals fits the configured method inside each run and evaluates it at
// the grid points the run spans, recording coverage. A run with too few
// samples, or whose fit blows the budget, is skipped with a warning and its
// grid points stay uncovered.
func (r *Resampler) fitIntervals(s *timeseries.Series, runs []Interval, xs, gx []float64, grid *Grid, values []float64, covered []bool) {
	for _, iv := range runs {
		lo, hi := timeRange(s.Times, iv)
		if hi-lo < r.fitter.minPoints() {
			r.logger.Warnf("skipping interval from %s to %s: %d samples but the fit needs %d",
				iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339), hi-lo, r.fitter.minPoints())
			continue
		}
		start := time.Now()
		pred, err := r.fitter.fit(xs[lo:hi], s.Values[lo:hi])
		if err != nil {
			r.logger.Warnf("skipping interval from %s to %s: %v",
				iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339), err)
			continue
		}
		if r.opts.FitBudget > 0 {
			if elapsed := time.Since(start); elapsed > r.opts.FitBudget {
				r.logger.Warnf("skipping interval from %s to %s: fit took %v with a budget of %v",
					iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339), elapsed, r.opts.FitBudget)
				continue
			}
		}
		glo, ghi := timeRange(grid.Times, iv)
		for gi := glo; gi < ghi; gi++ {
			values[gi] = pred.Predict(gx[gi])
			covered[gi] = true
		}
	}
}

// fillGaps evaluates one piecewise-linear fit through every sample at each
// grid point no interval fit covered. After this pass every grid point holds
// a value.
func fillGaps(xs, ys, gx []float64, values []float64, covered []bool) error {
	needed := false
	for _, c := range covered {
		if !c {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}
	if err := checkFit(xs, ys, 2); err != nil {
		return fmt.Errorf("global linear fallback: %w", err)
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return fmt.Errorf("global linear fallback: %w: %v", ErrInsufficientData, err)
	}
	for i := range values {
		if !covered[i] {
			values[i] = pl.Predict(gx[i])
			covered[i] = true
		}
	}
	return nil
}
