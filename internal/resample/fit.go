package resample

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// Method selects the curve-fitting strategy applied inside each interval.
type Method string

const (
	// MethodConstant holds each sample's value until the next sample.
	MethodConstant Method = "constant"
	// MethodPolynomial fits an interpolating spline of the configured order
	// that passes exactly through every sample in the interval.
	MethodPolynomial Method = "polynomial"
	// MethodSmoothing fits a least-squares polynomial of the configured
	// order, trading exact reproduction of the samples for smoothness.
	MethodSmoothing Method = "smoothing"
)

// fitter builds a fitted curve from the samples of one interval. Each
// implementation carries its own minimum point count and reports
// ErrInsufficientData instead of surfacing an opaque numeric failure.
type fitter interface {
	minPoints() int
	fit(xs, ys []float64) (interp.Predictor, error)
}

// newFitter maps a method and order onto a fitter.
func newFitter(method Method, order int) (fitter, error) {
	if order < 0 {
		return nil, fmt.Errorf("%w: order must not be negative, got %d", ErrInvalidConfig, order)
	}
	switch method {
	case MethodConstant:
		return holdFitter{}, nil
	case MethodPolynomial:
		switch order {
		case 0:
			return holdFitter{}, nil
		case 1:
			return linearFitter{}, nil
		case 2:
			return quadraticFitter{}, nil
		case 3:
			return cubicFitter{}, nil
		default:
			return nil, fmt.Errorf("%w: polynomial order %d not supported, maximum is 3", ErrInvalidConfig, order)
		}
	case MethodSmoothing:
		return leastSquaresFitter{degree: order}, nil
	default:
		return nil, fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, method)
	}
}

// checkFit validates the shared fit preconditions: parallel inputs, enough
// points, and a strictly increasing abscissa. gonum's interpolants panic on
// these instead of returning an error, so they are screened here first.
func checkFit(xs, ys []float64, min int) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d timestamps against %d values", ErrInsufficientData, len(xs), len(ys))
	}
	if len(xs) < min {
		return fmt.Errorf("%w: need at least %d points, have %d", ErrInsufficientData, min, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return fmt.Errorf("%w: projected timestamps not strictly increasing at index %d", ErrInsufficientData, i)
		}
	}
	return nil
}

// holdFitter replicates the most recent sample's value. gonum's
// PiecewiseConstant holds the next observation rather than the previous one,
// so the step function is implemented directly.
type holdFitter struct{}

func (holdFitter) minPoints() int { return 1 }

func (holdFitter) fit(xs, ys []float64) (interp.Predictor, error) {
	if err := checkFit(xs, ys, 1); err != nil {
		return nil, err
	}
	return &holdPredictor{xs: xs, ys: ys}, nil
}

// holdPredictor evaluates a previous-neighbor step function, extending the
// first value to the left of the data.
type holdPredictor struct {
	xs, ys []float64
}

func (p *holdPredictor) Predict(x float64) float64 {
	i := sort.SearchFloat64s(p.xs, x)
	if i < len(p.xs) && p.xs[i] == x {
		return p.ys[i]
	}
	if i == 0 {
		return p.ys[0]
	}
	return p.ys[i-1]
}

type linearFitter struct{}

func (linearFitter) minPoints() int { return 2 }

func (linearFitter) fit(xs, ys []float64) (interp.Predictor, error) {
	if err := checkFit(xs, ys, 2); err != nil {
		return nil, err
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}
	return &pl, nil
}

// quadraticFitter fits a quadratic spline with a continuous first derivative
// through every point. gonum's interp package offers piecewise-linear and
// cubic interpolants but nothing of degree two.
type quadraticFitter struct{}

func (quadraticFitter) minPoints() int { return 3 }

func (quadraticFitter) fit(xs, ys []float64) (interp.Predictor, error) {
	if err := checkFit(xs, ys, 3); err != nil {
		return nil, err
	}
	n := len(xs)
	// Knot slopes: the left boundary takes the first secant slope and first
	// derivative continuity fixes every slope after it.
	m := make([]float64, n)
	m[0] = (ys[1] - ys[0]) / (xs[1] - xs[0])
	for i := 0; i < n-1; i++ {
		s := (ys[i+1] - ys[i]) / (xs[i+1] - xs[i])
		m[i+1] = 2*s - m[i]
	}
	return &quadSplinePredictor{xs: xs, ys: ys, m: m}, nil
}

// quadSplinePredictor evaluates one parabolic segment per knot pair and
// extrapolates with the boundary segments.
type quadSplinePredictor struct {
	xs, ys, m []float64
}

func (p *quadSplinePredictor) Predict(x float64) float64 {
	n := len(p.xs)
	i := sort.SearchFloat64s(p.xs, x)
	if i < n && p.xs[i] == x {
		return p.ys[i]
	}
	if i == 0 {
		i = 1
	}
	if i == n {
		i = n - 1
	}
	h := p.xs[i] - p.xs[i-1]
	dx := x - p.xs[i-1]
	return p.ys[i-1] + p.m[i-1]*dx + (p.m[i]-p.m[i-1])/(2*h)*dx*dx
}

type cubicFitter struct{}

func (cubicFitter) minPoints() int { return 4 }

func (cubicFitter) fit(xs, ys []float64) (interp.Predictor, error) {
	if err := checkFit(xs, ys, 4); err != nil {
		return nil, err
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientData, err)
	}
	return &nc, nil
}

// leastSquaresFitter fits a polynomial of fixed degree by least squares over
// a Vandermonde basis, solved by QR decomposition. The abscissa is centered
// and scaled to [-1, 1] first; epoch seconds raised to higher powers would
// otherwise destroy the conditioning of the system.
type leastSquaresFitter struct {
	degree int
}

func (f leastSquaresFitter) minPoints() int { return f.degree + 1 }

func (f leastSquaresFitter) fit(xs, ys []float64) (interp.Predictor, error) {
	if err := checkFit(xs, ys, f.degree+1); err != nil {
		return nil, err
	}
	n := len(xs)
	center := (xs[0] + xs[n-1]) / 2
	scale := (xs[n-1] - xs[0]) / 2
	if scale == 0 {
		scale = 1
	}

	v := mat.NewDense(n, f.degree+1, nil)
	for i := 0; i < n; i++ {
		z := (xs[i] - center) / scale
		p := 1.0
		for j := 0; j <= f.degree; j++ {
			v.Set(i, j, p)
			p *= z
		}
	}

	var qr mat.QR
	qr.Factorize(v)
	coef := mat.NewVecDense(f.degree+1, nil)
	if err := qr.SolveVecTo(coef, false, mat.NewVecDense(n, ys)); err != nil {
		return nil, fmt.Errorf("%w: least-squares solve: %v", ErrInsufficientData, err)
	}

	c := make([]float64, f.degree+1)
	for j := range c {
		c[j] = coef.AtVec(j)
	}
	return &polyPredictor{coef: c, center: center, scale: scale}, nil
}

// polyPredictor evaluates the fitted polynomial by Horner's rule in the
// centered coordinate it was fitted in.
type polyPredictor struct {
	coef   []float64
	center float64
	scale  float64
}

func (p *polyPredictor) Predict(x float64) float64 {
	z := (x - p.center) / p.scale
	y := 0.0
	for j := len(p.coef) - 1; j >= 0; j-- {
		y = y*z + p.coef[j]
	}
	return y
}
