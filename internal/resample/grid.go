package resample

import (
	"fmt"
	"time"
)

// Grid is the ordered set of candidate output timestamps. Origin membership
// is decided here, in the exact time domain, before any numeric projection,
// so floating-point effects downstream cannot change a point's provenance.
type Grid struct {
	Times  []time.Time
	origin []bool
	sample []int
}

// Len returns the number of grid points.
func (g *Grid) Len() int { return len(g.Times) }

// Origin reports whether grid point i falls exactly on an input sample and,
// if so, that sample's index.
func (g *Grid) Origin(i int) (int, bool) {
	if !g.origin[i] {
		return 0, false
	}
	return g.sample[i], true
}

// BuildGrid constructs the output timestamp sequence: starting at times[0],
// step is added repeatedly for as long as the result does not pass the last
// sample. The last sample is not force-included. With keepOriginal set the
// grid is unioned with every original timestamp, deduplicated and ascending.
//
// times must be ascending and strictly increasing.
func BuildGrid(times []time.Time, step time.Duration, keepOriginal bool) (*Grid, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: at least one timestamp required", ErrInvalidConfig)
	}
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %v", ErrInvalidConfig, step)
	}

	last := times[len(times)-1]
	base := make([]time.Time, 0, int(last.Sub(times[0])/step)+1)
	for t := times[0]; !t.After(last); t = t.Add(step) {
		base = append(base, t)
	}

	grid := base
	if keepOriginal {
		merged := make([]time.Time, 0, len(base)+len(times))
		i, j := 0, 0
		for i < len(base) || j < len(times) {
			switch {
			case i == len(base):
				merged = append(merged, times[j])
				j++
			case j == len(times):
				merged = append(merged, base[i])
				i++
			case base[i].Before(times[j]):
				merged = append(merged, base[i])
				i++
			case times[j].Before(base[i]):
				merged = append(merged, times[j])
				j++
			default:
				// Same instant; keep the original's representation.
				merged = append(merged, times[j])
				i++
				j++
			}
		}
		grid = merged
	}

	g := &Grid{
		Times:  grid,
		origin: make([]bool, len(grid)),
		sample: make([]int, len(grid)),
	}
	j := 0
	for i, t := range grid {
		for j < len(times) && times[j].Before(t) {
			j++
		}
		if j < len(times) && times[j].Equal(t) {
			g.origin[i] = true
			g.sample[i] = j
		}
	}
	return g, nil
}
