package resample

import (
	"sort"
	"time"
)

// Interval is a maximal run of consecutive samples whose successive gaps do
// not exceed the configured maximum. Start and End are always timestamps of
// input samples, so an interval identifies its member samples exactly.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Intervals partitions an ascending timestamp sequence into the ordered,
// disjoint runs eligible for per-interval curve fitting. A run opens at the
// earlier element of the first pair within maxGap of each other and closes at
// the last sample before a gap above maxGap; the run still open at
// end-of-input is always closed there. Samples further than maxGap from both
// neighbors belong to no run and are left to the global fallback fit.
//
// maxGap <= 0 disables gap splitting and yields a single run spanning the
// whole sequence.
func Intervals(times []time.Time, maxGap time.Duration) []Interval {
	if len(times) == 0 {
		return nil
	}
	if maxGap <= 0 {
		return []Interval{{Start: times[0], End: times[len(times)-1]}}
	}

	var runs []Interval
	start := -1 // index of the open run's first sample, -1 when no run is open
	for i := 1; i < len(times); i++ {
		if times[i].Sub(times[i-1]) <= maxGap {
			if start == -1 {
				start = i - 1
			}
			continue
		}
		if start != -1 {
			runs = append(runs, Interval{Start: times[start], End: times[i-1]})
			start = -1
		}
	}
	if start != -1 {
		runs = append(runs, Interval{Start: times[start], End: times[len(times)-1]})
	}
	return runs
}

// timeRange returns the half-open index range [lo, hi) of times falling
// inside the interval, boundaries inclusive.
func timeRange(times []time.Time, iv Interval) (int, int) {
	lo := sort.Search(len(times), func(i int) bool { return !times[i].Before(iv.Start) })
	hi := sort.Search(len(times), func(i int) bool { return times[i].After(iv.End) })
	return lo, hi
}
