// Package dataset handles the row-oriented side of the pipeline: reading and
// writing record tables, splitting them into per-property series groups, and
// rebuilding rows from resampled points.
package dataset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chrissnell/regrid/internal/resample"
)

// InterpolationSourceID marks rows synthesized by resampling. Rows carrying an
// input sample keep the source id they arrived with.
const InterpolationSourceID = "interpolation"

var (
	// ErrDuplicateTimestamp indicates two records in one property group with
	// the same timestamp.
	ErrDuplicateTimestamp = errors.New("dataset: duplicate timestamp within a property group")
	// ErrMixedSource indicates a property group whose records carry more
	// than one source id.
	ErrMixedSource = errors.New("dataset: records in a group have differing source ids")
)

// Record is one input or output row.
type Record struct {
	SourceID string
	Time     time.Time
	Property string
	Value    float64
}

// SplitByProperty groups records by property name and sorts each group by
// time. Two records of the same property with the same timestamp are
// ambiguous input and fail with ErrDuplicateTimestamp.
func SplitByProperty(records []Record) (map[string][]Record, error) {
	groups := make(map[string][]Record)
	for _, rec := range records {
		groups[rec.Property] = append(groups[rec.Property], rec)
	}
	for property, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Time.Before(group[j].Time)
		})
		for i := 1; i < len(group); i++ {
			if group[i].Time.Equal(group[i-1].Time) {
				return nil, fmt.Errorf("%w: property %q at %s",
					ErrDuplicateTimestamp, property, group[i].Time)
			}
		}
	}
	return groups, nil
}

// Merge flattens property groups back into one table ordered by time, with
// ties broken by property name.
func Merge(groups map[string][]Record) []Record {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	merged := make([]Record, 0, total)
	for _, group := range groups {
		merged = append(merged, group...)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Time.Equal(merged[j].Time) {
			return merged[i].Time.Before(merged[j].Time)
		}
		return merged[i].Property < merged[j].Property
	})
	return merged
}

// FromPoints rebuilds records for one property group from its resampled
// points. Rows reproducing an input sample keep the group's source id;
// synthesized rows are marked with InterpolationSourceID. The group must
// carry exactly one source id.
func FromPoints(group []Record, points []resample.Point) ([]Record, error) {
	if len(group) == 0 {
		return nil, nil
	}
	sourceID := group[0].SourceID
	for _, rec := range group[1:] {
		if rec.SourceID != sourceID {
			return nil, fmt.Errorf("%w: property %q has both %q and %q",
				ErrMixedSource, group[0].Property, sourceID, rec.SourceID)
		}
	}

	records := make([]Record, len(points))
	for i, p := range points {
		id := sourceID
		if p.Provenance == resample.Interpolated {
			id = InterpolationSourceID
		}
		records[i] = Record{
			SourceID: id,
			Time:     p.Time,
			Property: group[0].Property,
			Value:    p.Value,
		}
	}
	return records, nil
}
