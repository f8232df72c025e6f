package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/chrissnell/regrid/internal/resample"
)

func TestSplitByProperty(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{SourceID: "node-1", Time: base.Add(2 * time.Minute), Property: "temperature", Value: 3},
		{SourceID: "node-2", Time: base, Property: "humidity", Value: 40},
		{SourceID: "node-1", Time: base, Property: "temperature", Value: 1},
		{SourceID: "node-1", Time: base.Add(time.Minute), Property: "temperature", Value: 2},
	}

	groups, err := SplitByProperty(records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	temps := groups["temperature"]
	if len(temps) != 3 {
		t.Fatalf("expected 3 temperature records, got %d", len(temps))
	}
	for i, want := range []float64{1, 2, 3} {
		if temps[i].Value != want {
			t.Errorf("temperature record %d: expected value %.0f, got %.0f (group must be time-sorted)",
				i, want, temps[i].Value)
		}
	}
	if len(groups["humidity"]) != 1 {
		t.Errorf("expected 1 humidity record, got %d", len(groups["humidity"]))
	}
}

func TestSplitByPropertyDuplicate(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{SourceID: "node-1", Time: base, Property: "temperature", Value: 1},
		{SourceID: "node-1", Time: base, Property: "temperature", Value: 2},
	}
	if _, err := SplitByProperty(records); !errors.Is(err, ErrDuplicateTimestamp) {
		t.Errorf("expected ErrDuplicateTimestamp, got %v", err)
	}

	// The same timestamp on different properties is fine.
	records[1].Property = "humidity"
	if _, err := SplitByProperty(records); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	groups := map[string][]Record{
		"temperature": {
			{Time: base, Property: "temperature", Value: 1},
			{Time: base.Add(2 * time.Minute), Property: "temperature", Value: 3},
		},
		"humidity": {
			{Time: base, Property: "humidity", Value: 40},
			{Time: base.Add(time.Minute), Property: "humidity", Value: 41},
		},
	}

	merged := Merge(groups)
	if len(merged) != 4 {
		t.Fatalf("expected 4 records, got %d", len(merged))
	}

	expected := []struct {
		offset   time.Duration
		property string
	}{
		{0, "humidity"}, // ties order by property name
		{0, "temperature"},
		{time.Minute, "humidity"},
		{2 * time.Minute, "temperature"},
	}
	for i, want := range expected {
		rec := merged[i]
		if !rec.Time.Equal(base.Add(want.offset)) || rec.Property != want.property {
			t.Errorf("record %d: expected (%v, %s), got (%v, %s)",
				i, want.offset, want.property, rec.Time.Sub(base), rec.Property)
		}
	}
}

func TestFromPoints(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	group := []Record{
		{SourceID: "node-1", Time: base, Property: "temperature", Value: 1},
		{SourceID: "node-1", Time: base.Add(2 * time.Minute), Property: "temperature", Value: 3},
	}
	points := []resample.Point{
		{Time: base, Value: 1, Provenance: resample.Original},
		{Time: base.Add(time.Minute), Value: 2, Provenance: resample.Interpolated},
		{Time: base.Add(2 * time.Minute), Value: 3, Provenance: resample.Original},
	}

	records, err := FromPoints(group, points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	expectedIDs := []string{"node-1", InterpolationSourceID, "node-1"}
	for i, rec := range records {
		if rec.SourceID != expectedIDs[i] {
			t.Errorf("record %d: expected source %q, got %q", i, expectedIDs[i], rec.SourceID)
		}
		if rec.Property != "temperature" {
			t.Errorf("record %d: expected property temperature, got %q", i, rec.Property)
		}
		if !rec.Time.Equal(points[i].Time) || rec.Value != points[i].Value {
			t.Errorf("record %d: point not carried over: %+v", i, rec)
		}
	}
}

func TestFromPointsMixedSource(t *testing.T) {
	base := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	group := []Record{
		{SourceID: "node-1", Time: base, Property: "temperature", Value: 1},
		{SourceID: "node-2", Time: base.Add(time.Minute), Property: "temperature", Value: 2},
	}
	if _, err := FromPoints(group, nil); !errors.Is(err, ErrMixedSource) {
		t.Errorf("expected ErrMixedSource, got %v", err)
	}
}

func TestFromPointsEmptyGroup(t *testing.T) {
	records, err := FromPoints(nil, []resample.Point{{Value: 1}})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if records != nil {
		t.Errorf("expected no records, got %v", records)
	}
}
