package dataset

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TimeLayout is the row timestamp format: millisecond-precision ISO-8601 with
// a numeric zone offset.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

// DefaultValueColumn is the value column name used when none is configured.
const DefaultValueColumn = "temperature"

// readLayouts are accepted on input. time.Parse takes any fractional-second
// precision when the layout names none, so the first entry covers bare
// seconds through nanoseconds; the second accepts colon offsets and Z.
var readLayouts = []string{
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05Z07:00",
}

// CSVOptions configures the row codec.
type CSVOptions struct {
	// ValueColumn is the header name of the numeric column. Empty means
	// DefaultValueColumn.
	ValueColumn string
}

func (o CSVOptions) valueColumn() string {
	if o.ValueColumn == "" {
		return DefaultValueColumn
	}
	return o.ValueColumn
}

// ReadCSV decodes rows from r. The header must name source_id, datetime,
// property_name and the value column, in any order. UTF-8 is read directly,
// with or without a byte order mark; a UTF-16 byte order mark switches the
// decoder.
func ReadCSV(r io.Reader, opts CSVOptions) ([]Record, error) {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		// The BOM picks the byte order and is stripped by the decoder.
		dec := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
		return readRows(csv.NewReader(transform.NewReader(br, dec)), opts)
	}
	if b, _ := br.Peek(3); len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		if _, err := br.Discard(3); err != nil {
			return nil, fmt.Errorf("failed to skip UTF-8 BOM: %w", err)
		}
	}
	return readRows(csv.NewReader(br), opts)
}

func readRows(cr *csv.Reader, opts CSVOptions) ([]Record, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset: input has no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	valueColumn := opts.valueColumn()
	idx := make(map[string]int, 4)
	for _, name := range []string{"source_id", "datetime", "property_name", valueColumn} {
		i, ok := col[name]
		if !ok {
			return nil, fmt.Errorf("dataset: input is missing column %q", name)
		}
		idx[name] = i
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		line++

		ts, err := parseTime(row[idx["datetime"]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		value, err := strconv.ParseFloat(row[idx[valueColumn]], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad value %q: %w", line, row[idx[valueColumn]], err)
		}
		records = append(records, Record{
			SourceID: row[idx["source_id"]],
			Time:     ts,
			Property: row[idx["property_name"]],
			Value:    value,
		})
	}
	return records, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range readLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("dataset: unparseable datetime %q", s)
}

// WriteCSV encodes records to w in the canonical column order with
// millisecond timestamps. Values print in their shortest exact form.
func WriteCSV(w io.Writer, records []Record, opts CSVOptions) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source_id", "datetime", "property_name", opts.valueColumn()}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.SourceID,
			rec.Time.Format(TimeLayout),
			rec.Property,
			strconv.FormatFloat(rec.Value, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
