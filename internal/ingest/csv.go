// Package ingest resolves caller-supplied tabular schemas into the
// canonical sample series the pipeline consumes. Column binding happens
// exactly once, here; nothing downstream sees source column names.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/verasls/activity-recognition/internal/activity"
	"github.com/verasls/activity-recognition/internal/units"
)

// ColumnMap names the four required semantic columns in the source.
type ColumnMap struct {
	Timestamp string `json:"timestamp"`
	X         string `json:"x"`
	Y         string `json:"y"`
	Z         string `json:"z"`
}

// DefaultColumns is the binding used when the caller supplies none.
var DefaultColumns = ColumnMap{Timestamp: "timestamp", X: "x", Y: "y", Z: "z"}

// CSVOptions configures CSV ingestion.
type CSVOptions struct {
	Columns ColumnMap
	// Units is the acceleration unit of the axis columns (g, mg, or
	// ms2). Values are converted to g. Empty means g.
	Units string
}

// ReadCSV parses a headed CSV stream into a Series. The header row is
// matched against the column binding; axis values are converted to g.
func ReadCSV(r io.Reader, opts CSVOptions) (*activity.Series, error) {
	if opts.Columns == (ColumnMap{}) {
		opts.Columns = DefaultColumns
	}
	if opts.Units == "" {
		opts.Units = units.G
	}
	if !units.IsValid(opts.Units) {
		return nil, fmt.Errorf("unknown units %q, valid units are: %s", opts.Units, units.GetValidUnitsString())
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	idx, err := bindColumns(header, opts.Columns)
	if err != nil {
		return nil, err
	}

	series := &activity.Series{}
	for row := 2; ; row++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}

		ts, err := ParseTimestamp(record[idx[0]])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		var axes [3]float64
		for i := 1; i < 4; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[idx[i]]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", row, header[idx[i]], err)
			}
			axes[i-1] = units.ConvertToG(v, opts.Units)
		}
		series.Append(activity.Sample{Timestamp: ts, X: axes[0], Y: axes[1], Z: axes[2]})
	}
	return series, nil
}

// bindColumns maps the four semantic columns to header indices.
func bindColumns(header []string, cols ColumnMap) ([4]int, error) {
	var idx [4]int
	names := [4]string{cols.Timestamp, cols.X, cols.Y, cols.Z}
	for i, name := range names {
		idx[i] = -1
		for j, h := range header {
			if strings.TrimSpace(h) == name {
				idx[i] = j
				break
			}
		}
		if idx[i] == -1 {
			return idx, fmt.Errorf("column %q not found in header %v", name, header)
		}
	}
	return idx, nil
}

// ParseTimestamp accepts RFC3339 timestamps or numeric Unix epochs.
// Numeric values above 1e12 are taken as milliseconds, otherwise as
// seconds (fractional seconds allowed).
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q is neither RFC3339 nor a Unix epoch", s)
	}
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC(), nil
	}
	sec := int64(v)
	nsec := int64((v - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), nil
}
