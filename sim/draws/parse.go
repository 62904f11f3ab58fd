// Package draws turns raw tabular draw history into the normalized feature
// records consumed by the simulator.
//
// The pipeline is Parse -> FitScaler -> Normalize -> AddDerivedFeatures; Load
// runs all four steps and returns a Dataset.
package draws

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DrawRecord is one historical draw in raw units. Treat as immutable.
type DrawRecord []float64

// FormatError reports malformed draw data.
// Row is 1-based and counts data rows (the header is row 0).
// Column is 0-based; -1 when the problem concerns the whole row.
type FormatError struct {
	Row    int
	Column int
	Reason string
	Err    error // underlying read error, if any
}

func (e *FormatError) Error() string {
	switch {
	case e.Row < 0:
		return fmt.Sprintf("draw data: %s", e.Reason)
	case e.Column < 0:
		return fmt.Sprintf("draw data row %d: %s", e.Row, e.Reason)
	default:
		return fmt.Sprintf("draw data row %d column %d: %s", e.Row, e.Column, e.Reason)
	}
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Parse reads a header row followed by numeric rows.
// Every row must have exactly as many cells as the header and every cell must
// parse as a finite number; otherwise a *FormatError is returned and no records are.
func Parse(in io.Reader) ([]DrawRecord, []string, error) {
	reader := csv.NewReader(in)
	// Column-count validation is done here so it surfaces as a FormatError.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, &FormatError{Row: -1, Column: -1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, nil, &FormatError{Row: 0, Column: -1, Reason: fmt.Sprintf("read header: %v", err), Err: err}
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.TrimSpace(name)
	}

	records := make([]DrawRecord, 0, 256)
	rowIndex := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &FormatError{Row: rowIndex, Column: -1, Reason: fmt.Sprintf("read row: %v", err), Err: err}
		}
		if blankRow(row) {
			continue
		}
		if len(row) != len(columns) {
			return nil, nil, &FormatError{
				Row:    rowIndex,
				Column: -1,
				Reason: fmt.Sprintf("has %d columns, header has %d", len(row), len(columns)),
			}
		}

		record := make(DrawRecord, len(row))
		for i, raw := range row {
			value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, nil, &FormatError{Row: rowIndex, Column: i, Reason: fmt.Sprintf("non-numeric cell %q", raw)}
			}
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return nil, nil, &FormatError{Row: rowIndex, Column: i, Reason: fmt.Sprintf("non-finite cell %q", raw)}
			}
			record[i] = value
		}
		records = append(records, record)
		rowIndex++
	}
	return records, columns, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
