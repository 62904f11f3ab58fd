package draws

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NormalizedRecord is a DrawRecord mapped into [0, 1] by a Scaler.
type NormalizedRecord []float64

// ColumnRange holds the min-max scaling parameters of one column.
type ColumnRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Scaler applies a fixed per-column min-max transform.
//
// A Scaler fitted on one batch is independent of any other batch: values
// normalized against different batches are not comparable with each other.
type Scaler struct {
	Columns []ColumnRange `json:"columns"`
}

// FitScaler derives per-column ranges from the whole batch.
// Returns an error when the batch is empty or ragged.
func FitScaler(records []DrawRecord) (Scaler, error) {
	if len(records) == 0 {
		return Scaler{}, fmt.Errorf("cannot fit scaler on empty batch")
	}
	width := len(records[0])
	if width == 0 {
		return Scaler{}, fmt.Errorf("cannot fit scaler on zero-width records")
	}

	column := make([]float64, len(records))
	ranges := make([]ColumnRange, width)
	for c := 0; c < width; c++ {
		for r, record := range records {
			if len(record) != width {
				return Scaler{}, fmt.Errorf("inconsistent record width at row %d: got=%d want=%d", r+1, len(record), width)
			}
			column[r] = record[c]
		}
		ranges[c] = ColumnRange{Min: floats.Min(column), Max: floats.Max(column)}
	}
	return Scaler{Columns: ranges}, nil
}

// DomainScaler returns a scaler with the same [min, max] range on every
// column. It is used for synthesized boards, which have no fitted batch.
func DomainScaler(width int, min, max float64) Scaler {
	ranges := make([]ColumnRange, width)
	for i := range ranges {
		ranges[i] = ColumnRange{Min: min, Max: max}
	}
	return Scaler{Columns: ranges}
}

// Width returns the number of columns the scaler was fitted on.
func (s Scaler) Width() int {
	return len(s.Columns)
}

// Normalize maps raw records into [0, 1]. Constant columns map to 0.
func (s Scaler) Normalize(records []DrawRecord) ([]NormalizedRecord, error) {
	out := make([]NormalizedRecord, len(records))
	for r, record := range records {
		if len(record) != len(s.Columns) {
			return nil, fmt.Errorf("record %d has %d columns, scaler has %d", r, len(record), len(s.Columns))
		}
		norm := make(NormalizedRecord, len(record))
		for i, value := range record {
			span := s.Columns[i].Max - s.Columns[i].Min
			if span == 0 {
				norm[i] = 0
				continue
			}
			norm[i] = (value - s.Columns[i].Min) / span
		}
		out[r] = norm
	}
	return out, nil
}

// Denormalize inverts Normalize. Inputs outside [0, 1] are extrapolated
// linearly, so results for synthetic values are only approximate.
func (s Scaler) Denormalize(records []NormalizedRecord) ([]DrawRecord, error) {
	out := make([]DrawRecord, len(records))
	for r, record := range records {
		if len(record) < len(s.Columns) {
			return nil, fmt.Errorf("record %d has %d columns, scaler needs %d", r, len(record), len(s.Columns))
		}
		raw := make(DrawRecord, len(s.Columns))
		for i := range s.Columns {
			span := s.Columns[i].Max - s.Columns[i].Min
			raw[i] = record[i]*span + s.Columns[i].Min
		}
		out[r] = raw
	}
	return out, nil
}
