package draws

import (
	"fmt"
	"io"
	"math"
	"math/rand"
)

// Dataset is a parsed and normalized draw history.
type Dataset struct {
	Columns  []string
	Raw      []DrawRecord
	Scaler   Scaler
	Features []FeatureRecord
}

// Load parses, scales and featurizes a CSV draw history.
// All failures are reported as *FormatError.
func Load(in io.Reader) (*Dataset, error) {
	records, columns, err := Parse(in)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, &FormatError{Row: -1, Column: -1, Reason: "no draw rows after header"}
	}
	scaler, err := FitScaler(records)
	if err != nil {
		return nil, &FormatError{Row: -1, Column: -1, Reason: err.Error()}
	}
	normalized, err := scaler.Normalize(records)
	if err != nil {
		return nil, &FormatError{Row: -1, Column: -1, Reason: err.Error()}
	}
	return &Dataset{
		Columns:  columns,
		Raw:      records,
		Scaler:   scaler,
		Features: AddDerivedFeatures(normalized),
	}, nil
}

// Width returns the number of base (board) columns.
func (d *Dataset) Width() int {
	return d.Scaler.Width()
}

// Len returns the number of draws.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// Sample returns a uniformly random feature record.
func (d *Dataset) Sample(rng *rand.Rand) FeatureRecord {
	return d.Features[rng.Intn(len(d.Features))]
}

// SampleBoard denormalizes a uniformly random record and rounds it to integers.
func (d *Dataset) SampleBoard(rng *rand.Rand) ([]int, error) {
	record := d.Sample(rng)
	raw, err := d.Scaler.Denormalize([]NormalizedRecord{record.Base(d.Width())})
	if err != nil {
		return nil, fmt.Errorf("denormalize sampled draw: %w", err)
	}
	return RoundRecord(raw[0]), nil
}

// RoundRecord rounds every value to the nearest integer.
func RoundRecord(record DrawRecord) []int {
	out := make([]int, len(record))
	for i, v := range record {
		out[i] = int(math.Round(v))
	}
	return out
}

// ToRecord converts integers back to a raw record.
func ToRecord(values []int) DrawRecord {
	out := make(DrawRecord, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
