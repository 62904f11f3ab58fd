package draws

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DerivedFeatureCount is the number of columns AddDerivedFeatures appends.
const DerivedFeatureCount = 3

// FeatureRecord is a NormalizedRecord with derived columns appended.
// The first Width() columns are the untouched normalized values.
type FeatureRecord []float64

// Base returns the leading width columns, i.e. the normalized record.
func (f FeatureRecord) Base(width int) NormalizedRecord {
	if width > len(f) {
		width = len(f)
	}
	out := make(NormalizedRecord, width)
	copy(out, f[:width])
	return out
}

// AddDerivedFeatures appends mean, population standard deviation and spread
// (max - min) of each record's values. Input records are not modified.
func AddDerivedFeatures(records []NormalizedRecord) []FeatureRecord {
	out := make([]FeatureRecord, len(records))
	for i, record := range records {
		out[i] = derive(record)
	}
	return out
}

func derive(record NormalizedRecord) FeatureRecord {
	feature := make(FeatureRecord, len(record), len(record)+DerivedFeatureCount)
	copy(feature, record)
	if len(record) == 0 {
		return append(feature, 0, 0, 0)
	}
	mean, std := stat.PopMeanStdDev(record, nil)
	spread := floats.Max(record) - floats.Min(record)
	return append(feature, mean, std, spread)
}
