package sim

import (
	"context"
	"math/rand"

	"github.com/inference-sim/drawsim/sim/trace"
)

// Predictor maps one normalized feature record to one normalized prediction
// whose length equals the board width.
// Implementations must release any per-call resources before returning.
type Predictor interface {
	// Ready reports whether a model is loaded.
	Ready() bool

	// Predict runs a single inference. Returns ErrModelUnavailable when Ready is false.
	Predict(ctx context.Context, features []float64) ([]float64, error)
}

// WidthReporter is implemented by predictors bound to a fixed board width.
// ok is false while no model is loaded.
type WidthReporter interface {
	BoardWidth() (width int, ok bool)
}

// Perturber adjusts the shared prediction for one player.
// It receives a private copy and may modify it in place.
type Perturber interface {
	Perturb(playerID int, prediction []int, rng *rand.Rand) []int
}

// GenerationRecorder receives every completed generation, e.g. to persist it.
// Implementations must not retain the players slice.
type GenerationRecorder interface {
	StartRun(runID string, cfg SimConfig)
	RecordGeneration(runID string, record trace.GenerationRecord, players []Player)
}
