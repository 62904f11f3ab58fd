// Package history persists completed runs: one Run per simulation run and one
// Generation, with a population snapshot, per evolution step.
package history

import (
	"context"
	"time"

	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/trace"
)

// Run identifies one simulation run and the configuration it used.
type Run struct {
	ID                  string    `json:"id"`
	StartedAt           time.Time `json:"started_at"`
	PopulationSize      int       `json:"population_size"`
	BoardSize           int       `json:"board_size"`
	RoundsPerGeneration int       `json:"rounds_per_generation"`
	Seed                int64     `json:"seed"`
}

// Generation is a completed generation with the population as it stood
// after evolution.
type Generation struct {
	RunID string `json:"run_id"`
	trace.GenerationRecord
	Players []sim.Player `json:"players"`
}

// Store defines persistence operations for run history.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context) ([]Run, error)
	SaveGeneration(ctx context.Context, gen Generation) error
	GetGenerations(ctx context.Context, runID string) ([]Generation, bool, error)
}
