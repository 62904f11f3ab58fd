package sim

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in rounds) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Priority() int
	Execute(ctx context.Context, sim *Simulator)
}

// Type priorities for events sharing a timestamp (lower runs first).
const (
	PriorityRound     = 0
	PriorityEvolution = 1
)

// RoundEvent plays one round: board selection, prediction and scoring.
type RoundEvent struct {
	time int64 // Round index
}

// Timestamp returns the scheduled round of the RoundEvent.
func (e *RoundEvent) Timestamp() int64 {
	return e.time
}

// Priority returns PriorityRound.
func (e *RoundEvent) Priority() int {
	return PriorityRound
}

// Execute the RoundEvent
func (e *RoundEvent) Execute(ctx context.Context, sim *Simulator) {
	logrus.Debugf("<< RoundEvent at round %d", e.time)
	sim.PlayRound(ctx, e.time)
}

// EvolutionEvent closes a generation. It is scheduled by the round that
// completes the generation, at that round's timestamp, so it always runs
// after the round's scoring and before the next round.
type EvolutionEvent struct {
	time int64
}

// Timestamp returns the round that completed the generation.
func (e *EvolutionEvent) Timestamp() int64 {
	return e.time
}

// Priority returns PriorityEvolution.
func (e *EvolutionEvent) Priority() int {
	return PriorityEvolution
}

// Execute the EvolutionEvent
func (e *EvolutionEvent) Execute(_ context.Context, sim *Simulator) {
	logrus.Debugf("<< EvolutionEvent at round %d", e.time)
	sim.Evolve()
}
