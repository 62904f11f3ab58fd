package sim

import "github.com/inference-sim/drawsim/sim/trace"

// SimulationState is everything a round or an evolution step mutates.
type SimulationState struct {
	Players       []*Player
	Board         []int // numbers of the most recent scored round
	Generation    int   // starts at 1
	RoundProgress int   // rounds played in the current generation, [0, RoundsPerGeneration)
	LastRound     *trace.RoundRecord
}

func newSimulationState(populationSize int) SimulationState {
	return SimulationState{
		Players:    NewPopulation(populationSize),
		Board:      []int{},
		Generation: 1,
	}
}

// Snapshot is a read-only copy of the simulation for observers.
// It shares no memory with the Simulator.
type Snapshot struct {
	RunID               string                   `json:"run_id"`
	Playing             bool                     `json:"playing"`
	Round               int64                    `json:"round"`
	Generation          int                      `json:"generation"`
	RoundProgress       int                      `json:"round_progress"`
	RoundsPerGeneration int                      `json:"rounds_per_generation"`
	Players             []Player                 `json:"players"`
	Board               []int                    `json:"board"`
	Generations         []trace.GenerationRecord `json:"generations"`
	LastRound           *trace.RoundRecord       `json:"last_round,omitempty"`
	LogCount            int                      `json:"log_count"`
	ModelReady          bool                     `json:"model_ready"`
	DataRows            int                      `json:"data_rows"`
}
