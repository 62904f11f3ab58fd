// Package sim provides the generational draw-prediction simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - reward.go: the reward function and match counting
//   - event.go: RoundEvent and EvolutionEvent, the two things that happen on a tick
//   - simulator.go: the event queue, PlayRound and Evolve
//   - state.go: SimulationState and the Snapshot handed to observers
//   - controller.go: the real-time play/pause/reset loop around a Simulator
//
// # Architecture
//
// The sim package defines the engine and its extension interfaces;
// collaborators live in sub-packages:
//   - sim/draws/: CSV parsing, min-max scaling and derived features
//   - sim/model/: the gorgonia-backed Predictor (descriptor + weights pair)
//   - sim/trace/: the append-only log sink and generation records
//   - sim/history/: run history stores (memory, sqlite)
//
// # Key Interfaces
//
//   - Predictor: maps a normalized feature vector to a normalized prediction
//   - Perturber: optional per-player adjustment of the shared prediction
//   - GenerationRecorder: receives every completed generation
package sim
