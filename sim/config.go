package sim

import (
	"fmt"

	"github.com/inference-sim/drawsim/sim/trace"
)

const (
	DefaultPopulationSize      = 10
	DefaultBoardSize           = 20
	DefaultNumberMin           = 1
	DefaultNumberMax           = 80
	DefaultRoundsPerGeneration = 100
	DefaultSeed                = 42
)

// PopulationConfig groups player population parameters.
type PopulationConfig struct {
	Size int // number of players (must be > 0); constant for the whole run
}

// BoardConfig groups parameters of synthesized boards.
// When draw data is loaded the board width follows the data instead.
type BoardConfig struct {
	Size      int // numbers per synthesized board
	NumberMin int // smallest number that can be drawn
	NumberMax int // largest number that can be drawn
}

// GenerationConfig groups generation lifecycle parameters.
type GenerationConfig struct {
	RoundsPerGeneration int // rounds before elitist evolution runs (default 100)
}

// SimConfig groups all engine configuration.
type SimConfig struct {
	Population PopulationConfig
	Board      BoardConfig
	Generation GenerationConfig
	Seed       int64
	TraceLevel trace.TraceLevel
}

// DefaultSimConfig returns the configuration used when nothing is overridden.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		Population: PopulationConfig{Size: DefaultPopulationSize},
		Board: BoardConfig{
			Size:      DefaultBoardSize,
			NumberMin: DefaultNumberMin,
			NumberMax: DefaultNumberMax,
		},
		Generation: GenerationConfig{RoundsPerGeneration: DefaultRoundsPerGeneration},
		Seed:       DefaultSeed,
		TraceLevel: trace.TraceLevelGenerations,
	}
}

// Validate reports the first invalid field.
func (c SimConfig) Validate() error {
	if c.Population.Size <= 0 {
		return fmt.Errorf("population size must be > 0, got %d", c.Population.Size)
	}
	if c.Board.Size <= 0 {
		return fmt.Errorf("board size must be > 0, got %d", c.Board.Size)
	}
	if c.Board.NumberMax <= c.Board.NumberMin {
		return fmt.Errorf("number range [%d, %d] is empty", c.Board.NumberMin, c.Board.NumberMax)
	}
	if c.Generation.RoundsPerGeneration <= 0 {
		return fmt.Errorf("rounds per generation must be > 0, got %d", c.Generation.RoundsPerGeneration)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("unknown trace level %q", c.TraceLevel)
	}
	return nil
}
