// Package trace provides the append-only record of a simulation run: the
// human-readable log lines, one GenerationRecord per completed generation and,
// at the rounds trace level, one RoundRecord per scored round.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// GenerationRecord captures the best score of one completed generation.
// Records are never mutated after they are appended.
type GenerationRecord struct {
	Generation int `json:"generation" msgpack:"generation"`
	Score      int `json:"score" msgpack:"score"`
}

// PlayerResult captures one player's outcome for a single round.
type PlayerResult struct {
	PlayerID int `json:"player_id"`
	Matches  int `json:"matches"`
	Reward   int `json:"reward"`
	Score    int `json:"score"`
}

// RoundRecord captures a single scored round.
type RoundRecord struct {
	Round      int64          `json:"round"`
	Generation int            `json:"generation"`
	Board      []int          `json:"board"`
	Prediction []int          `json:"prediction"`
	Results    []PlayerResult `json:"results"`
}
