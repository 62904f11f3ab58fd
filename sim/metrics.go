// Tracks run-wide statistics such as:
// - Rounds played and rounds skipped on failed inference
// - Per-player match counts
// - Best generation score

package sim

import (
	"fmt"
	"sort"

	"github.com/inference-sim/drawsim/sim/trace"
)

// Metrics aggregates statistics about the simulation
// for final reporting.
type Metrics struct {
	RoundsPlayed         int64 // Rounds scored
	SkippedRounds        int64 // Rounds skipped because inference or board selection failed
	GenerationsCompleted int   // Evolution steps executed
	BestScore            int   // Highest generation score seen so far
	TotalMatches         int64 // Sum of matches over all player-rounds

	MatchCounts []int // One entry per player-round
}

// NewMetrics returns an empty Metrics.
func NewMetrics() *Metrics {
	return &Metrics{MatchCounts: []int{}}
}

// RecordMatches adds one player-round outcome.
func (m *Metrics) RecordMatches(matches int) {
	m.TotalMatches += int64(matches)
	m.MatchCounts = append(m.MatchCounts, matches)
}

// RecordGeneration adds one completed generation.
func (m *Metrics) RecordGeneration(score int) {
	m.GenerationsCompleted++
	if score > m.BestScore {
		m.BestScore = score
	}
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print(summary *trace.TraceSummary) {
	fmt.Println("=== Simulation Metrics ===")
	fmt.Printf("Rounds Played        : %d\n", m.RoundsPlayed)
	fmt.Printf("Skipped Rounds       : %d\n", m.SkippedRounds)
	fmt.Printf("Generations          : %d\n", m.GenerationsCompleted)
	fmt.Printf("Best Score           : %d\n", m.BestScore)
	if len(m.MatchCounts) > 0 {
		sorted := append([]int(nil), m.MatchCounts...)
		sort.Ints(sorted)
		fmt.Printf("Mean Matches         : %.2f\n", CalculateMean(sorted))
		fmt.Printf("P90 Matches          : %.2f\n", CalculatePercentile(sorted, 90))
		fmt.Println("Match Histogram      :")
		for _, bin := range MatchHistogram(m.MatchCounts) {
			fmt.Printf("  %3d : %d\n", bin.Key, bin.Count)
		}
	}
	if summary != nil && summary.TotalGenerations > 0 {
		fmt.Printf("Best Generation      : %d\n", summary.BestGeneration)
		fmt.Printf("Mean Gen. Score      : %.2f\n", summary.MeanScore)
		fmt.Printf("Score Trend          : %+d\n", summary.Trend)
		fmt.Printf("Improvements         : %d\n", summary.Improvements)
	}
}
