package sim

import "math"

// MatchOffset is the match count at which the base reward reaches 1.
const MatchOffset = 10

// RawReward is the unrounded reward:
//
//	10^(matches-MatchOffset) * (1 + populationSize/100)
func RawReward(matches, populationSize int) float64 {
	base := math.Pow(10, float64(matches-MatchOffset))
	competition := 1 + float64(populationSize)/100
	return base * competition
}

// Reward returns RawReward rounded to the nearest integer. Rewards below 0.5
// round to zero, so only near-complete predictions pay out.
func Reward(matches, populationSize int) int {
	if populationSize <= 0 {
		panic("sim: reward requires a positive population size")
	}
	return int(math.Round(RawReward(matches, populationSize)))
}

// CountMatches counts predicted numbers that appear on the board.
// Duplicate predictions are counted once per occurrence.
func CountMatches(predictions, board []int) int {
	drawn := make(map[int]struct{}, len(board))
	for _, n := range board {
		drawn[n] = struct{}{}
	}
	matches := 0
	for _, n := range predictions {
		if _, ok := drawn[n]; ok {
			matches++
		}
	}
	return matches
}
