package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReward_KnownValues(t *testing.T) {
	tests := []struct {
		name       string
		matches    int
		population int
		want       int
	}{
		{"ten matches, ten players", 10, 10, 1},
		{"fifteen matches, ten players", 15, 10, 110000},
		{"zero matches rounds to zero", 0, 10, 0},
		{"nine matches rounds to zero", 9, 10, 0},
		{"twenty matches, hundred players", 20, 100, 20000000000},
		{"eleven matches, single player", 11, 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reward(tt.matches, tt.population))
		})
	}
}

func TestRawReward_StrictlyIncreasingInMatches(t *testing.T) {
	for _, n := range []int{1, 10, 100} {
		for m := 0; m < 20; m++ {
			assert.Less(t, RawReward(m, n), RawReward(m+1, n), "m=%d n=%d", m, n)
		}
	}
}

func TestReward_NonDecreasingInMatches(t *testing.T) {
	// Rounding flattens the curve below MatchOffset; from there on it is strict.
	for m := 0; m < 20; m++ {
		assert.LessOrEqual(t, Reward(m, 10), Reward(m+1, 10), "m=%d", m)
		if m >= MatchOffset {
			assert.Less(t, Reward(m, 10), Reward(m+1, 10), "m=%d", m)
		}
	}
}

func TestReward_NonDecreasingInPopulation(t *testing.T) {
	for n := 1; n < 200; n++ {
		assert.LessOrEqual(t, Reward(12, n), Reward(12, n+1), "n=%d", n)
		assert.Less(t, RawReward(12, n), RawReward(12, n+1), "n=%d", n)
	}
}

func TestReward_NonPositivePopulation_Panics(t *testing.T) {
	assert.Panics(t, func() { Reward(10, 0) })
	assert.Panics(t, func() { Reward(10, -3) })
}

func TestCountMatches(t *testing.T) {
	tests := []struct {
		name        string
		predictions []int
		board       []int
		want        int
	}{
		{"all match", []int{1, 2, 3}, []int{3, 2, 1}, 3},
		{"none match", []int{4, 5}, []int{1, 2, 3}, 0},
		{"duplicates each count", []int{2, 2, 2}, []int{1, 2, 3}, 3},
		{"empty prediction", nil, []int{1, 2}, 0},
		{"empty board", []int{1, 2}, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountMatches(tt.predictions, tt.board))
		})
	}
}
