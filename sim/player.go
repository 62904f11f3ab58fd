package sim

// Player is one agent of the population.
// ID is stable for the whole run; Score never goes below zero.
type Player struct {
	ID          int   `json:"id" msgpack:"id"`
	Score       int   `json:"score" msgpack:"score"`
	Predictions []int `json:"predictions" msgpack:"predictions"`
}

// NewPopulation creates size players with IDs 1..size, zero score and no
// predictions. A non-positive size is a programming error and panics.
func NewPopulation(size int) []*Player {
	if size <= 0 {
		panic("sim: population size must be positive")
	}
	players := make([]*Player, size)
	for i := range players {
		players[i] = &Player{ID: i + 1, Predictions: []int{}}
	}
	return players
}

// clonePlayers returns value copies safe to hand to other goroutines.
func clonePlayers(players []*Player) []Player {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = Player{
			ID:          p.ID,
			Score:       p.Score,
			Predictions: append([]int(nil), p.Predictions...),
		}
	}
	return out
}
