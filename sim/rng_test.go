package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartitionedRNG_SameKeySameBoards(t *testing.T) {
	// GIVEN two RNGs built from the same key
	a := NewPartitionedRNG(NewSimulationKey(42))
	b := NewPartitionedRNG(NewSimulationKey(42))
	cfg := DefaultSimConfig().Board

	// WHEN each synthesizes three boards
	// THEN the boards are identical
	for i := 0; i < 3; i++ {
		assert.Equal(t,
			synthesizeBoard(cfg, a.ForSubsystem(SubsystemSynthesis)),
			synthesizeBoard(cfg, b.ForSubsystem(SubsystemSynthesis)),
			"board %d", i)
	}
}

func TestPartitionedRNG_SubsystemIsolation(t *testing.T) {
	// GIVEN one RNG that draws heavily from the board stream
	used := NewPartitionedRNG(NewSimulationKey(7))
	for i := 0; i < 50; i++ {
		used.ForSubsystem(SubsystemBoard).Intn(100)
	}
	fresh := NewPartitionedRNG(NewSimulationKey(7))

	// WHEN both draw from the synthesis stream
	// THEN the board stream did not shift it
	assert.Equal(t, fresh.ForSubsystem(SubsystemSynthesis).Int63(), used.ForSubsystem(SubsystemSynthesis).Int63())
}

func TestPartitionedRNG_BoardUsesMasterSeed(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(99))
	direct := newRandFromSeed(99)
	for i := 0; i < 5; i++ {
		assert.Equal(t, direct.Float64(), rng.ForSubsystem(SubsystemBoard).Float64())
	}
}

func TestPartitionedRNG_CachesInstance(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(1))
	assert.Same(t, rng.ForSubsystem(SubsystemModel), rng.ForSubsystem(SubsystemModel))
	assert.Equal(t, NewSimulationKey(1), rng.Key())
}

func TestSubsystemPlayer(t *testing.T) {
	assert.Equal(t, "player_3", SubsystemPlayer(3))
	assert.NotEqual(t, fnv1a64(SubsystemPlayer(1)), fnv1a64(SubsystemPlayer(2)))
}

func BenchmarkPartitionedRNG_ForSubsystem_CacheHit(b *testing.B) {
	rng := NewPartitionedRNG(NewSimulationKey(42))
	rng.ForSubsystem(SubsystemSynthesis)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rng.ForSubsystem(SubsystemSynthesis)
	}
}
