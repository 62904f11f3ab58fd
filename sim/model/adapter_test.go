package model

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/drawsim/sim"
)

func TestAdapter_Unloaded_ReturnsModelUnavailable(t *testing.T) {
	a := NewAdapter(nil)
	assert.False(t, a.Ready())
	_, err := a.Predict(context.Background(), []float64{1})
	assert.ErrorIs(t, err, sim.ErrModelUnavailable)
}

func TestAdapter_SetSwapsModel(t *testing.T) {
	a := NewAdapter(nil)
	net, err := NewPlaceholder(DefaultDescriptor(3), rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	a.Set(net)
	assert.True(t, a.Ready())
	out, err := a.Predict(context.Background(), make([]float64, 6))
	require.NoError(t, err)
	assert.Len(t, out, 3)

	a.Set(nil)
	assert.False(t, a.Ready())
}

func TestAdapter_BoardWidth_FollowsLoadedModel(t *testing.T) {
	a := NewAdapter(nil)
	_, ok := a.BoardWidth()
	assert.False(t, ok)

	net, err := NewPlaceholder(DefaultDescriptor(7), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	a.Set(net)

	width, ok := a.BoardWidth()
	assert.True(t, ok)
	assert.Equal(t, 7, width)
}

func TestAdapter_SimulatorRejectsDataOfOtherWidth(t *testing.T) {
	// GIVEN a simulator whose model predicts five numbers
	cfg := sim.DefaultSimConfig()
	cfg.Board.Size = 5
	net, err := NewPlaceholder(DefaultDescriptor(5), rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	s, err := sim.NewSimulator(cfg, NewAdapter(net))
	require.NoError(t, err)

	// WHEN a three-column history is loaded
	err = s.LoadData(strings.NewReader("a,b,c\n1,2,3\n"))

	// THEN it is rejected and rounds keep playing on synthesized boards
	require.ErrorIs(t, err, sim.ErrBoardWidthMismatch)
	require.NoError(t, s.Run(context.Background(), 3))
	assert.Equal(t, int64(3), s.Metrics.RoundsPlayed)
	assert.Zero(t, s.Metrics.SkippedRounds)
}

func TestAdapter_DrivesSimulator(t *testing.T) {
	// GIVEN a simulator driven by a placeholder model
	cfg := sim.DefaultSimConfig()
	cfg.Board.Size = 5
	cfg.Generation.RoundsPerGeneration = 2
	net, err := NewPlaceholder(DefaultDescriptor(5), rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	s, err := sim.NewSimulator(cfg, NewAdapter(net))
	require.NoError(t, err)

	// WHEN two generations are played
	require.NoError(t, s.Run(context.Background(), 4))

	// THEN every round was scored
	assert.Equal(t, int64(4), s.Metrics.RoundsPlayed)
	assert.Len(t, s.Trace.Generations, 2)
	for _, p := range s.State.Players {
		assert.Len(t, p.Predictions, 5)
	}
}
