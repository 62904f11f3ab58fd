package sim

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/drawsim/sim/draws"
	"github.com/inference-sim/drawsim/sim/trace"
)

func TestNewSimulator_InvalidConfig_ReturnsError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimConfig)
	}{
		{"zero population", func(c *SimConfig) { c.Population.Size = 0 }},
		{"zero board", func(c *SimConfig) { c.Board.Size = 0 }},
		{"empty range", func(c *SimConfig) { c.Board.NumberMax = c.Board.NumberMin }},
		{"zero rounds", func(c *SimConfig) { c.Generation.RoundsPerGeneration = 0 }},
		{"bad trace level", func(c *SimConfig) { c.TraceLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSimConfig()
			tt.mutate(&cfg)
			_, err := NewSimulator(cfg, nil)
			assert.Error(t, err)
		})
	}
}

func TestNewSimulator_FreshState(t *testing.T) {
	s := mustSimulator(t, DefaultSimConfig(), nil)

	assert.Len(t, s.State.Players, DefaultPopulationSize)
	for i, p := range s.State.Players {
		assert.Equal(t, i+1, p.ID)
		assert.Zero(t, p.Score)
		assert.Empty(t, p.Predictions)
	}
	assert.Equal(t, 1, s.State.Generation)
	assert.Zero(t, s.State.RoundProgress)
	assert.Empty(t, s.State.Board)
	assert.NotEmpty(t, s.RunID)
}

func TestStep_NoModel_IsNoOp(t *testing.T) {
	for _, p := range []Predictor{nil, unloadedPredictor{}} {
		// GIVEN a simulator without a usable model
		s := mustSimulator(t, smallConfig(3), p)

		// WHEN a round is attempted
		err := s.Step(context.Background())

		// THEN it reports the model as unavailable and nothing changed
		assert.ErrorIs(t, err, ErrModelUnavailable)
		assert.Empty(t, s.Trace.Logs)
		assert.Empty(t, s.State.Board)
		assert.Zero(t, s.State.RoundProgress)
		assert.Zero(t, s.Metrics.RoundsPlayed)
		assert.Zero(t, s.Metrics.SkippedRounds)
		assert.Len(t, s.EventQueue, 1)
	}
}

func TestStep_PerfectPrediction_ScoresEveryPlayer(t *testing.T) {
	// GIVEN ten players and a model that predicts the board exactly
	s := mustSimulator(t, smallConfig(100), &echoPredictor{width: 10})

	// WHEN one round is played
	stepN(t, s, 1)

	// THEN every player matched 10 numbers and earned round(1 * 1.1) = 1
	require.Len(t, s.Trace.Logs, 10)
	for i, p := range s.State.Players {
		assert.Equal(t, 1, p.Score)
		assert.ElementsMatch(t, s.State.Board, p.Predictions)
		assert.Equal(t, fmt.Sprintf("%d: 10 matches, reward 1", p.ID), s.Trace.Logs[i])
	}
	assert.Len(t, s.State.Board, 10)
	assert.Equal(t, 1, s.State.RoundProgress)
	assert.Equal(t, int64(1), s.Metrics.RoundsPlayed)
	require.NotNil(t, s.State.LastRound)
	assert.Equal(t, int64(0), s.State.LastRound.Round)
}

func TestStep_BoardWithinDomain(t *testing.T) {
	cfg := smallConfig(100)
	s := mustSimulator(t, cfg, &constPredictor{out: make([]float64, 10)})
	for i := 0; i < 20; i++ {
		stepN(t, s, 1)
		for _, n := range s.State.Board {
			assert.GreaterOrEqual(t, n, cfg.Board.NumberMin)
			assert.LessOrEqual(t, n, cfg.Board.NumberMax)
		}
	}
}

func TestStep_ConstantZeroPrediction_PredictsRangeMinimum(t *testing.T) {
	s := mustSimulator(t, smallConfig(100), &constPredictor{out: make([]float64, 10)})
	stepN(t, s, 1)
	for _, p := range s.State.Players {
		for _, n := range p.Predictions {
			assert.Equal(t, DefaultNumberMin, n)
		}
	}
}

func TestStep_GenerationBoundary_RunsEvolution(t *testing.T) {
	// GIVEN three rounds per generation
	rec := &memRecorder{}
	s := mustSimulator(t, smallConfig(3), &echoPredictor{width: 10})
	s.SetRecorder(rec)

	// WHEN two rounds are played
	stepN(t, s, 2)

	// THEN no generation has completed yet
	assert.Equal(t, 1, s.State.Generation)
	assert.Empty(t, s.Trace.Generations)

	// WHEN the third round is played
	stepN(t, s, 1)

	// THEN evolution ran in the same step and progress wrapped
	assert.Equal(t, 2, s.State.Generation)
	assert.Zero(t, s.State.RoundProgress)
	assert.Equal(t, []trace.GenerationRecord{{Generation: 1, Score: 3}}, s.Trace.Generations)
	assert.Equal(t, "Generation 1 complete: best score 3, 10 survivor(s)", s.Trace.Logs[len(s.Trace.Logs)-1])
	for _, p := range s.State.Players {
		assert.Equal(t, 3, p.Score, "tied players all survive")
	}
	require.Len(t, rec.generations, 1)
	assert.Len(t, rec.players[0], 10)
	assert.Equal(t, []string{s.RunID}, rec.runs)
}

func TestEvolve_KeepsOnlyTopScorers(t *testing.T) {
	// GIVEN scores [5, 9, 9, 2]
	cfg := smallConfig(3)
	cfg.Population.Size = 4
	s := mustSimulator(t, cfg, nil)
	for i, score := range []int{5, 9, 9, 2} {
		s.State.Players[i].Score = score
	}

	// WHEN evolution runs
	s.Evolve()

	// THEN only the tied maximum survives
	var scores []int
	for _, p := range s.State.Players {
		scores = append(scores, p.Score)
	}
	assert.Equal(t, []int{0, 9, 9, 0}, scores)
	assert.Equal(t, []trace.GenerationRecord{{Generation: 1, Score: 9}}, s.Trace.Generations)
	assert.Equal(t, 2, s.State.Generation)
	assert.Equal(t, 9, s.Metrics.BestScore)
}

func TestEvolve_AllZero_EveryoneSurvives(t *testing.T) {
	s := mustSimulator(t, smallConfig(3), nil)
	s.Evolve()
	assert.Equal(t, []trace.GenerationRecord{{Generation: 1, Score: 0}}, s.Trace.Generations)
	assert.True(t, strings.HasSuffix(s.Trace.Logs[0], "10 survivor(s)"))
}

func TestStep_InferenceFailure_SkipsRound(t *testing.T) {
	// GIVEN a model whose every inference fails
	s := mustSimulator(t, smallConfig(3), failingPredictor{})

	// WHEN a round is attempted
	err := s.Step(context.Background())

	// THEN the round is skipped with a log entry and no score change
	var inferr *InferenceError
	require.True(t, errors.As(err, &inferr))
	assert.Equal(t, int64(0), inferr.Round)
	assert.Contains(t, err.Error(), "tensor shape mismatch")
	require.Len(t, s.Trace.Logs, 1)
	assert.Contains(t, s.Trace.Logs[0], "Round 0 skipped")
	assert.Zero(t, s.State.RoundProgress)
	assert.Equal(t, int64(1), s.Metrics.SkippedRounds)
	for _, p := range s.State.Players {
		assert.Zero(t, p.Score)
	}

	// WHEN the model is fixed
	s.SetPredictor(&echoPredictor{width: 10})

	// THEN the loop continues with the next round
	stepN(t, s, 1)
	assert.Equal(t, int64(1), s.State.LastRound.Round)
}

func TestStep_WrongPredictionWidth_SkipsRound(t *testing.T) {
	s := mustSimulator(t, smallConfig(3), &constPredictor{out: []float64{0.5}})
	err := s.Step(context.Background())
	var inferr *InferenceError
	assert.True(t, errors.As(err, &inferr))
	assert.Contains(t, err.Error(), "prediction has 1 values, board has 10")
}

func TestSimulator_SameSeed_SameRun(t *testing.T) {
	out := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	a := mustSimulator(t, smallConfig(5), &constPredictor{out: out})
	b := mustSimulator(t, smallConfig(5), &constPredictor{out: out})

	require.NoError(t, a.Run(context.Background(), 20))
	require.NoError(t, b.Run(context.Background(), 20))

	assert.Equal(t, a.Trace.Logs, b.Trace.Logs)
	assert.Equal(t, a.Trace.Generations, b.Trace.Generations)
	assert.Equal(t, a.State.Board, b.State.Board)
}

func TestRun_Horizon_PlaysThatManyRounds(t *testing.T) {
	s := mustSimulator(t, smallConfig(4), &echoPredictor{width: 10})
	require.NoError(t, s.Run(context.Background(), 12))
	assert.Equal(t, int64(12), s.Metrics.RoundsPlayed)
	assert.Len(t, s.Trace.Generations, 3)
	assert.Equal(t, 4, s.State.Generation)
}

func TestRun_NoModel_ReturnsError(t *testing.T) {
	s := mustSimulator(t, smallConfig(4), nil)
	assert.ErrorIs(t, s.Run(context.Background(), 5), ErrModelUnavailable)
}

func TestRun_CancelledContext_Stops(t *testing.T) {
	s := mustSimulator(t, smallConfig(4), &echoPredictor{width: 10})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, 100), context.Canceled)
	assert.Zero(t, s.Metrics.RoundsPlayed)
}

func TestReset_RestoresFreshRun(t *testing.T) {
	// GIVEN a simulator mid-run
	s := mustSimulator(t, smallConfig(2), &echoPredictor{width: 10})
	stepN(t, s, 3)
	oldRun := s.RunID

	// WHEN it is reset
	s.Reset()

	// THEN state is back to the initial values
	assert.Equal(t, 1, s.State.Generation)
	assert.Zero(t, s.State.RoundProgress)
	assert.Empty(t, s.State.Board)
	assert.Empty(t, s.Trace.Logs)
	assert.Empty(t, s.Trace.Generations)
	assert.Nil(t, s.State.LastRound)
	assert.NotEqual(t, oldRun, s.RunID)
	for _, p := range s.State.Players {
		assert.Zero(t, p.Score)
	}
	// AND the model is kept
	stepN(t, s, 1)
}

func TestReset_AfterThreeGenerations(t *testing.T) {
	// GIVEN three full generations at the default generation length
	cfg := smallConfig(DefaultRoundsPerGeneration)
	s := mustSimulator(t, cfg, &echoPredictor{width: 10})
	stepN(t, s, 3*cfg.Generation.RoundsPerGeneration)

	// THEN generation records are 1, 2, 3 without gaps
	require.Len(t, s.Trace.Generations, 3)
	for i, g := range s.Trace.Generations {
		assert.Equal(t, i+1, g.Generation)
	}
	assert.Equal(t, 4, s.State.Generation)
	assert.Zero(t, s.State.RoundProgress)
	require.NotEmpty(t, s.Trace.Logs)

	// WHEN it is reset
	s.Reset()

	// THEN it is back at generation 1 with no records or logs and the same population size
	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Generation)
	assert.Empty(t, snap.Generations)
	assert.Zero(t, snap.LogCount)
	assert.Empty(t, s.LogsSince(0))
	assert.Len(t, snap.Players, cfg.Population.Size)
}

func TestLoadData_BoardsComeFromHistory(t *testing.T) {
	// GIVEN a history with a single draw
	s := mustSimulator(t, smallConfig(3), &echoPredictor{width: 4})
	require.NoError(t, s.LoadData(strings.NewReader("a,b,c,d\n4,8,15,16\n4,8,15,16\n")))

	// WHEN a round is played
	stepN(t, s, 1)

	// THEN the board is that draw
	assert.Equal(t, []int{4, 8, 15, 16}, s.State.Board)
	assert.Equal(t, 2, s.Snapshot().DataRows)
}

func TestLoadData_Malformed_KeepsPreviousData(t *testing.T) {
	s := mustSimulator(t, smallConfig(3), &echoPredictor{width: 2})
	require.NoError(t, s.LoadData(strings.NewReader("a,b\n1,2\n3,4\n")))

	err := s.LoadData(strings.NewReader("a,b\n1,x\n"))

	var ferr *draws.FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, 2, s.Snapshot().DataRows)
}

func TestLoadData_WidthMismatch_KeepsStateAndRounds(t *testing.T) {
	// GIVEN a model predicting ten numbers and no data loaded
	s := mustSimulator(t, smallConfig(3), &echoPredictor{width: 10})

	// WHEN a three-column history is loaded
	err := s.LoadData(strings.NewReader("a,b,c\n1,2,3\n4,5,6\n"))

	// THEN it is rejected and boards are still synthesized
	require.ErrorIs(t, err, ErrBoardWidthMismatch)
	assert.Zero(t, s.Snapshot().DataRows)
	stepN(t, s, 5)
	assert.Equal(t, int64(5), s.Metrics.RoundsPlayed)
	assert.Zero(t, s.Metrics.SkippedRounds)
	assert.Len(t, s.State.Board, 10)
}

func TestPerturber_ReceivesPrivateCopies(t *testing.T) {
	cfg := smallConfig(3)
	cfg.Population.Size = 3
	perturber := &shiftPerturber{seen: map[int][]int{}}
	s := mustSimulator(t, cfg, &constPredictor{out: make([]float64, 10)})
	s.SetPerturber(perturber)

	stepN(t, s, 1)

	for _, p := range s.State.Players {
		assert.Equal(t, DefaultNumberMin+p.ID, p.Predictions[0])
	}
	assert.Equal(t, DefaultNumberMin, s.State.LastRound.Prediction[0])
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	s := mustSimulator(t, smallConfig(3), &echoPredictor{width: 10})
	stepN(t, s, 1)

	snap := s.Snapshot()
	snap.Players[0].Score = 1000
	snap.Board[0] = -1
	snap.LastRound.Board[0] = -1

	assert.Equal(t, 1, s.State.Players[0].Score)
	assert.NotEqual(t, -1, s.State.Board[0])
	assert.NotEqual(t, -1, s.State.LastRound.Board[0])
	assert.Equal(t, int64(1), snap.Round)
	assert.Equal(t, 10, snap.LogCount)
	assert.True(t, snap.ModelReady)
}

func TestEventQueue_RoundBeforeEvolutionAtSameTimestamp(t *testing.T) {
	// GIVEN events pushed out of order
	eq := make(EventQueue, 0)
	heap.Push(&eq, &EvolutionEvent{time: 5})
	heap.Push(&eq, &RoundEvent{time: 6})
	heap.Push(&eq, &RoundEvent{time: 5})

	// WHEN they are popped
	var order []string
	for eq.Len() > 0 {
		ev := heap.Pop(&eq).(Event)
		order = append(order, fmt.Sprintf("%T@%d", ev, ev.Timestamp()))
	}

	// THEN timestamp orders first, then the round precedes evolution
	assert.Equal(t, []string{"*sim.RoundEvent@5", "*sim.EvolutionEvent@5", "*sim.RoundEvent@6"}, order)
}
