package sim

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inference-sim/drawsim/sim/trace"
)

// echoPredictor returns the leading width features, i.e. the normalized board
// it was given, so every player matches the whole board.
type echoPredictor struct {
	mu    sync.Mutex
	width int
	calls int
}

func (p *echoPredictor) Ready() bool { return true }

func (p *echoPredictor) Predict(_ context.Context, features []float64) ([]float64, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	out := make([]float64, p.width)
	copy(out, features[:p.width])
	return out, nil
}

func (p *echoPredictor) BoardWidth() (int, bool) { return p.width, true }

func (p *echoPredictor) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// constPredictor always predicts the same normalized vector.
type constPredictor struct {
	out []float64
}

func (p *constPredictor) Ready() bool { return true }

func (p *constPredictor) Predict(context.Context, []float64) ([]float64, error) {
	return append([]float64(nil), p.out...), nil
}

// failingPredictor reports ready but every inference fails.
type failingPredictor struct{}

func (failingPredictor) Ready() bool { return true }

func (failingPredictor) Predict(context.Context, []float64) ([]float64, error) {
	return nil, errors.New("tensor shape mismatch")
}

// unloadedPredictor mirrors an adapter with no model set.
type unloadedPredictor struct{}

func (unloadedPredictor) Ready() bool { return false }

func (unloadedPredictor) Predict(context.Context, []float64) ([]float64, error) {
	return nil, ErrModelUnavailable
}

// shiftPerturber adds the player id to the first prediction.
type shiftPerturber struct {
	seen map[int][]int
}

func (p *shiftPerturber) Perturb(playerID int, prediction []int, _ *rand.Rand) []int {
	if len(prediction) > 0 {
		prediction[0] += playerID
	}
	p.seen[playerID] = prediction
	return prediction
}

// memRecorder captures recorded generations.
type memRecorder struct {
	runs        []string
	generations []trace.GenerationRecord
	players     [][]Player
}

func (r *memRecorder) StartRun(runID string, _ SimConfig) {
	r.runs = append(r.runs, runID)
}

func (r *memRecorder) RecordGeneration(_ string, record trace.GenerationRecord, players []Player) {
	r.generations = append(r.generations, record)
	r.players = append(r.players, players)
}

// smallConfig returns a config with a ten-number board over 1..80.
func smallConfig(rounds int) SimConfig {
	cfg := DefaultSimConfig()
	cfg.Board.Size = 10
	cfg.Generation.RoundsPerGeneration = rounds
	return cfg
}

func mustSimulator(t *testing.T, cfg SimConfig, p Predictor) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, p)
	require.NoError(t, err)
	return s
}

func stepN(t *testing.T, s *Simulator, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, s.Step(context.Background()))
	}
}
