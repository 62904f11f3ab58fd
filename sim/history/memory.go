package history

import (
	"context"
	"sync"

	"github.com/inference-sim/drawsim/sim"
)

type MemoryStore struct {
	mu          sync.RWMutex
	runs        []Run
	runIndex    map[string]int
	generations map[string][]Generation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runIndex:    make(map[string]int),
		generations: make(map[string][]Generation),
	}
}

func (s *MemoryStore) Init(context.Context) error {
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.runIndex[run.ID]; ok {
		s.runs[i] = run
		return nil
	}
	s.runIndex[run.ID] = len(s.runs)
	s.runs = append(s.runs, run)
	return nil
}

func (s *MemoryStore) ListRuns(context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Run(nil), s.runs...), nil
}

func (s *MemoryStore) SaveGeneration(_ context.Context, gen Generation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen.Players = copyPlayers(gen.Players)
	s.generations[gen.RunID] = append(s.generations[gen.RunID], gen)
	return nil
}

func (s *MemoryStore) GetGenerations(_ context.Context, runID string) ([]Generation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	gens, ok := s.generations[runID]
	if !ok {
		return nil, false, nil
	}
	out := make([]Generation, len(gens))
	for i, g := range gens {
		g.Players = copyPlayers(g.Players)
		out[i] = g
	}
	return out, true, nil
}

func copyPlayers(players []sim.Player) []sim.Player {
	out := make([]sim.Player, len(players))
	for i, p := range players {
		p.Predictions = append([]int(nil), p.Predictions...)
		out[i] = p
	}
	return out
}
