package history

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/trace"
)

// Recorder adapts a Store to sim.GenerationRecorder. Store failures are
// logged and never interrupt the simulation.
type Recorder struct {
	store   Store
	timeout time.Duration
	now     func() time.Time
}

// NewRecorder wraps store; each write is bounded by timeout.
func NewRecorder(store Store, timeout time.Duration) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Recorder{store: store, timeout: timeout, now: time.Now}
}

func (r *Recorder) StartRun(runID string, cfg sim.SimConfig) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	run := Run{
		ID:                  runID,
		StartedAt:           r.now(),
		PopulationSize:      cfg.Population.Size,
		BoardSize:           cfg.Board.Size,
		RoundsPerGeneration: cfg.Generation.RoundsPerGeneration,
		Seed:                cfg.Seed,
	}
	if err := r.store.SaveRun(ctx, run); err != nil {
		logrus.Errorf("history: save run %s: %v", runID, err)
	}
}

func (r *Recorder) RecordGeneration(runID string, record trace.GenerationRecord, players []sim.Player) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	gen := Generation{RunID: runID, GenerationRecord: record, Players: players}
	if err := r.store.SaveGeneration(ctx, gen); err != nil {
		logrus.Errorf("history: save generation %d of run %s: %v", record.Generation, runID, err)
	}
}

var _ sim.GenerationRecorder = (*Recorder)(nil)
