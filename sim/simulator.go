package sim

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/drawsim/sim/draws"
	"github.com/inference-sim/drawsim/sim/trace"
)

// EventQueue implements heap.Interface and orders events by timestamp,
// then by type priority.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []Event

func (eq EventQueue) Len() int { return len(eq) }
func (eq EventQueue) Less(i, j int) bool {
	if eq[i].Timestamp() != eq[j].Timestamp() {
		return eq[i].Timestamp() < eq[j].Timestamp()
	}
	return eq[i].Priority() < eq[j].Priority()
}
func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	*eq = old[0 : n-1]
	return item
}

// Simulator is the core object that holds simulation time, the population,
// the event queue and the collaborators a round needs.
// It is not safe for concurrent use; Controller serializes access.
type Simulator struct {
	Clock      int64
	EventQueue EventQueue
	Config     SimConfig
	State      SimulationState
	Trace      *trace.SimulationTrace
	Metrics    *Metrics
	RunID      string

	predictor Predictor
	perturber Perturber
	recorder  GenerationRecorder
	dataset   *draws.Dataset
	domain    draws.Scaler
	rng       *PartitionedRNG
	roundErr  error
}

// NewSimulator validates cfg and returns a Simulator with a fresh population
// and the first RoundEvent scheduled. predictor may be nil.
func NewSimulator(cfg SimConfig, predictor Predictor) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}
	s := &Simulator{
		Config:    cfg,
		predictor: predictor,
		Trace:     trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel}),
		domain:    draws.DomainScaler(cfg.Board.Size, float64(cfg.Board.NumberMin), float64(cfg.Board.NumberMax)),
		rng:       NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
	}
	s.startRun()
	return s, nil
}

func (sim *Simulator) startRun() {
	sim.Clock = 0
	sim.EventQueue = make(EventQueue, 0)
	sim.State = newSimulationState(sim.Config.Population.Size)
	sim.Metrics = NewMetrics()
	sim.RunID = uuid.NewString()
	sim.roundErr = nil
	sim.Schedule(&RoundEvent{time: 0})
	if sim.recorder != nil {
		sim.recorder.StartRun(sim.RunID, sim.Config)
	}
}

// Schedule pushes an event into the simulator's EventQueue.
func (sim *Simulator) Schedule(ev Event) {
	heap.Push(&sim.EventQueue, ev)
}

// SetPredictor swaps the model used for subsequent rounds. nil unloads it.
func (sim *Simulator) SetPredictor(p Predictor) {
	sim.predictor = p
}

// SetPerturber installs an optional per-player prediction adjustment.
func (sim *Simulator) SetPerturber(p Perturber) {
	sim.perturber = p
}

// SetRecorder installs a generation recorder and announces the current run to it.
func (sim *Simulator) SetRecorder(r GenerationRecorder) {
	sim.recorder = r
	if r != nil {
		r.StartRun(sim.RunID, sim.Config)
	}
}

// ModelReady reports whether a round could obtain a prediction right now.
func (sim *Simulator) ModelReady() bool {
	return sim.predictor != nil && sim.predictor.Ready()
}

// LoadData replaces the draw history used for board selection.
// On error the previous data stays in place.
func (sim *Simulator) LoadData(in io.Reader) error {
	ds, err := draws.Load(in)
	if err != nil {
		return err
	}
	if err := sim.checkWidth(ds.Width()); err != nil {
		return err
	}
	sim.SetDataset(ds)
	return nil
}

// checkWidth rejects data whose width differs from the loaded model's output.
// Predictors that do not report a width are not checked.
func (sim *Simulator) checkWidth(width int) error {
	wr, ok := sim.predictor.(WidthReporter)
	if !ok {
		return nil
	}
	want, loaded := wr.BoardWidth()
	if !loaded || want == width {
		return nil
	}
	return fmt.Errorf("%w: data has %d columns, model predicts %d", ErrBoardWidthMismatch, width, want)
}

// SetDataset installs an already loaded draw history. nil reverts to
// synthesized boards.
func (sim *Simulator) SetDataset(ds *draws.Dataset) {
	sim.dataset = ds
	if ds != nil {
		logrus.Infof("Loaded %d draws of width %d", ds.Len(), ds.Width())
	}
}

// Step executes every event at the head timestamp, i.e. one round and the
// evolution it may trigger. Without a ready model nothing is mutated and
// ErrModelUnavailable is returned. A failed inference skips the round and is
// returned as *InferenceError.
func (sim *Simulator) Step(ctx context.Context) error {
	if !sim.ModelReady() {
		return ErrModelUnavailable
	}
	if len(sim.EventQueue) == 0 {
		sim.Schedule(&RoundEvent{time: sim.Clock + 1})
	}
	sim.roundErr = nil
	now := sim.EventQueue[0].Timestamp()
	for len(sim.EventQueue) > 0 && sim.EventQueue[0].Timestamp() == now {
		ev := heap.Pop(&sim.EventQueue).(Event)
		sim.Clock = ev.Timestamp()
		logrus.Debugf("[round %07d] Executing %T", sim.Clock, ev)
		ev.Execute(ctx, sim)
	}
	return sim.roundErr
}

// Run plays rounds until the round counter reaches horizon or ctx is done.
// Skipped rounds count toward the horizon.
func (sim *Simulator) Run(ctx context.Context, horizon int64) error {
	for len(sim.EventQueue) > 0 && sim.EventQueue[0].Timestamp() < horizon {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := sim.Step(ctx)
		var inferr *InferenceError
		switch {
		case err == nil:
		case errors.As(err, &inferr):
			logrus.Warnf("[round %07d] %v", sim.Clock, err)
		default:
			return err
		}
	}
	logrus.Infof("[round %07d] Simulation ended", sim.Clock)
	return nil
}

// PlayRound selects a board, obtains one prediction, scores every player and
// advances round progress. The next round is always scheduled.
func (sim *Simulator) PlayRound(ctx context.Context, now int64) {
	defer sim.Schedule(&RoundEvent{time: now + 1})

	board, err := sim.selectBoard()
	if err != nil {
		sim.skipRound(now, err)
		return
	}
	prediction, err := sim.predict(ctx, board)
	if err != nil {
		if errors.Is(err, ErrModelUnavailable) {
			sim.roundErr = err
			return
		}
		sim.skipRound(now, err)
		return
	}

	sim.State.Board = board
	populationSize := len(sim.State.Players)
	results := make([]trace.PlayerResult, 0, populationSize)
	for _, p := range sim.State.Players {
		picks := append([]int(nil), prediction...)
		if sim.perturber != nil {
			picks = sim.perturber.Perturb(p.ID, picks, sim.rng.ForSubsystem(SubsystemPlayer(p.ID)))
		}
		matches := CountMatches(picks, board)
		reward := Reward(matches, populationSize)
		p.Score += reward
		p.Predictions = picks
		sim.Metrics.RecordMatches(matches)
		sim.log(fmt.Sprintf("%d: %d matches, reward %d", p.ID, matches, reward))
		results = append(results, trace.PlayerResult{
			PlayerID: p.ID,
			Matches:  matches,
			Reward:   reward,
			Score:    p.Score,
		})
	}

	record := trace.RoundRecord{
		Round:      now,
		Generation: sim.State.Generation,
		Board:      append([]int(nil), board...),
		Prediction: append([]int(nil), prediction...),
		Results:    results,
	}
	sim.State.LastRound = &record
	sim.Trace.RecordRound(record)
	sim.Metrics.RoundsPlayed++

	rounds := sim.Config.Generation.RoundsPerGeneration
	if sim.State.RoundProgress == rounds-1 {
		sim.Schedule(&EvolutionEvent{time: now})
	}
	sim.State.RoundProgress = (sim.State.RoundProgress + 1) % rounds
}

// Evolve keeps the players holding the maximum score, resets everyone else
// to zero, records the generation and advances the generation counter.
func (sim *Simulator) Evolve() {
	players := sim.State.Players
	if len(players) == 0 {
		panic("sim: evolve on empty population")
	}
	best := players[0].Score
	for _, p := range players[1:] {
		if p.Score > best {
			best = p.Score
		}
	}
	survivors := 0
	for _, p := range players {
		if p.Score < best {
			p.Score = 0
			continue
		}
		survivors++
	}

	record := trace.GenerationRecord{Generation: sim.State.Generation, Score: best}
	sim.Trace.RecordGeneration(record)
	sim.Metrics.RecordGeneration(best)
	if sim.recorder != nil {
		sim.recorder.RecordGeneration(sim.RunID, record, clonePlayers(players))
	}
	sim.log(fmt.Sprintf("Generation %d complete: best score %d, %d survivor(s)", record.Generation, best, survivors))
	sim.State.Generation++
}

// Reset returns to a fresh run: new population, empty board and logs,
// generation 1, progress 0. Loaded data and the model are kept.
func (sim *Simulator) Reset() {
	sim.Trace.Reset()
	sim.startRun()
	logrus.Infof("Simulation reset, run %s", sim.RunID)
}

// Snapshot returns a deep copy of the observable state.
func (sim *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		RunID:               sim.RunID,
		Round:               sim.Metrics.RoundsPlayed + sim.Metrics.SkippedRounds,
		Generation:          sim.State.Generation,
		RoundProgress:       sim.State.RoundProgress,
		RoundsPerGeneration: sim.Config.Generation.RoundsPerGeneration,
		Players:             clonePlayers(sim.State.Players),
		Board:               append([]int{}, sim.State.Board...),
		Generations:         append([]trace.GenerationRecord{}, sim.Trace.Generations...),
		LogCount:            len(sim.Trace.Logs),
		ModelReady:          sim.ModelReady(),
	}
	if sim.State.LastRound != nil {
		last := *sim.State.LastRound
		last.Board = append([]int(nil), last.Board...)
		last.Prediction = append([]int(nil), last.Prediction...)
		last.Results = append([]trace.PlayerResult(nil), last.Results...)
		snap.LastRound = &last
	}
	if sim.dataset != nil {
		snap.DataRows = sim.dataset.Len()
	}
	return snap
}

// LogsSince returns log lines starting at index since.
func (sim *Simulator) LogsSince(since int) []string {
	return sim.Trace.LogsSince(since)
}

func (sim *Simulator) log(line string) {
	logrus.Debug(line)
	sim.Trace.RecordLog(line)
}

func (sim *Simulator) skipRound(now int64, err error) {
	sim.Metrics.SkippedRounds++
	sim.roundErr = &InferenceError{Round: now, Err: err}
	sim.log(fmt.Sprintf("Round %d skipped: %v", now, err))
}

// scaler returns the data scaler, or the domain scaler when no data is loaded.
func (sim *Simulator) scaler() draws.Scaler {
	if sim.dataset != nil {
		return sim.dataset.Scaler
	}
	return sim.domain
}

func (sim *Simulator) selectBoard() ([]int, error) {
	if sim.dataset != nil {
		return sim.dataset.SampleBoard(sim.rng.ForSubsystem(SubsystemBoard))
	}
	return synthesizeBoard(sim.Config.Board, sim.rng.ForSubsystem(SubsystemSynthesis)), nil
}

// synthesizeBoard draws distinct numbers when the range allows it.
func synthesizeBoard(cfg BoardConfig, rng *rand.Rand) []int {
	span := cfg.NumberMax - cfg.NumberMin + 1
	board := make([]int, cfg.Size)
	if span >= cfg.Size {
		for i, v := range rng.Perm(span)[:cfg.Size] {
			board[i] = v + cfg.NumberMin
		}
		return board
	}
	for i := range board {
		board[i] = rng.Intn(span) + cfg.NumberMin
	}
	return board
}

// predict normalizes the board, runs the model once and maps the output
// back to board numbers.
func (sim *Simulator) predict(ctx context.Context, board []int) ([]int, error) {
	scaler := sim.scaler()
	normalized, err := scaler.Normalize([]draws.DrawRecord{draws.ToRecord(board)})
	if err != nil {
		return nil, fmt.Errorf("normalize board: %w", err)
	}
	features := draws.AddDerivedFeatures(normalized)[0]
	out, err := sim.predictor.Predict(ctx, features)
	if err != nil {
		return nil, err
	}
	if len(out) != scaler.Width() {
		return nil, fmt.Errorf("prediction has %d values, board has %d", len(out), scaler.Width())
	}
	raw, err := scaler.Denormalize([]draws.NormalizedRecord{out})
	if err != nil {
		return nil, fmt.Errorf("denormalize prediction: %w", err)
	}
	return draws.RoundRecord(raw[0]), nil
}
