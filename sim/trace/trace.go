package trace

// TraceLevel controls how much per-round detail is retained.
type TraceLevel string

const (
	// TraceLevelNone keeps only the log lines and generation records.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelGenerations is an alias of none kept for config readability.
	TraceLevelGenerations TraceLevel = "generations"
	// TraceLevelRounds additionally keeps one RoundRecord per scored round.
	TraceLevelRounds TraceLevel = "rounds"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:        true,
	TraceLevelGenerations: true,
	TraceLevelRounds:      true,
	"":                    true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects the log sink and generation history of a run.
// Logs grow without bound within a run and are cleared only by Reset.
type SimulationTrace struct {
	Config      TraceConfig
	Logs        []string
	Generations []GenerationRecord
	Rounds      []RoundRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:      config,
		Logs:        make([]string, 0),
		Generations: make([]GenerationRecord, 0),
		Rounds:      make([]RoundRecord, 0),
	}
}

// RecordLog appends a log line.
func (st *SimulationTrace) RecordLog(line string) {
	st.Logs = append(st.Logs, line)
}

// RecordGeneration appends a generation record.
func (st *SimulationTrace) RecordGeneration(record GenerationRecord) {
	st.Generations = append(st.Generations, record)
}

// RecordRound appends a round record when the trace level keeps rounds.
func (st *SimulationTrace) RecordRound(record RoundRecord) {
	if st.Config.Level != TraceLevelRounds {
		return
	}
	st.Rounds = append(st.Rounds, record)
}

// LogsSince returns the log lines from index since onward.
// Out-of-range indices yield an empty slice.
func (st *SimulationTrace) LogsSince(since int) []string {
	if since < 0 {
		since = 0
	}
	if since >= len(st.Logs) {
		return []string{}
	}
	out := make([]string, len(st.Logs)-since)
	copy(out, st.Logs[since:])
	return out
}

// Reset clears every record while keeping the configuration.
func (st *SimulationTrace) Reset() {
	st.Logs = make([]string, 0)
	st.Generations = make([]GenerationRecord, 0)
	st.Rounds = make([]RoundRecord, 0)
}
