package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalGenerations int
	TotalLogLines    int
	BestScore        int
	BestGeneration   int
	MeanScore        float64
	Trend            int // last generation score minus first
	Improvements     int // generations whose score beat the previous one
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil {
		return summary
	}

	summary.TotalGenerations = len(st.Generations)
	summary.TotalLogLines = len(st.Logs)
	if len(st.Generations) == 0 {
		return summary
	}

	total := 0
	for i, g := range st.Generations {
		total += g.Score
		if i == 0 || g.Score > summary.BestScore {
			summary.BestScore = g.Score
			summary.BestGeneration = g.Generation
		}
		if i > 0 && g.Score > st.Generations[i-1].Score {
			summary.Improvements++
		}
	}
	summary.MeanScore = float64(total) / float64(len(st.Generations))
	summary.Trend = st.Generations[len(st.Generations)-1].Score - st.Generations[0].Score

	return summary
}
