package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAdmissions int `json:"total_admissions"`
	// BypassedCount counts admissions that started ahead of an earlier pending job.
	BypassedCount int `json:"bypassed_count"`
	// MaxQueueLen is the longest pending queue seen at an admission.
	MaxQueueLen int `json:"max_queue_len"`
	// MeanWait is the mean wait of admitted jobs, in ticks.
	MeanWait float64 `json:"mean_wait"`
	MaxWait  int64   `json:"max_wait"`
	// PeakNodes is the largest single-job node count admitted.
	PeakNodes int64 `json:"peak_nodes"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{}
	if st == nil || len(st.Admissions) == 0 {
		return summary
	}

	summary.TotalAdmissions = len(st.Admissions)
	var totalWait int64
	for _, a := range st.Admissions {
		if a.Bypassed() {
			summary.BypassedCount++
		}
		summary.MaxQueueLen = max(summary.MaxQueueLen, a.QueueLen)
		summary.MaxWait = max(summary.MaxWait, a.Wait)
		summary.PeakNodes = max(summary.PeakNodes, a.Nodes)
		totalWait += a.Wait
	}
	summary.MeanWait = float64(totalWait) / float64(len(st.Admissions))

	return summary
}
