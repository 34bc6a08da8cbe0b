package workload

import "github.com/swfsim/swfsim/sim"

// TraceInfo summarizes an SWF trace for inspection.
type TraceInfo struct {
	Header         map[string]string `yaml:"header,omitempty"`
	Records        int               `yaml:"records"`
	UnknownRecords int               `yaml:"unknown_records"` // no usable processor count or run time
	FirstSubmit    int64             `yaml:"first_submit"`
	LastSubmit     int64             `yaml:"last_submit"`
	MaxProcs       int64             `yaml:"max_procs"`
	MaxRunTime     int64             `yaml:"max_run_time"`
	MeanRunTime    float64           `yaml:"mean_run_time"`
	P90RunTime     float64           `yaml:"p90_run_time"`
	// Overestimate is the mean of requested / actual run time over records where both are known.
	Overestimate float64 `yaml:"overestimate"`
}

// Describe computes a TraceInfo for t.
func Describe(t *Trace) *TraceInfo {
	info := &TraceInfo{Header: t.Header, Records: len(t.Records)}
	runTimes := make([]int64, 0, len(t.Records))
	ratios := make([]float64, 0, len(t.Records))
	for i := range t.Records {
		rec := &t.Records[i]
		procs := rec.RequestedProcs
		if procs <= 0 {
			procs = rec.AllocatedProcs
		}
		if procs <= 0 || rec.RunTime < 0 {
			info.UnknownRecords++
			continue
		}
		if len(runTimes) == 0 {
			info.FirstSubmit = rec.SubmitTime
		}
		info.FirstSubmit = min(info.FirstSubmit, rec.SubmitTime)
		info.LastSubmit = max(info.LastSubmit, rec.SubmitTime)
		info.MaxProcs = max(info.MaxProcs, procs)
		info.MaxRunTime = max(info.MaxRunTime, rec.RunTime)
		runTimes = append(runTimes, rec.RunTime)
		if rec.RequestedTime > 0 && rec.RunTime > 0 {
			ratios = append(ratios, float64(rec.RequestedTime)/float64(rec.RunTime))
		}
	}
	info.MeanRunTime = sim.CalculateMean(runTimes)
	info.P90RunTime = sim.CalculatePercentile(runTimes, 90)
	info.Overestimate = sim.CalculateMean(ratios)
	return info
}
