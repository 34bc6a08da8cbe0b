// Tracks simulation-wide and per-job scheduling metrics such as:
// wait times, completion times, makespan and cluster utilization.

package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/swfsim/swfsim/sim/trace"
)

// Metrics accumulates per-job figures while the simulation runs.
// Only scalars are kept; the Job records themselves are dropped on completion.
type Metrics struct {
	WaitTimes       []int64 // wait of every admitted job, in admission order
	CompletionTimes []int64 // completion tick of every admitted job
	Bypassed        int     // admissions that started ahead of an earlier pending job
}

// NewMetrics creates an empty Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		WaitTimes:       make([]int64, 0),
		CompletionTimes: make([]int64, 0),
	}
}

func (m *Metrics) recordAdmission(wait, completion int64, bypassed bool) {
	m.WaitTimes = append(m.WaitTimes, wait)
	m.CompletionTimes = append(m.CompletionTimes, completion)
	if bypassed {
		m.Bypassed++
	}
}

// Admitted returns the number of jobs admitted so far.
func (m *Metrics) Admitted() int {
	return len(m.WaitTimes)
}

// WaitStats summarizes the wait-time distribution of a run, in ticks.
type WaitStats struct {
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Median int64   `json:"median"`
	Total  int64   `json:"total"`
	Mean   float64 `json:"mean"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// Report is the structured outcome of one (scheduler, cluster size) run.
// Wait and Utilization are nil when no job ran, so an empty trace is
// distinguishable from a run where every job started immediately.
type Report struct {
	SweepID             string              `json:"sweep_id,omitempty"`
	Scheduler           string              `json:"scheduler"`
	Nodes               int64               `json:"nodes"`
	Jobs                int                 `json:"jobs"`
	Makespan            int64               `json:"makespan"`
	TotalCompletionTime int64               `json:"total_completion_time"`
	Wait                *WaitStats          `json:"wait"`
	Utilization         *Utilization        `json:"utilization"`
	Bypassed            int                 `json:"bypassed"`
	Trace               *trace.TraceSummary `json:"trace,omitempty"`
	WallTime            time.Duration       `json:"wall_time_ns"`
}

// JSON returns the indented JSON encoding of the report.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Print writes a human-readable summary of the report.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "=== %s on %d nodes ===\n", r.Scheduler, r.Nodes)
	fmt.Fprintf(w, "Jobs scheduled       : %d\n", r.Jobs)
	fmt.Fprintf(w, "Makespan             : %d\n", r.Makespan)
	fmt.Fprintf(w, "Total completion time: %d\n", r.TotalCompletionTime)
	if r.Wait == nil {
		fmt.Fprintln(w, "Wait times           : no data")
	} else {
		fmt.Fprintf(w, "Wait min/median/max  : %d / %d / %d\n", r.Wait.Min, r.Wait.Median, r.Wait.Max)
		fmt.Fprintf(w, "Wait mean            : %.2f\n", r.Wait.Mean)
		fmt.Fprintf(w, "Wait p90/p99         : %.0f / %.0f\n", r.Wait.P90, r.Wait.P99)
		fmt.Fprintf(w, "Total wait           : %d\n", r.Wait.Total)
	}
	fmt.Fprintf(w, "Bypassed head of line: %d\n", r.Bypassed)
	if r.Utilization == nil {
		fmt.Fprintln(w, "Usage of the machine : no data")
	} else {
		u := r.Utilization
		fmt.Fprintln(w, "Usage of the machine:")
		fmt.Fprintf(w, "- %d node-seconds used\n", u.UsedNodeSeconds)
		fmt.Fprintf(w, "- from %d available\n", u.TotalNodeSeconds)
		fmt.Fprintf(w, "- Nodes spent %d seconds in idle, or %.2f%%.\n", u.IdleNodeSeconds, u.IdlePercent)
	}
	fmt.Fprintf(w, "Simulation took      : %s\n", r.WallTime)
}
