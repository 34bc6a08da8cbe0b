// Package trace provides decision-trace recording for scheduling policy analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AdmissionRecord captures a single job admission decided by a scheduler.
type AdmissionRecord struct {
	JobID      int64
	Clock      int64
	QueueIndex int   // position of the job in the pending queue when picked
	QueueLen   int   // pending queue length before the job was removed
	Nodes      int64 // nodes the job occupies
	Wait       int64 // ticks between submission and start
}

// Bypassed reports whether the job started ahead of an earlier pending job.
func (r AdmissionRecord) Bypassed() bool {
	return r.QueueIndex > 0
}
