// Defines the Job struct that models one workload item replayed by the simulator.
// Tracks its node requirement, requested and actual run time, and the scheduling outcome.

package sim

import (
	"errors"
	"fmt"
)

// ErrAlreadyScheduled is returned when Admit is called on a job that already started.
var ErrAlreadyScheduled = errors.New("job already scheduled")

// Job models a single batch job's lifecycle in the simulation.
// The descriptor fields are fixed when the job arrives; the scheduling fields
// are written exactly once, when the job leaves the pending queue.
type Job struct {
	ID    int64 // Unique identifier, also the tie-break key
	Nodes int64 // Number of interchangeable nodes the job occupies

	SubmitTime       int64 // Arrival time in ticks
	RequestedRunTime int64 // User estimate, used by policies for planning
	RunTime          int64 // Actual run time, used to release resources

	Scheduled    bool  // Set once the job is admitted to the cluster
	ScheduleTime int64 // Start time, only meaningful when Scheduled
	ExpectedEnd  int64 // ScheduleTime + RequestedRunTime, only meaningful when Scheduled
}

// NewJob creates a pending job.
func NewJob(id, nodes, submitTime, runTime, requestedRunTime int64) *Job {
	return &Job{
		ID:               id,
		Nodes:            nodes,
		SubmitTime:       submitTime,
		RunTime:          runTime,
		RequestedRunTime: requestedRunTime,
	}
}

// Admit transitions the job to running at the given clock.
func (j *Job) Admit(clock int64) error {
	if j.Scheduled {
		return fmt.Errorf("admit job %d at %d: %w", j.ID, clock, ErrAlreadyScheduled)
	}
	j.Scheduled = true
	j.ScheduleTime = clock
	j.ExpectedEnd = clock + j.RequestedRunTime
	return nil
}

// WaitTime returns how long the job waited before starting.
// Panics if the job has not been scheduled yet.
func (j *Job) WaitTime() int64 {
	if !j.Scheduled {
		panic(fmt.Sprintf("WaitTime: job %d is not scheduled", j.ID))
	}
	return j.ScheduleTime - j.SubmitTime
}

// WaitTimeFrom returns the wait the job would have if it started at clock.
func (j *Job) WaitTimeFrom(clock int64) int64 {
	return clock - j.SubmitTime
}

// Equal reports whether both jobs have the same identity. Only IDs are compared.
func (j *Job) Equal(other *Job) bool {
	return j.ID == other.ID
}

// Less orders jobs by ID.
func (j *Job) Less(other *Job) bool {
	return j.ID < other.ID
}

func (j *Job) String() string {
	return fmt.Sprintf("Job: (ID: %d, Nodes: %d, Submit: %d, Requested: %d, Run: %d, Scheduled: %v)",
		j.ID, j.Nodes, j.SubmitTime, j.RequestedRunTime, j.RunTime, j.Scheduled)
}
