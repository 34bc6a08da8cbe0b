package sim

import "github.com/sirupsen/logrus"

// EventKind tags the two event variants of the simulation.
type EventKind string

const (
	EventKindCompletion EventKind = "Completion"
	EventKindArrival    EventKind = "Arrival"
)

// EventKindPriority defines ordering for simultaneous events.
// Lower values are processed first: releases are observed before
// same-instant arrivals so freed nodes can be reused immediately.
var EventKindPriority = map[EventKind]int{
	EventKindCompletion: 0,
	EventKindArrival:    1,
}

// Event defines the interface for all simulation events.
// Each event must have a Timestamp (in ticks) and an Execute method
// that advances simulation state when invoked.
type Event interface {
	Timestamp() int64
	Kind() EventKind
	JobID() int64
	Execute(*Simulator)
}

// ArrivalEvent represents the submission of a job to the pending queue.
type ArrivalEvent struct {
	time int64
	Job  *Job
}

// NewArrivalEvent creates the arrival of job at its submit time.
func NewArrivalEvent(job *Job) *ArrivalEvent {
	return &ArrivalEvent{time: job.SubmitTime, Job: job}
}

func (e *ArrivalEvent) Timestamp() int64 { return e.time }
func (e *ArrivalEvent) Kind() EventKind  { return EventKindArrival }
func (e *ArrivalEvent) JobID() int64     { return e.Job.ID }

// Execute enqueues the arriving job.
func (e *ArrivalEvent) Execute(sim *Simulator) {
	sim.enqueue(e.Job)
	logrus.Debugf("<< Arrival: job %d at %d ticks, %d pending", e.Job.ID, e.time, len(sim.Pending))
}

// CompletionEvent represents a running job releasing its nodes.
type CompletionEvent struct {
	time  int64
	jobID int64
}

// NewCompletionEvent creates the completion of jobID at time.
func NewCompletionEvent(time, jobID int64) *CompletionEvent {
	return &CompletionEvent{time: time, jobID: jobID}
}

func (e *CompletionEvent) Timestamp() int64 { return e.time }
func (e *CompletionEvent) Kind() EventKind  { return EventKindCompletion }
func (e *CompletionEvent) JobID() int64     { return e.jobID }

// Execute releases the job's nodes.
func (e *CompletionEvent) Execute(sim *Simulator) {
	sim.Cluster.Release(e.jobID)
	logrus.Debugf("<< Completion: job %d at %d ticks, %d nodes available", e.jobID, e.time, sim.Cluster.AvailableNodes)
}
