// sim/simulator.go
package sim

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/swfsim/swfsim/sim/trace"
)

var (
	// ErrAlreadyRun is returned when a finished simulator is stepped or run again.
	ErrAlreadyRun = errors.New("simulation already finished")
	// ErrAdmissionRefused means a scheduler picked a job the cluster could not admit.
	ErrAdmissionRefused = errors.New("admission refused")
	// ErrPendingAtTermination means jobs were left pending when the event queue ran dry.
	ErrPendingAtTermination = errors.New("jobs pending at termination")
	// ErrInvariant reports a broken accounting or ordering invariant.
	ErrInvariant = errors.New("simulation invariant violated")
)

// progressEvery is the number of admissions between two progress log lines.
const progressEvery = 1000

// SimulatorState is the lifecycle phase of a Simulator.
type SimulatorState string

const (
	StateLoading  SimulatorState = "loading"
	StateRunning  SimulatorState = "running"
	StateFinished SimulatorState = "finished"
)

// SimulatorConfig parameterizes one run.
type SimulatorConfig struct {
	Nodes     int64             // cluster capacity, fixed for the run
	Scheduler string            // see NewScheduler
	Trace     trace.TraceConfig // decision tracing, off by default
	// CheckInvariants verifies node accounting after every event.
	CheckInvariants bool
}

// Validate checks the configuration values.
func (c SimulatorConfig) Validate() error {
	if c.Nodes <= 0 {
		return fmt.Errorf("cluster must have at least one node, got %d", c.Nodes)
	}
	if !IsValidScheduler(c.Scheduler) {
		return fmt.Errorf("unknown scheduler %q", c.Scheduler)
	}
	if !trace.IsValidTraceLevel(string(c.Trace.Level)) {
		return fmt.Errorf("unknown trace level %q", c.Trace.Level)
	}
	return nil
}

// Simulator is the core object that holds simulation time, cluster state, and the event loop.
// A Simulator runs once; build a fresh one for every configuration.
type Simulator struct {
	Clock int64
	// EventQueue holds pending arrival and completion events
	EventQueue *EventQueue
	// Pending holds arrived jobs not yet started, in arrival order
	Pending   []*Job
	Cluster   *Cluster
	Scheduler Scheduler
	Metrics   *Metrics
	Trace     *trace.SimulationTrace // nil unless tracing is enabled
	State     SimulatorState

	checkInvariants bool
	startedAt       time.Time
	progress        rate.Sometimes
}

// NewSimulator builds a simulator in the loading state and turns every job
// into an arrival event. Jobs must be unscheduled, have unique IDs, a positive
// node count no larger than the cluster, and non-negative submit and run times.
func NewSimulator(cfg SimulatorConfig, jobs []*Job) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulator{
		Clock:           0,
		EventQueue:      NewEventQueue(),
		Pending:         make([]*Job, 0),
		Cluster:         NewCluster(cfg.Nodes),
		Scheduler:       NewScheduler(cfg.Scheduler),
		Metrics:         NewMetrics(),
		State:           StateLoading,
		checkInvariants: cfg.CheckInvariants,
		progress:        rate.Sometimes{Every: progressEvery},
	}
	if cfg.Trace.Enabled() {
		s.Trace = trace.NewSimulationTrace(cfg.Trace)
	}
	logrus.Debugf("Created a new simulator with scheduler %s and %d nodes", s.Scheduler.Name(), cfg.Nodes)

	seen := make(map[int64]bool, len(jobs))
	for _, job := range jobs {
		switch {
		case seen[job.ID]:
			return nil, fmt.Errorf("duplicate job ID %d", job.ID)
		case job.Scheduled:
			return nil, fmt.Errorf("job %d: %w", job.ID, ErrAlreadyScheduled)
		case job.Nodes <= 0:
			return nil, fmt.Errorf("job %d requires %d nodes, must be positive", job.ID, job.Nodes)
		case job.Nodes > cfg.Nodes:
			return nil, fmt.Errorf("job %d requires %d nodes but the cluster has %d", job.ID, job.Nodes, cfg.Nodes)
		case job.SubmitTime < 0:
			return nil, fmt.Errorf("job %d has negative submit time %d", job.ID, job.SubmitTime)
		case job.RunTime < 0:
			return nil, fmt.Errorf("job %d has negative run time %d", job.ID, job.RunTime)
		}
		seen[job.ID] = true
		s.EventQueue.Schedule(NewArrivalEvent(job))
	}
	logrus.Infof("%d jobs will be scheduled on %d nodes. Ready for simulation", len(jobs), cfg.Nodes)
	return s, nil
}

// Done reports whether no event and no pending job is left.
func (sim *Simulator) Done() bool {
	return sim.EventQueue.Len() == 0 && len(sim.Pending) == 0
}

// Step runs one drain phase, letting the scheduler start jobs at the current
// clock, followed by one advance phase, executing the next event.
// It returns false once nothing is left to simulate.
func (sim *Simulator) Step() (bool, error) {
	switch sim.State {
	case StateFinished:
		return false, ErrAlreadyRun
	case StateLoading:
		sim.State = StateRunning
		sim.startedAt = time.Now()
		logrus.Infof("Starting the simulation with scheduler %s", sim.Scheduler.Name())
	}
	if sim.Done() {
		return false, nil
	}

	if err := sim.drain(); err != nil {
		return false, err
	}
	if err := sim.checkCapacity("scheduling"); err != nil {
		return false, err
	}

	ev := sim.EventQueue.PopNext()
	if ev == nil {
		// Only reachable if nothing running can ever free nodes for the pending jobs.
		return false, fmt.Errorf("%w: %d jobs pending with no event left at tick %d",
			ErrPendingAtTermination, len(sim.Pending), sim.Clock)
	}
	if ev.Timestamp() < sim.Clock {
		return false, fmt.Errorf("%w: clock moved back from %d to %d", ErrInvariant, sim.Clock, ev.Timestamp())
	}
	sim.Clock = ev.Timestamp()
	logrus.Tracef("[tick %07d] Executing %T", sim.Clock, ev)
	ev.Execute(sim)

	if err := sim.checkCapacity(string(ev.Kind())); err != nil {
		return false, err
	}
	return !sim.Done(), nil
}

// checkCapacity verifies node accounting when invariant checks are enabled.
func (sim *Simulator) checkCapacity(phase string) error {
	if !sim.checkInvariants {
		return nil
	}
	if err := sim.Cluster.CheckCapacity(); err != nil {
		return fmt.Errorf("%w after %s at tick %d: %v", ErrInvariant, phase, sim.Clock, err)
	}
	return nil
}

// Run drives the simulation to completion and returns its report.
func (sim *Simulator) Run() (*Report, error) {
	if sim.State != StateLoading {
		return nil, ErrAlreadyRun
	}
	for {
		more, err := sim.Step()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return sim.finish()
}

// drain starts jobs until the scheduler finds nothing that fits.
func (sim *Simulator) drain() error {
	for len(sim.Pending) > 0 {
		idx, ok := sim.Scheduler.Schedule(sim.Clock, sim.Pending, sim.Cluster)
		if !ok {
			return nil
		}
		if idx < 0 || idx >= len(sim.Pending) {
			return fmt.Errorf("%w: %s picked index %d of %d pending jobs",
				ErrInvariant, sim.Scheduler.Name(), idx, len(sim.Pending))
		}

		job := sim.Pending[idx]
		queueLen := len(sim.Pending)
		wait := job.WaitTimeFrom(sim.Clock)
		end := sim.Clock + job.RunTime

		if !sim.Cluster.Admit(job, sim.Clock) {
			return fmt.Errorf("%w: %s picked job %d needing %d nodes with %d available at tick %d",
				ErrAdmissionRefused, sim.Scheduler.Name(), job.ID, job.Nodes, sim.Cluster.AvailableNodes, sim.Clock)
		}
		sim.Pending = slices.Delete(sim.Pending, idx, idx+1)
		sim.EventQueue.Schedule(NewCompletionEvent(end, job.ID))
		sim.Metrics.recordAdmission(wait, end, idx > 0)

		if sim.Trace != nil {
			sim.Trace.RecordAdmission(trace.AdmissionRecord{
				JobID:      job.ID,
				Clock:      sim.Clock,
				QueueIndex: idx,
				QueueLen:   queueLen,
				Nodes:      job.Nodes,
				Wait:       wait,
			})
		}
		sim.progress.Do(func() {
			logrus.Infof("[tick %07d] Scheduled the %dth job", sim.Clock, sim.Metrics.Admitted())
		})
	}
	return nil
}

// enqueue adds a newly arrived job to the pending queue.
func (sim *Simulator) enqueue(job *Job) {
	sim.Pending = append(sim.Pending, job)
}

// finish checks the termination postcondition and aggregates the report.
func (sim *Simulator) finish() (*Report, error) {
	if len(sim.Pending) != 0 {
		return nil, fmt.Errorf("%w: %d jobs", ErrPendingAtTermination, len(sim.Pending))
	}
	sim.State = StateFinished

	var totalCompletion int64
	for _, c := range sim.Metrics.CompletionTimes {
		totalCompletion += c
	}
	report := &Report{
		Scheduler:           sim.Scheduler.Name(),
		Nodes:               sim.Cluster.TotalNodes,
		Jobs:                sim.Metrics.Admitted(),
		Makespan:            sim.Clock,
		TotalCompletionTime: totalCompletion,
		Wait:                NewWaitStats(sim.Metrics.WaitTimes),
		Utilization:         sim.Cluster.Utilization(sim.Clock),
		Bypassed:            sim.Metrics.Bypassed,
		WallTime:            time.Since(sim.startedAt),
	}
	if sim.Trace != nil {
		report.Trace = trace.Summarize(sim.Trace)
	}
	logrus.Infof("[tick %07d] Simulation ended, %d jobs scheduled", sim.Clock, report.Jobs)
	return report, nil
}
