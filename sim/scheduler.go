package sim

import (
	"fmt"
	"sort"
)

// Scheduler picks which pending job, if any, may start now.
// Schedule returns the position of one job in pending whose node requirement
// fits the cluster's available nodes, or false when nothing can start.
// Implementations never modify pending or cluster and must be deterministic.
// pending is in arrival order but implementations must not rely on any sorting
// beyond that. Calling Schedule with an empty pending slice panics.
type Scheduler interface {
	Name() string
	Schedule(clock int64, pending []*Job, cluster *Cluster) (int, bool)
}

func mustHaveHead(name string, pending []*Job) *Job {
	if len(pending) == 0 {
		panic(fmt.Sprintf("%s: Schedule called with an empty pending queue", name))
	}
	return pending[0]
}

// FCFSScheduler only ever starts the job at the head of the queue.
// A head job that does not fit blocks every job behind it.
type FCFSScheduler struct{}

func (s *FCFSScheduler) Name() string { return "FCFS" }

func (s *FCFSScheduler) Schedule(_ int64, pending []*Job, cluster *Cluster) (int, bool) {
	head := mustHaveHead(s.Name(), pending)
	if head.Nodes <= cluster.AvailableNodes {
		return 0, true
	}
	return 0, false
}

// FirstFitScheduler starts the earliest pending job that fits.
type FirstFitScheduler struct{}

func (s *FirstFitScheduler) Name() string { return "FF" }

func (s *FirstFitScheduler) Schedule(_ int64, pending []*Job, cluster *Cluster) (int, bool) {
	mustHaveHead(s.Name(), pending)
	for idx, job := range pending {
		if job.Nodes <= cluster.AvailableNodes {
			return idx, true
		}
	}
	return 0, false
}

// SJFScheduler starts the fitting job with the smallest requested run time,
// then by ID (ascending) for determinism.
// Warning: SJF can starve long jobs under sustained load.
type SJFScheduler struct{}

func (s *SJFScheduler) Name() string { return "SJF" }

func (s *SJFScheduler) Schedule(_ int64, pending []*Job, cluster *Cluster) (int, bool) {
	mustHaveHead(s.Name(), pending)
	best := -1
	for idx, job := range pending {
		if job.Nodes > cluster.AvailableNodes {
			continue
		}
		if best < 0 {
			best = idx
			continue
		}
		cur := pending[best]
		if job.RequestedRunTime < cur.RequestedRunTime ||
			(job.RequestedRunTime == cur.RequestedRunTime && job.Less(cur)) {
			best = idx
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}

// EasyBackfillScheduler is FCFS with EASY backfilling.
// When the head job does not fit, a later job may jump ahead if it fits the
// nodes available now and its requested run time is strictly shorter than the
// head job's reservation window.
type EasyBackfillScheduler struct{}

func (s *EasyBackfillScheduler) Name() string { return "FCFSEasy" }

func (s *EasyBackfillScheduler) Schedule(clock int64, pending []*Job, cluster *Cluster) (int, bool) {
	head := mustHaveHead(s.Name(), pending)
	if head.Nodes <= cluster.AvailableNodes {
		return 0, true
	}

	window := ReservationWindow(clock, head, cluster)
	for idx := 1; idx < len(pending); idx++ {
		job := pending[idx]
		if job.RequestedRunTime < window && job.Nodes <= cluster.AvailableNodes {
			return idx, true
		}
	}
	return 0, false
}

// ReservationWindow returns the number of ticks until enough nodes are
// projected to be free for head. Running jobs are released in order of
// requested run time (not remaining time), ties by ID; the window ends at the
// expected end of the job whose release completes the required capacity.
// Returns 0 when no running job exists or the running jobs cannot free enough
// nodes, and never returns a negative window for jobs that overran their request.
func ReservationWindow(clock int64, head *Job, cluster *Cluster) int64 {
	running := cluster.RunningJobs()
	sort.SliceStable(running, func(i, j int) bool {
		return running[i].RequestedRunTime < running[j].RequestedRunTime
	})

	available := cluster.AvailableNodes
	for _, job := range running {
		available += job.Nodes
		if available >= head.Nodes {
			return max(job.ExpectedEnd-clock, 0)
		}
	}
	return 0
}

// ValidSchedulers is the set of recognized scheduler names.
var ValidSchedulers = map[string]bool{"": true, "fcfs": true, "ff": true, "sjf": true, "easy": true}

// IsValidScheduler returns true if name is a recognized scheduler.
func IsValidScheduler(name string) bool {
	return ValidSchedulers[name]
}

// SchedulerNames lists the scheduler names in their canonical order.
func SchedulerNames() []string {
	return []string{"fcfs", "ff", "sjf", "easy"}
}

// NewScheduler creates a Scheduler by name.
// Valid names: "fcfs" (default), "ff", "sjf", "easy".
// Empty string defaults to FCFSScheduler (for CLI flag default compatibility).
// Panics on unrecognized names.
func NewScheduler(name string) Scheduler {
	if !IsValidScheduler(name) {
		panic(fmt.Sprintf("unknown scheduler %q", name))
	}
	switch name {
	case "", "fcfs":
		return &FCFSScheduler{}
	case "ff":
		return &FirstFitScheduler{}
	case "sjf":
		return &SJFScheduler{}
	case "easy":
		return &EasyBackfillScheduler{}
	default:
		panic(fmt.Sprintf("unhandled scheduler %q", name))
	}
}
