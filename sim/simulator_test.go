package sim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swfsim/swfsim/sim/trace"
)

// newTestSimulator builds a simulator over fresh copies of jobs.
func newTestSimulator(t *testing.T, nodes int64, scheduler string, jobs ...*Job) *Simulator {
	t.Helper()
	copies := make([]*Job, len(jobs))
	for i, j := range jobs {
		copies[i] = NewJob(j.ID, j.Nodes, j.SubmitTime, j.RunTime, j.RequestedRunTime)
	}
	s, err := NewSimulator(SimulatorConfig{Nodes: nodes, Scheduler: scheduler}, copies)
	require.NoError(t, err)
	return s
}

func mustRun(t *testing.T, s *Simulator) *Report {
	t.Helper()
	report, err := s.Run()
	require.NoError(t, err)
	return report
}

// randomJobs draws n jobs for a cluster of the given size from a seeded stream.
func randomJobs(seed int64, n int, nodes int64) []*Job {
	rng := NewPartitionedRNG(NewSimulationKey(seed)).ForSubsystem(SubsystemRuntimes)
	jobs := make([]*Job, n)
	clock := int64(0)
	for i := range jobs {
		clock += rng.Int64N(20)
		run := rng.Int64N(100)
		jobs[i] = NewJob(int64(i+1), 1+rng.Int64N(nodes), clock, run, run+rng.Int64N(50))
	}
	return jobs
}

func TestSimulator_SingleBlockingJob_AllPolicies(t *testing.T) {
	// GIVEN 4 nodes, job 1 takes the whole cluster for 10s and job 2 arrives at t=1
	jobs := []*Job{NewJob(1, 4, 0, 10, 10), NewJob(2, 2, 1, 5, 5)}

	for _, name := range SchedulerNames() {
		t.Run(name, func(t *testing.T) {
			report := mustRun(t, newTestSimulator(t, 4, name, jobs...))

			// THEN job 2 waits until t=10 under every policy
			assert.Equal(t, 2, report.Jobs)
			assert.Equal(t, int64(15), report.Makespan)
			require.NotNil(t, report.Wait)
			assert.Equal(t, int64(0), report.Wait.Min)
			assert.Equal(t, int64(9), report.Wait.Max)
			assert.Equal(t, int64(9), report.Wait.Total)
			assert.InDelta(t, 4.5, report.Wait.Mean, 1e-9)
			assert.Equal(t, int64(25), report.TotalCompletionTime)
			assert.Equal(t, 0, report.Bypassed)

			// AND 50 of 60 node-seconds were used
			require.NotNil(t, report.Utilization)
			assert.Equal(t, int64(50), report.Utilization.UsedNodeSeconds)
			assert.Equal(t, int64(60), report.Utilization.TotalNodeSeconds)
			assert.Equal(t, int64(10), report.Utilization.IdleNodeSeconds)
			assert.InDelta(t, 16.67, report.Utilization.IdlePercent, 0.01)
		})
	}
}

func TestSimulator_Backfill_NeedsCurrentlyFreeNodes(t *testing.T) {
	// Job 2 is short enough to backfill but no node frees up before job 1 ends.
	s := newTestSimulator(t, 4, "easy", NewJob(1, 4, 0, 10, 10), NewJob(2, 2, 1, 3, 3))

	report := mustRun(t, s)

	assert.Equal(t, int64(13), report.Makespan)
	assert.Equal(t, int64(9), report.Wait.Max)
}

func TestSimulator_HeadOfLineBlocking_FCFSvsFF(t *testing.T) {
	// GIVEN job 2 needs the whole cluster while job 1 holds half of it,
	// and job 3 could run in the remaining half
	jobs := []*Job{
		NewJob(1, 2, 0, 10, 10),
		NewJob(2, 4, 1, 5, 5),
		NewJob(3, 2, 2, 3, 3),
	}

	tests := []struct {
		scheduler string
		makespan  int64
		waitTotal int64
		bypassed  int
	}{
		{"fcfs", 18, 22, 0}, // job 3 waits behind job 2 until t=15
		{"ff", 15, 9, 1},    // job 3 runs at t=2
		{"sjf", 15, 9, 1},
		{"easy", 15, 9, 1}, // requested 3 < window 8
	}
	for _, tc := range tests {
		t.Run(tc.scheduler, func(t *testing.T) {
			report := mustRun(t, newTestSimulator(t, 4, tc.scheduler, jobs...))

			assert.Equal(t, tc.makespan, report.Makespan)
			assert.Equal(t, tc.waitTotal, report.Wait.Total)
			assert.Equal(t, tc.bypassed, report.Bypassed)
		})
	}
}

func TestSimulator_EasyBackfill_RefusesJobLongerThanWindow(t *testing.T) {
	// Same shape as above but job 3 requests 20s, longer than the 8s window.
	s := newTestSimulator(t, 4, "easy",
		NewJob(1, 2, 0, 10, 10),
		NewJob(2, 4, 1, 5, 5),
		NewJob(3, 2, 2, 3, 20),
	)

	report := mustRun(t, s)

	assert.Equal(t, 0, report.Bypassed)
	assert.Equal(t, int64(18), report.Makespan)
}

func TestSimulator_EmptyTrace_ReportsNoData(t *testing.T) {
	s, err := NewSimulator(SimulatorConfig{Nodes: 8, Scheduler: "fcfs"}, nil)
	require.NoError(t, err)

	report := mustRun(t, s)

	assert.Equal(t, 0, report.Jobs)
	assert.Equal(t, int64(0), report.Makespan)
	assert.Nil(t, report.Wait)
	assert.Nil(t, report.Utilization)
}

func TestSimulator_ZeroRunTimeJob(t *testing.T) {
	report := mustRun(t, newTestSimulator(t, 4, "fcfs", NewJob(1, 2, 0, 0, 0)))

	assert.Equal(t, 1, report.Jobs)
	assert.Equal(t, int64(0), report.Makespan)
	require.NotNil(t, report.Wait)
	assert.Nil(t, report.Utilization, "zero makespan leaves utilization undefined")
}

func TestSimulator_SimultaneousCompletionAndArrival_ReusesNodes(t *testing.T) {
	// Job 2 arrives exactly when job 1 completes and must start without waiting.
	report := mustRun(t, newTestSimulator(t, 2, "fcfs", NewJob(1, 2, 0, 10, 10), NewJob(2, 2, 10, 5, 5)))

	assert.Equal(t, int64(0), report.Wait.Max)
	assert.Equal(t, int64(15), report.Makespan)
}

func TestSimulator_Run_Twice_ReturnsErrAlreadyRun(t *testing.T) {
	s := newTestSimulator(t, 4, "fcfs", NewJob(1, 1, 0, 1, 1))
	mustRun(t, s)

	_, err := s.Run()
	assert.ErrorIs(t, err, ErrAlreadyRun)
	_, err = s.Step()
	assert.ErrorIs(t, err, ErrAlreadyRun)
}

func TestNewSimulator_RejectsInvalidInput(t *testing.T) {
	scheduled := NewJob(5, 1, 0, 1, 1)
	require.NoError(t, scheduled.Admit(0))

	tests := []struct {
		name string
		cfg  SimulatorConfig
		jobs []*Job
		is   error
	}{
		{name: "zero nodes", cfg: SimulatorConfig{Nodes: 0}},
		{name: "unknown scheduler", cfg: SimulatorConfig{Nodes: 4, Scheduler: "lottery"}},
		{name: "unknown trace level", cfg: SimulatorConfig{Nodes: 4, Trace: trace.TraceConfig{Level: "verbose"}}},
		{name: "duplicate id", cfg: SimulatorConfig{Nodes: 4}, jobs: []*Job{NewJob(1, 1, 0, 1, 1), NewJob(1, 1, 2, 1, 1)}},
		{name: "oversize job", cfg: SimulatorConfig{Nodes: 4}, jobs: []*Job{NewJob(1, 5, 0, 1, 1)}},
		{name: "zero nodes job", cfg: SimulatorConfig{Nodes: 4}, jobs: []*Job{NewJob(1, 0, 0, 1, 1)}},
		{name: "negative submit time", cfg: SimulatorConfig{Nodes: 4}, jobs: []*Job{NewJob(1, 1, -5, 3, 3)}},
		{name: "negative run time", cfg: SimulatorConfig{Nodes: 4}, jobs: []*Job{NewJob(1, 1, 0, -1, 1)}},
		{name: "already scheduled", cfg: SimulatorConfig{Nodes: 4}, jobs: []*Job{scheduled}, is: ErrAlreadyScheduled},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSimulator(tc.cfg, tc.jobs)
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestSimulator_EveryJobAdmittedOnce_WithCapacityInvariant(t *testing.T) {
	for _, name := range SchedulerNames() {
		t.Run(name, func(t *testing.T) {
			// GIVEN a random trace stepped one event at a time
			jobs := randomJobs(42, 200, 16)
			s, err := NewSimulator(SimulatorConfig{Nodes: 16, Scheduler: name}, jobs)
			require.NoError(t, err)

			// WHEN stepping to the end
			prevClock := int64(0)
			for {
				more, err := s.Step()
				require.NoError(t, err)
				// THEN the clock never moves back and node accounting always balances
				require.GreaterOrEqual(t, s.Clock, prevClock)
				require.NoError(t, s.Cluster.CheckCapacity())
				prevClock = s.Clock
				if !more {
					break
				}
			}
			report, err := s.finish()
			require.NoError(t, err)

			// AND every job started exactly once, never before its submission
			assert.Equal(t, len(jobs), report.Jobs)
			for _, j := range jobs {
				assert.True(t, j.Scheduled, "job %d", j.ID)
				assert.GreaterOrEqual(t, j.ScheduleTime, j.SubmitTime, "job %d", j.ID)
			}
			assert.Empty(t, s.Cluster.Running)
			assert.Equal(t, s.Cluster.TotalNodes, s.Cluster.AvailableNodes)
		})
	}
}

func TestSimulator_FCFS_StartsInArrivalOrder(t *testing.T) {
	jobs := randomJobs(7, 100, 8)
	s, err := NewSimulator(SimulatorConfig{Nodes: 8, Scheduler: "fcfs"}, jobs)
	require.NoError(t, err)
	report := mustRun(t, s)

	assert.Equal(t, 0, report.Bypassed)
	for i := 1; i < len(jobs); i++ {
		assert.LessOrEqual(t, jobs[i-1].ScheduleTime, jobs[i].ScheduleTime)
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	for _, name := range SchedulerNames() {
		t.Run(name, func(t *testing.T) {
			a := mustRun(t, newTestSimulator(t, 12, name, randomJobs(3, 150, 12)...))
			b := mustRun(t, newTestSimulator(t, 12, name, randomJobs(3, 150, 12)...))

			a.WallTime, b.WallTime = 0, 0
			assert.Equal(t, a, b)
		})
	}
}

func TestSimulator_UnsortedInput_MatchesSorted(t *testing.T) {
	jobs := randomJobs(11, 60, 6)
	reversed := make([]*Job, len(jobs))
	for i, j := range jobs {
		reversed[len(jobs)-1-i] = j
	}

	a := mustRun(t, newTestSimulator(t, 6, "easy", jobs...))
	b := mustRun(t, newTestSimulator(t, 6, "easy", reversed...))

	a.WallTime, b.WallTime = 0, 0
	assert.Equal(t, a, b)
}

func TestSimulator_TraceSummary(t *testing.T) {
	jobs := randomJobs(5, 80, 8)
	s, err := NewSimulator(SimulatorConfig{
		Nodes:           8,
		Scheduler:       "ff",
		Trace:           trace.TraceConfig{Level: trace.TraceLevelDecisions},
		CheckInvariants: true,
	}, jobs)
	require.NoError(t, err)

	report := mustRun(t, s)

	require.NotNil(t, report.Trace)
	assert.Equal(t, report.Jobs, report.Trace.TotalAdmissions)
	assert.Equal(t, report.Bypassed, report.Trace.BypassedCount)
	assert.LessOrEqual(t, report.Trace.PeakNodes, int64(8))
	assert.Len(t, s.Trace.Admissions, len(jobs))
}

func TestSimulator_TracingOff_NoSummary(t *testing.T) {
	report := mustRun(t, newTestSimulator(t, 4, "fcfs", NewJob(1, 1, 0, 1, 1)))
	assert.Nil(t, report.Trace)
}

// pickScheduler always returns a fixed answer, for exercising engine checks.
type pickScheduler struct {
	idx int
	ok  bool
}

func (p *pickScheduler) Name() string { return "pick" }
func (p *pickScheduler) Schedule(int64, []*Job, *Cluster) (int, bool) {
	return p.idx, p.ok
}

func TestSimulator_SchedulerFailures(t *testing.T) {
	tests := []struct {
		name  string
		sched Scheduler
		is    error
	}{
		{"index out of range", &pickScheduler{idx: 3, ok: true}, ErrInvariant},
		{"never schedules", &pickScheduler{ok: false}, ErrPendingAtTermination},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestSimulator(t, 4, "fcfs", NewJob(1, 1, 0, 1, 1))
			s.Scheduler = tc.sched

			_, err := s.Run()
			assert.ErrorIs(t, err, tc.is)
		})
	}
}

func TestSimulator_AdmissionRefused(t *testing.T) {
	// A policy that picks a job larger than the free nodes aborts the run.
	s := newTestSimulator(t, 4, "fcfs", NewJob(1, 3, 0, 10, 10), NewJob(2, 3, 0, 10, 10))
	s.Scheduler = &pickScheduler{idx: 0, ok: true}

	_, err := s.Run()
	assert.True(t, errors.Is(err, ErrAdmissionRefused))
}

func TestSimulator_CheckInvariants_AfterScheduling(t *testing.T) {
	// GIVEN a checked simulator whose first arrival has been processed
	s, err := NewSimulator(SimulatorConfig{Nodes: 4, Scheduler: "fcfs", CheckInvariants: true},
		[]*Job{NewJob(1, 2, 0, 10, 10), NewJob(2, 1, 5, 10, 10)})
	require.NoError(t, err)
	more, err := s.Step()
	require.NoError(t, err)
	require.True(t, more)

	// WHEN the node accounting is corrupted before the next admission
	s.Cluster.AvailableNodes = 5
	_, err = s.Step()

	// THEN the check fails right after scheduling, before any event executes
	require.ErrorIs(t, err, ErrInvariant)
	assert.Contains(t, err.Error(), "after scheduling")
	assert.Equal(t, int64(0), s.Clock)
	assert.Equal(t, 2, s.EventQueue.Len(), "completion of job 1 and arrival of job 2 still queued")
}
