// Package sim provides the core discrete-event simulation engine for replaying
// batch job traces on a cluster of interchangeable nodes.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - job.go: Job lifecycle (pending → scheduled) and wait accounting
//   - event.go: Event types that drive the simulation (Arrival, Completion)
//   - simulator.go: The event loop with its drain and advance phases
//
// # Architecture
//
// The sim package holds the engine and the scheduling policies; supporting
// code lives in sub-packages:
//   - sim/workload/: SWF trace parsing, job conversion and synthetic trace generation
//   - sim/trace/: Admission decision recording
//   - sim/experiment/: Sweeps of schedulers across cluster sizes
//
// # Key Interfaces
//
// The extension point is the Scheduler interface: given the clock, the pending
// queue in arrival order and a read-only view of the cluster, it names the
// one job to start next. Built-in policies are FCFS, First Fit, Shortest Job
// First and FCFS with EASY backfilling (see NewScheduler).
//
// Time is an integer tick count (seconds in SWF traces). Simultaneous events
// run completions before arrivals, then in job ID order.
package sim
