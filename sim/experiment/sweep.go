package experiment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/swfsim/swfsim/sim"
	"github.com/swfsim/swfsim/sim/trace"
	"github.com/swfsim/swfsim/sim/workload"
)

// RunOne converts records for one cluster size and simulates them under one scheduler.
func RunOne(exp *Experiment, run Run, records []workload.Record) (*sim.Report, error) {
	jobs, err := workload.ToJobs(records, workload.JobOptions{
		ProcsPerNode: exp.ProcsPerNode,
		ClusterNodes: run.Nodes,
		Limit:        exp.Limit,
	})
	if err != nil {
		return nil, err
	}
	simulator, err := sim.NewSimulator(sim.SimulatorConfig{
		Nodes:           run.Nodes,
		Scheduler:       run.Scheduler,
		Trace:           trace.TraceConfig{Level: trace.TraceLevel(exp.TraceLevel)},
		CheckInvariants: exp.CheckInvariants,
	}, jobs)
	if err != nil {
		return nil, err
	}
	return simulator.Run()
}

// Sweep runs every (cluster size, scheduler) combination of exp against records.
// Up to exp.Parallelism runs execute concurrently; reports come back in
// Runs() order and carry a shared sweep ID. The first failing run cancels
// the runs that have not started yet.
func Sweep(ctx context.Context, exp *Experiment, records []workload.Record) ([]*sim.Report, error) {
	e := exp.WithDefaults()
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("invalid experiment: %w", err)
	}

	sweepID := uuid.NewString()
	runs := e.Runs()
	reports := make([]*sim.Report, len(runs))
	logrus.Infof("Sweep %s: %d runs, parallelism %d", sweepID, len(runs), e.Parallelism)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Parallelism)
	for i, run := range runs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report, err := RunOne(&e, run, records)
			if err != nil {
				return fmt.Errorf("%s on %d nodes: %w", run.Scheduler, run.Nodes, err)
			}
			report.SweepID = sweepID
			reports[i] = report
			logrus.Infof("Sweep %s: finished %s on %d nodes, makespan %d", sweepID, report.Scheduler, run.Nodes, report.Makespan)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
