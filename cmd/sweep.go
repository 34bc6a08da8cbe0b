package cmd

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/swfsim/swfsim/sim/experiment"
	"github.com/swfsim/swfsim/sim/workload"
)

var (
	sweepConfigPath  string
	sweepTracePath   string
	sweepNodeCounts  []int64
	sweepSchedulers  []string
	sweepParallelism int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Replay an SWF trace across scheduling policies and cluster sizes",
	Long:  "Run every (cluster size, scheduler) combination of an experiment. The experiment comes from a YAML file; flags override its fields.",
	Run: func(cmd *cobra.Command, args []string) {
		exp := &experiment.Experiment{}
		if sweepConfigPath != "" {
			loaded, err := experiment.LoadExperiment(sweepConfigPath)
			if err != nil {
				logrus.Fatalf("Failed to load experiment: %v", err)
			}
			exp = loaded
		}
		applySweepFlags(cmd, exp)
		if exp.Trace == "" {
			logrus.Fatalf("No trace given: set --trace or the trace field of the experiment file")
		}

		swf, err := workload.LoadSWF(exp.Trace)
		if err != nil {
			logrus.Fatalf("Unable to load trace: %v", err)
		}
		reports, err := experiment.Sweep(context.Background(), exp, swf.Records)
		if err != nil {
			logrus.Fatalf("Sweep failed: %v", err)
		}
		if err := writeReports(os.Stdout, reports, jsonOutput); err != nil {
			logrus.Fatalf("Unable to write reports: %v", err)
		}
	},
}

// applySweepFlags copies explicitly set flags over the experiment file values.
func applySweepFlags(cmd *cobra.Command, exp *experiment.Experiment) {
	flags := cmd.Flags()
	if flags.Changed("trace") {
		exp.Trace = sweepTracePath
	}
	if flags.Changed("nodes") {
		exp.NodeCounts = sweepNodeCounts
	}
	if flags.Changed("schedulers") {
		exp.Schedulers = sweepSchedulers
	}
	if flags.Changed("parallelism") {
		exp.Parallelism = sweepParallelism
	}
	if flags.Changed("procs-per-node") {
		exp.ProcsPerNode = procsPerNode
	}
	if flags.Changed("limit") {
		exp.Limit = jobLimit
	}
	if flags.Changed("trace-level") {
		exp.TraceLevel = traceLevel
	}
	if flags.Changed("check-invariants") {
		exp.CheckInvariants = checkInvariants
	}
}

func init() {
	sweepCmd.Flags().StringVar(&sweepConfigPath, "config", "", "Path to an experiment YAML file")
	sweepCmd.Flags().StringVar(&sweepTracePath, "trace", "", "Path to the SWF workload trace")
	sweepCmd.Flags().Int64SliceVar(&sweepNodeCounts, "nodes", nil, "Comma-separated cluster sizes (default 64..131072)")
	sweepCmd.Flags().StringSliceVar(&sweepSchedulers, "schedulers", nil, "Comma-separated scheduling policies (default all)")
	sweepCmd.Flags().IntVar(&sweepParallelism, "parallelism", 1, "Number of runs executed concurrently")
	sweepCmd.Flags().Int64Var(&procsPerNode, "procs-per-node", workload.DefaultProcsPerNode, "Processors per node used to derive job node counts")
	sweepCmd.Flags().IntVar(&jobLimit, "limit", 0, "Maximum number of jobs to load per run (0 = all)")
	sweepCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	sweepCmd.Flags().BoolVar(&checkInvariants, "check-invariants", false, "Verify node accounting after every event")
	sweepCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the reports as JSON")

	rootCmd.AddCommand(sweepCmd)
}
