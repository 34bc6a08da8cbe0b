package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/swfsim/swfsim/sim"
	"github.com/swfsim/swfsim/sim/experiment"
	"github.com/swfsim/swfsim/sim/trace"
	"github.com/swfsim/swfsim/sim/workload"
)

var (
	logLevel string // Log verbosity level

	// CLI flags for a single run
	tracePath       string // SWF trace file
	nodes           int64  // Cluster size in nodes
	schedulerName   string // Scheduling policy
	procsPerNode    int64  // Processors per node used to derive node counts
	jobLimit        int    // Maximum number of jobs loaded (0 = all)
	traceLevel      string // Decision trace level
	checkInvariants bool   // Verify node accounting after every event
	jsonOutput      bool   // Print reports as JSON
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "swfsim",
	Short: "Discrete-event simulator for cluster job scheduling policies",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd replays one trace under one scheduler on one cluster size
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay an SWF trace under one scheduling policy",
	Run: func(cmd *cobra.Command, args []string) {
		if !sim.IsValidScheduler(schedulerName) {
			logrus.Fatalf("Unknown scheduler %q. Valid: %v", schedulerName, sim.SchedulerNames())
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Unknown trace level %q", traceLevel)
		}

		swf, err := workload.LoadSWF(tracePath)
		if err != nil {
			logrus.Fatalf("Unable to load trace: %v", err)
		}

		exp := &experiment.Experiment{
			Trace:           tracePath,
			ProcsPerNode:    procsPerNode,
			Limit:           jobLimit,
			TraceLevel:      traceLevel,
			CheckInvariants: checkInvariants,
		}
		report, err := experiment.RunOne(exp, experiment.Run{Nodes: nodes, Scheduler: schedulerName}, swf.Records)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if err := writeReport(os.Stdout, report, jsonOutput); err != nil {
			logrus.Fatalf("Unable to write report: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	runCmd.Flags().StringVar(&tracePath, "trace", "", "Path to the SWF workload trace")
	runCmd.Flags().Int64Var(&nodes, "nodes", 1024, "Number of nodes in the simulated cluster")
	runCmd.Flags().StringVar(&schedulerName, "scheduler", "fcfs", "Scheduling policy (fcfs, ff, sjf, easy)")
	runCmd.Flags().Int64Var(&procsPerNode, "procs-per-node", workload.DefaultProcsPerNode, "Processors per node used to derive job node counts")
	runCmd.Flags().IntVar(&jobLimit, "limit", 0, "Maximum number of jobs to load (0 = all)")
	runCmd.Flags().StringVar(&traceLevel, "trace-level", "none", "Decision trace level (none, decisions)")
	runCmd.Flags().BoolVar(&checkInvariants, "check-invariants", false, "Verify node accounting after every event")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	_ = runCmd.MarkFlagRequired("trace")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
