// Package experiment sweeps scheduler policies across cluster sizes for one trace.
// Every (cluster size, scheduler) pair runs on its own freshly built Simulator,
// so runs share no mutable state and can execute in parallel.
package experiment

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/swfsim/swfsim/sim"
	"github.com/swfsim/swfsim/sim/trace"
)

// DefaultNodeCounts are the cluster sizes swept when none are configured.
var DefaultNodeCounts = []int64{64, 128, 256, 512, 1024, 2048, 4096, 8192, 16384, 32768, 65536, 131072}

// Experiment holds sweep configuration, loadable from a YAML file.
// Zero-valued fields take defaults in WithDefaults.
type Experiment struct {
	Trace           string   `yaml:"trace"`
	ProcsPerNode    int64    `yaml:"procs_per_node,omitempty"`
	Limit           int      `yaml:"limit,omitempty"`
	NodeCounts      []int64  `yaml:"node_counts,omitempty"`
	Schedulers      []string `yaml:"schedulers,omitempty"`
	Parallelism     int      `yaml:"parallelism,omitempty"`
	TraceLevel      string   `yaml:"trace_level,omitempty"`
	CheckInvariants bool     `yaml:"check_invariants,omitempty"`
}

// LoadExperiment reads and parses a YAML experiment file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment config: %w", err)
	}
	var exp Experiment
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&exp); err != nil {
		return nil, fmt.Errorf("parsing experiment config: %w", err)
	}
	return &exp, nil
}

// WithDefaults returns a copy with unset fields filled in.
func (e Experiment) WithDefaults() Experiment {
	if len(e.NodeCounts) == 0 {
		e.NodeCounts = append([]int64(nil), DefaultNodeCounts...)
	}
	if len(e.Schedulers) == 0 {
		e.Schedulers = sim.SchedulerNames()
	}
	if e.Parallelism == 0 {
		e.Parallelism = 1
	}
	if e.TraceLevel == "" {
		e.TraceLevel = string(trace.TraceLevelNone)
	}
	return e
}

// Validate checks that all values in the experiment are usable.
func (e *Experiment) Validate() error {
	if e.ProcsPerNode < 0 {
		return fmt.Errorf("procs_per_node must be non-negative, got %d", e.ProcsPerNode)
	}
	if e.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", e.Limit)
	}
	if e.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative, got %d", e.Parallelism)
	}
	for _, n := range e.NodeCounts {
		if n <= 0 {
			return fmt.Errorf("node count must be positive, got %d", n)
		}
	}
	for _, name := range e.Schedulers {
		if name == "" || !sim.IsValidScheduler(name) {
			return fmt.Errorf("unknown scheduler %q", name)
		}
	}
	if !trace.IsValidTraceLevel(e.TraceLevel) {
		return fmt.Errorf("unknown trace level %q", e.TraceLevel)
	}
	return nil
}

// Run identifies one cell of the sweep.
type Run struct {
	Nodes     int64
	Scheduler string
}

// Runs lists the sweep cells, cluster size major, in configuration order.
func (e *Experiment) Runs() []Run {
	runs := make([]Run, 0, len(e.NodeCounts)*len(e.Schedulers))
	for _, n := range e.NodeCounts {
		for _, s := range e.Schedulers {
			runs = append(runs, Run{Nodes: n, Scheduler: s})
		}
	}
	return runs
}
