package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat/distuv"
	"gopkg.in/yaml.v3"

	"github.com/swfsim/swfsim/sim"
)

// GeneratorSpec describes a synthetic SWF workload.
// Loaded from YAML via LoadGeneratorSpec(path).
type GeneratorSpec struct {
	Seed         int64         `yaml:"seed"`
	NumJobs      int           `yaml:"num_jobs"`
	ArrivalRate  float64       `yaml:"arrival_rate"` // jobs per second, exponential inter-arrival
	Runtime      LogNormalSpec `yaml:"runtime"`
	MaxRuntime   int64         `yaml:"max_runtime,omitempty"`
	Procs        ProcsSpec     `yaml:"procs"`
	Overestimate RangeSpec     `yaml:"overestimate,omitempty"` // requested = run * U(min, max)
	Users        int           `yaml:"users,omitempty"`
}

// LogNormalSpec parameterizes ln(run time in seconds).
type LogNormalSpec struct {
	Mu    float64 `yaml:"mu"`
	Sigma float64 `yaml:"sigma"`
}

// ProcsSpec bounds the processor request of each job. Sizes are log-uniform;
// PowerOfTwo is the fraction of jobs rounded to a power of two.
type ProcsSpec struct {
	Min        int64   `yaml:"min"`
	Max        int64   `yaml:"max"`
	PowerOfTwo float64 `yaml:"power_of_two,omitempty"`
}

// RangeSpec is a closed float interval.
type RangeSpec struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

const (
	defaultMaxRuntime = 86400
	defaultUsers      = 1
)

// LoadGeneratorSpec reads and parses a YAML generator specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadGeneratorSpec(path string) (*GeneratorSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading generator spec: %w", err)
	}
	var spec GeneratorSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing generator spec: %w", err)
	}
	return &spec, nil
}

// withDefaults returns a copy with zero-valued optional fields filled in.
func (s GeneratorSpec) withDefaults() GeneratorSpec {
	if s.MaxRuntime == 0 {
		s.MaxRuntime = defaultMaxRuntime
	}
	if s.Overestimate == (RangeSpec{}) {
		s.Overestimate = RangeSpec{Min: 1, Max: 1}
	}
	if s.Users == 0 {
		s.Users = defaultUsers
	}
	return s
}

// Validate checks that all fields in the spec are valid.
func (s *GeneratorSpec) Validate() error {
	d := s.withDefaults()
	if d.NumJobs <= 0 {
		return fmt.Errorf("num_jobs must be positive, got %d", d.NumJobs)
	}
	if err := validateFinitePositive("arrival_rate", d.ArrivalRate); err != nil {
		return err
	}
	if math.IsNaN(d.Runtime.Mu) || math.IsInf(d.Runtime.Mu, 0) {
		return fmt.Errorf("runtime.mu must be a finite number, got %f", d.Runtime.Mu)
	}
	if math.IsNaN(d.Runtime.Sigma) || d.Runtime.Sigma < 0 {
		return fmt.Errorf("runtime.sigma must be non-negative, got %f", d.Runtime.Sigma)
	}
	if d.MaxRuntime <= 0 {
		return fmt.Errorf("max_runtime must be positive, got %d", d.MaxRuntime)
	}
	if d.Procs.Min < 1 || d.Procs.Max < d.Procs.Min {
		return fmt.Errorf("procs range [%d, %d] invalid; need 1 <= min <= max", d.Procs.Min, d.Procs.Max)
	}
	if d.Procs.PowerOfTwo < 0 || d.Procs.PowerOfTwo > 1 {
		return fmt.Errorf("procs.power_of_two must be in [0, 1], got %f", d.Procs.PowerOfTwo)
	}
	if err := validateFinitePositive("overestimate.min", d.Overestimate.Min); err != nil {
		return err
	}
	if d.Overestimate.Max < d.Overestimate.Min {
		return fmt.Errorf("overestimate.max %f below min %f", d.Overestimate.Max, d.Overestimate.Min)
	}
	if d.Users < 0 {
		return fmt.Errorf("users must be non-negative, got %d", d.Users)
	}
	return nil
}

// Generate creates a synthetic trace from spec.
// Deterministic given the same spec: each quantity draws from its own
// PartitionedRNG subsystem.
func Generate(spec *GeneratorSpec) (*Trace, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid generator spec: %w", err)
	}
	s := spec.withDefaults()

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(s.Seed))
	runtimeRNG := rng.ForSubsystem(sim.SubsystemRuntimes)
	sizeRNG := rng.ForSubsystem(sim.SubsystemSizes)
	userRNG := rng.ForSubsystem(sim.SubsystemUsers)

	interArrival := distuv.Exponential{Rate: s.ArrivalRate, Src: rng.ForSubsystem(sim.SubsystemArrivals)}
	runtime := distuv.LogNormal{Mu: s.Runtime.Mu, Sigma: s.Runtime.Sigma, Src: runtimeRNG}
	overestimate := distuv.Uniform{Min: s.Overestimate.Min, Max: s.Overestimate.Max, Src: runtimeRNG}
	logSize := distuv.Uniform{Min: math.Log2(float64(s.Procs.Min)), Max: math.Log2(float64(s.Procs.Max)), Src: sizeRNG}

	records := make([]Record, 0, s.NumJobs)
	clock := 0.0
	for i := 0; i < s.NumJobs; i++ {
		if i > 0 {
			clock += interArrival.Rand()
		}

		run := clampInt64(int64(math.Round(runtime.Rand())), 1, s.MaxRuntime)
		requested := clampInt64(int64(math.Ceil(float64(run)*overestimate.Rand())), 1, s.MaxRuntime)
		procs := sampleProcs(logSize, sizeRNG.Float64() < s.Procs.PowerOfTwo, s.Procs)

		records = append(records, Record{
			JobID:           int64(i + 1),
			SubmitTime:      int64(clock),
			WaitTime:        -1,
			RunTime:         run,
			AllocatedProcs:  procs,
			AvgCPUTime:      -1,
			UsedMemory:      -1,
			RequestedProcs:  procs,
			RequestedTime:   requested,
			RequestedMemory: -1,
			Status:          1,
			UserID:          int64(userRNG.IntN(s.Users) + 1),
			GroupID:         -1,
			Executable:      -1,
			Queue:           1,
			Partition:       1,
			PrecedingJob:    -1,
			ThinkTime:       -1,
		})
	}

	header := map[string]string{
		"Version":    "2.2",
		"Computer":   "swfsim synthetic",
		"MaxJobs":    strconv.Itoa(s.NumJobs),
		"MaxRecords": strconv.Itoa(s.NumJobs),
		"MaxProcs":   strconv.FormatInt(s.Procs.Max, 10),
		"MaxRuntime": strconv.FormatInt(s.MaxRuntime, 10),
		"Note":       fmt.Sprintf("generated with seed %d", s.Seed),
	}
	return &Trace{Header: header, Records: records}, nil
}

// sampleProcs draws a log-uniform processor count, optionally snapped to a power of two.
func sampleProcs(logSize distuv.Uniform, powerOfTwo bool, bounds ProcsSpec) int64 {
	exp := logSize.Rand()
	var procs float64
	if powerOfTwo {
		procs = math.Exp2(math.Round(exp))
	} else {
		procs = math.Round(math.Exp2(exp))
	}
	return clampInt64(int64(procs), bounds.Min, bounds.Max)
}

func clampInt64(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}

func validateFinitePositive(name string, val float64) error {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, val)
	}
	if val <= 0 {
		return fmt.Errorf("%s must be positive, got %f", name, val)
	}
	return nil
}
