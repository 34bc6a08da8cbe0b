// Package testutil provides shared test infrastructure for the simulator.
// It holds the golden dataset types, testdata path resolution and
// assertion helpers used across the sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/golden.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one replay of a testdata trace under one scheduler and cluster size.
type GoldenTestCase struct {
	Name         string        `json:"name"`
	Trace        string        `json:"trace"` // file name under testdata/
	Nodes        int64         `json:"nodes"`
	Scheduler    string        `json:"scheduler"`
	ProcsPerNode int64         `json:"procs_per_node"`
	Limit        int           `json:"limit"`
	Metrics      GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected report of a golden test case.
type GoldenMetrics struct {
	// Exact match metrics (integers)
	Jobs                int   `json:"jobs"`
	Makespan            int64 `json:"makespan"`
	TotalCompletionTime int64 `json:"total_completion_time"`
	WaitMin             int64 `json:"wait_min"`
	WaitMax             int64 `json:"wait_max"`
	WaitMedian          int64 `json:"wait_median"`
	WaitTotal           int64 `json:"wait_total"`
	Bypassed            int   `json:"bypassed"`
	UsedNodeSeconds     int64 `json:"used_node_seconds"`

	// Derived floating-point metrics
	WaitMean    float64 `json:"wait_mean"`
	IdlePercent float64 `json:"idle_percent"`

	// Note: wall_time_ns is wall clock time and NOT deterministic, so not tested
}

// TestdataPath resolves name inside the repo root testdata/ directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func TestdataPath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", name)
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	data, err := os.ReadFile(TestdataPath(t, "golden.json"))
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
