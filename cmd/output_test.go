package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swfsim/swfsim/sim"
)

func TestWriteReports_Text(t *testing.T) {
	reports := []*sim.Report{
		{Scheduler: "FCFS", Nodes: 4},
		{Scheduler: "FF", Nodes: 4},
	}

	var buf bytes.Buffer
	require.NoError(t, writeReports(&buf, reports, false))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "=== "), "one block header per report")
	assert.Contains(t, out, "=== FCFS on 4 nodes ===")
	assert.Contains(t, out, "=== FF on 4 nodes ===")
}

func TestWriteReport_JSONObject(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, &sim.Report{Scheduler: "SJF", Nodes: 8}, true))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "SJF", decoded["scheduler"])
}

func TestWriteReport_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeReport(&buf, &sim.Report{Scheduler: "FCFS", Nodes: 4}, false))
	assert.Contains(t, buf.String(), "=== FCFS on 4 nodes ===")
}

func TestWriteReports_OneCellSweep_IsStillArray(t *testing.T) {
	// GIVEN a sweep with a single configuration
	var buf bytes.Buffer
	require.NoError(t, writeReports(&buf, []*sim.Report{{Scheduler: "SJF", Nodes: 8}}, true))

	// THEN the output keeps the array shape of larger sweeps
	var decoded []sim.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "SJF", decoded[0].Scheduler)
}

func TestWriteReports_JSONArray(t *testing.T) {
	reports := []*sim.Report{{Scheduler: "FCFS", Nodes: 4}, {Scheduler: "FF", Nodes: 8}}

	var buf bytes.Buffer
	require.NoError(t, writeReports(&buf, reports, true))

	var decoded []sim.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, int64(8), decoded[1].Nodes)
}
