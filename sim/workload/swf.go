package workload

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/swfsim/swfsim/sim"
)

// SWFFieldCount is the number of whitespace-separated fields of a Standard Workload Format record.
const SWFFieldCount = 18

// commentMarker starts header and comment lines.
const commentMarker = ';'

// DefaultProcsPerNode is the processors-per-node ratio used to derive node counts.
const DefaultProcsPerNode = 4

// SWF field indexes.
const (
	fieldJobID = iota
	fieldSubmitTime
	fieldWaitTime
	fieldRunTime
	fieldAllocatedProcs
	fieldAvgCPUTime
	fieldUsedMemory
	fieldRequestedProcs
	fieldRequestedTime
	fieldRequestedMemory
	fieldStatus
	fieldUserID
	fieldGroupID
	fieldExecutable
	fieldQueue
	fieldPartition
	fieldPrecedingJob
	fieldThinkTime
)

// strictFields must parse as integers; the remaining fields are informational
// and tolerate decimal values, which some archives use for CPU time and memory.
var strictFields = map[int]bool{
	fieldJobID:          true,
	fieldSubmitTime:     true,
	fieldRunTime:        true,
	fieldAllocatedProcs: true,
	fieldRequestedProcs: true,
	fieldRequestedTime:  true,
}

// Record is one job line of an SWF trace. -1 means "unknown" for every field.
type Record struct {
	JobID           int64
	SubmitTime      int64
	WaitTime        int64
	RunTime         int64
	AllocatedProcs  int64
	AvgCPUTime      int64
	UsedMemory      int64
	RequestedProcs  int64
	RequestedTime   int64
	RequestedMemory int64
	Status          int64
	UserID          int64
	GroupID         int64
	Executable      int64
	Queue           int64
	Partition       int64
	PrecedingJob    int64
	ThinkTime       int64
}

// Fields returns the record in SWF column order.
func (r *Record) Fields() [SWFFieldCount]int64 {
	return [SWFFieldCount]int64{
		r.JobID, r.SubmitTime, r.WaitTime, r.RunTime, r.AllocatedProcs, r.AvgCPUTime,
		r.UsedMemory, r.RequestedProcs, r.RequestedTime, r.RequestedMemory, r.Status,
		r.UserID, r.GroupID, r.Executable, r.Queue, r.Partition, r.PrecedingJob, r.ThinkTime,
	}
}

func recordFromFields(f [SWFFieldCount]int64) Record {
	return Record{
		JobID: f[0], SubmitTime: f[1], WaitTime: f[2], RunTime: f[3], AllocatedProcs: f[4],
		AvgCPUTime: f[5], UsedMemory: f[6], RequestedProcs: f[7], RequestedTime: f[8],
		RequestedMemory: f[9], Status: f[10], UserID: f[11], GroupID: f[12], Executable: f[13],
		Queue: f[14], Partition: f[15], PrecedingJob: f[16], ThinkTime: f[17],
	}
}

// Trace is a parsed SWF file: its "; Key: value" header comments and its records in file order.
type Trace struct {
	Header  map[string]string
	Records []Record
}

// LoadSWF reads and parses an SWF file.
func LoadSWF(path string) (*Trace, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Kind: KindIO, Path: path, Field: -1, Err: err}
	}
	defer func() { _ = file.Close() }()

	trace, err := ParseSWF(file)
	if err != nil {
		if le, ok := err.(*LoadError); ok {
			le.Path = path
		}
		return nil, err
	}
	logrus.Infof("Finished reading %s: %d records", path, len(trace.Records))
	return trace, nil
}

// ParseSWF parses SWF records from r. Blank lines and lines starting with ';'
// are skipped; header comments of the form "; Key: value" are kept in Header.
func ParseSWF(r io.Reader) (*Trace, error) {
	trace := &Trace{Header: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == commentMarker {
			parseHeaderComment(trace.Header, line)
			continue
		}

		rec, err := parseRecord(line, lineNo)
		if err != nil {
			return nil, err
		}
		trace.Records = append(trace.Records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{Kind: KindIO, Line: lineNo, Field: -1, Err: err}
	}
	return trace, nil
}

func parseHeaderComment(header map[string]string, line string) {
	body := strings.TrimSpace(strings.TrimLeft(line, string(commentMarker)))
	key, value, ok := strings.Cut(body, ":")
	if !ok || key == "" || strings.ContainsAny(key, " \t") {
		return
	}
	header[key] = strings.TrimSpace(value)
}

func parseRecord(line string, lineNo int) (Record, error) {
	parts := strings.Fields(line)
	if len(parts) != SWFFieldCount {
		return Record{}, &LoadError{
			Kind:  KindShape,
			Line:  lineNo,
			Field: -1,
			Err:   fmt.Errorf("record has %d fields, expected %d", len(parts), SWFFieldCount),
		}
	}

	var fields [SWFFieldCount]int64
	for i, p := range parts {
		v, err := parseField(p, strictFields[i])
		if err != nil {
			return Record{}, &LoadError{Kind: KindParse, Line: lineNo, Field: i, Err: err}
		}
		fields[i] = v
	}
	return recordFromFields(fields), nil
}

func parseField(s string, strict bool) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err == nil || strict {
		return v, err
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, err
	}
	return int64(f), nil
}

// JobOptions controls how SWF records become simulator jobs.
type JobOptions struct {
	ProcsPerNode int64 // processors per node; 0 means DefaultProcsPerNode
	ClusterNodes int64 // jobs needing more nodes are dropped
	Limit        int   // maximum number of jobs kept; 0 means unlimited
}

// ToJobs converts records into pending jobs in file order.
//
// Node count is ceil(procs / ProcsPerNode), using the requested processor
// count and falling back to the allocated count when the request is unknown.
// An unknown requested time falls back to the actual run time. Records whose
// node count or run time stays unknown are dropped with a warning, and
// records needing more than ClusterNodes are dropped silently.
func ToJobs(records []Record, opts JobOptions) ([]*sim.Job, error) {
	ppn := opts.ProcsPerNode
	if ppn == 0 {
		ppn = DefaultProcsPerNode
	}
	if ppn < 0 {
		return nil, fmt.Errorf("procs per node must be positive, got %d", ppn)
	}
	if opts.ClusterNodes <= 0 {
		return nil, fmt.Errorf("cluster nodes must be positive, got %d", opts.ClusterNodes)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("limit must be non-negative, got %d", opts.Limit)
	}

	jobs := make([]*sim.Job, 0, len(records))
	oversize, unknown := 0, 0
	for i := range records {
		rec := &records[i]
		procs := rec.RequestedProcs
		if procs <= 0 {
			procs = rec.AllocatedProcs
		}
		if procs <= 0 || rec.RunTime < 0 || rec.SubmitTime < 0 {
			logrus.Warnf("Skipping job %d: unknown submit time (%d), processor count (%d) or run time (%d)",
				rec.JobID, rec.SubmitTime, procs, rec.RunTime)
			unknown++
			continue
		}
		nodes := (procs + ppn - 1) / ppn
		if nodes > opts.ClusterNodes {
			logrus.Debugf("Skipping job %d as it requires %d > %d nodes", rec.JobID, nodes, opts.ClusterNodes)
			oversize++
			continue
		}
		requested := rec.RequestedTime
		if requested <= 0 {
			requested = rec.RunTime
		}

		jobs = append(jobs, sim.NewJob(rec.JobID, nodes, rec.SubmitTime, rec.RunTime, requested))
		if opts.Limit > 0 && len(jobs) >= opts.Limit {
			break
		}
	}
	logrus.Infof("%d jobs kept for %d nodes (%d oversize, %d unknown)", len(jobs), opts.ClusterNodes, oversize, unknown)
	return jobs, nil
}

// WriteSWF writes header comments (sorted by key) followed by records.
func WriteSWF(w io.Writer, header map[string]string, records []Record) error {
	bw := bufio.NewWriter(w)
	for _, key := range sortedKeys(header) {
		if _, err := fmt.Fprintf(bw, "; %s: %s\n", key, header[key]); err != nil {
			return fmt.Errorf("writing SWF header: %w", err)
		}
	}
	for i := range records {
		fields := records[i].Fields()
		strs := make([]string, len(fields))
		for j, v := range fields {
			strs[j] = strconv.FormatInt(v, 10)
		}
		if _, err := fmt.Fprintln(bw, strings.Join(strs, " ")); err != nil {
			return fmt.Errorf("writing SWF record %d: %w", records[i].JobID, err)
		}
	}
	return bw.Flush()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
