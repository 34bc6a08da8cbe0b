// Implements the node pool the simulated jobs run on.
// Only the Simulator mutates it; schedulers read AvailableNodes and RunningJobs.

package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Cluster tracks a fixed pool of interchangeable nodes and the jobs occupying them.
// Invariant: AvailableNodes + sum(Nodes of Running) == TotalNodes.
type Cluster struct {
	TotalNodes      int64
	AvailableNodes  int64
	UsedNodeSeconds int64 // node-seconds of every job released so far

	// Running maps job ID to the job currently holding nodes.
	Running map[int64]*Job
}

// NewCluster creates an idle cluster with the given capacity.
func NewCluster(nodes int64) *Cluster {
	return &Cluster{
		TotalNodes:     nodes,
		AvailableNodes: nodes,
		Running:        make(map[int64]*Job),
	}
}

// Admit starts job on the cluster at clock.
// Returns false and leaves the cluster untouched if the job does not fit,
// was already scheduled, or its ID is already running.
func (c *Cluster) Admit(job *Job, clock int64) bool {
	if job.Nodes > c.AvailableNodes {
		logrus.Warnf("[tick %07d] job %d is trying to run on %d nodes but only %d are available",
			clock, job.ID, job.Nodes, c.AvailableNodes)
		return false
	}
	if _, ok := c.Running[job.ID]; ok {
		logrus.Warnf("[tick %07d] job %d is already running", clock, job.ID)
		return false
	}
	if err := job.Admit(clock); err != nil {
		logrus.Warnf("[tick %07d] %v", clock, err)
		return false
	}
	c.AvailableNodes -= job.Nodes
	c.Running[job.ID] = job
	return true
}

// Release frees the nodes of a finished job and accounts its usage.
// Unknown IDs are ignored.
func (c *Cluster) Release(jobID int64) {
	job, ok := c.Running[jobID]
	if !ok {
		logrus.Debugf("release of unknown job %d ignored", jobID)
		return
	}
	delete(c.Running, jobID)
	c.AvailableNodes += job.Nodes
	c.UsedNodeSeconds += job.Nodes * job.RunTime
}

// RunningNodes returns the number of nodes held by running jobs.
func (c *Cluster) RunningNodes() int64 {
	var n int64
	for _, job := range c.Running {
		n += job.Nodes
	}
	return n
}

// RunningJobs returns the running jobs ordered by ID.
// The slice is freshly allocated; callers may sort it.
func (c *Cluster) RunningJobs() []*Job {
	jobs := make([]*Job, 0, len(c.Running))
	for _, job := range c.Running {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Less(jobs[j]) })
	return jobs
}

// CheckCapacity verifies the node accounting invariant.
func (c *Cluster) CheckCapacity() error {
	if c.AvailableNodes < 0 || c.AvailableNodes > c.TotalNodes {
		return fmt.Errorf("available nodes %d outside [0, %d]", c.AvailableNodes, c.TotalNodes)
	}
	if running := c.RunningNodes(); c.AvailableNodes+running != c.TotalNodes {
		return fmt.Errorf("available %d + running %d != total %d", c.AvailableNodes, running, c.TotalNodes)
	}
	return nil
}

// Utilization summarizes how busy the cluster was over a run.
type Utilization struct {
	UsedNodeSeconds  int64   `json:"used_node_seconds"`
	TotalNodeSeconds int64   `json:"total_node_seconds"`
	IdleNodeSeconds  int64   `json:"idle_node_seconds"`
	IdlePercent      float64 `json:"idle_percent"`
}

// Utilization computes usage figures for a run of the given makespan.
// Returns nil for a zero makespan, where no percentage is defined.
func (c *Cluster) Utilization(makespan int64) *Utilization {
	total := makespan * c.TotalNodes
	if total <= 0 {
		return nil
	}
	idle := total - c.UsedNodeSeconds
	return &Utilization{
		UsedNodeSeconds:  c.UsedNodeSeconds,
		TotalNodeSeconds: total,
		IdleNodeSeconds:  idle,
		IdlePercent:      float64(idle) * 100 / float64(total),
	}
}
