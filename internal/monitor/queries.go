package monitor

import (
	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

// Update mutates a view's query state before the query runs. A nil Update
// leaves the state as is.
type Update func(*scheduler.QueryState)

// JobsResult is the answer of the All Jobs and Active Jobs views.
type JobsResult struct {
	ViewState scheduler.ViewState
	Err       error
	Failures  []string
	TotalJobs int
	scheduler.JobsView
}

// NodesResult is the answer of the by-node view.
type NodesResult struct {
	ViewState scheduler.ViewState
	Err       error
	Failures  []string
	Nodes     []scheduler.NodeJobsView
}

// HistoryResult is the answer of the history view.
type HistoryResult struct {
	ViewState scheduler.ViewState
	Err       error
	JobID     string
	scheduler.HistoryView
}

// AllJobs applies update to the All Jobs state and queries the last snapshot.
func (m *Monitor) AllJobs(update Update) JobsResult {
	return m.queryJobs(ViewJobs, update, scheduler.AllJobs)
}

// ActiveJobs applies update to the Active Jobs state and queries the running
// jobs of the last snapshot.
func (m *Monitor) ActiveJobs(update Update) JobsResult {
	return m.queryJobs(ViewActive, update, scheduler.ActiveJobs)
}

func (m *Monitor) queryJobs(view string, update Update, build func([]api.Job, scheduler.LockSnapshot, scheduler.QueryState) scheduler.JobsView) JobsResult {
	state := m.updateState(m.states, view, update)

	m.mu.RLock()
	snap := m.jobs
	m.mu.RUnlock()

	return JobsResult{
		ViewState: snap.state,
		Err:       snap.err,
		Failures:  snap.failures,
		TotalJobs: snap.totalJobs,
		JobsView:  build(snap.jobs, snap.locks, state),
	}
}

// JobsByNode applies update to the state of nodeID only and queries every
// node. An empty nodeID, or one not in the last snapshot, leaves all node
// states untouched.
func (m *Monitor) JobsByNode(nodeID string, update Update) NodesResult {
	m.mu.RLock()
	snap := m.nodes
	m.mu.RUnlock()

	if nodeID != "" && hasNode(snap.nodes, nodeID) {
		m.updateState(m.nodeStates, nodeID, update)
	}

	return NodesResult{
		ViewState: snap.state,
		Err:       snap.err,
		Failures:  snap.failures,
		Nodes:     scheduler.JobsByNode(snap.nodes, snap.locks, m.nodeStates),
	}
}

// History applies update to the history state of jobID (all jobs when empty)
// and queries the normalized history. Per-job state is only kept for jobs
// present in the last snapshot.
func (m *Monitor) History(jobID string, update Update) HistoryResult {
	m.mu.RLock()
	snap := m.history
	m.mu.RUnlock()

	var state scheduler.QueryState
	switch {
	case jobID == "":
		state = m.updateState(m.states, ViewHistory, update)
	case hasHistory(snap.raw, jobID):
		state = m.updateState(m.states, historyKey(jobID), update)
	default:
		state = m.states.Transient(update)
	}

	entries := scheduler.NormalizeHistory(snap.raw, jobID)
	return HistoryResult{
		ViewState:   snap.state,
		Err:         snap.err,
		JobID:       jobID,
		HistoryView: scheduler.HistoryPage(entries, state),
	}
}

func historyKey(jobID string) string {
	return ViewHistory + "/" + jobID
}

func hasNode(nodes []api.NodeJobs, nodeID string) bool {
	for _, n := range nodes {
		if n.NodeID == nodeID {
			return true
		}
	}
	return false
}

func hasHistory(raw map[string]api.HistoryRecord, jobID string) bool {
	for _, rec := range raw {
		if rec.JobID == jobID {
			return true
		}
	}
	return false
}

func (m *Monitor) updateState(store *scheduler.StateStore, key string, update Update) scheduler.QueryState {
	if update == nil {
		return store.Get(key)
	}
	return store.Update(key, update)
}
