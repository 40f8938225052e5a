package scheduler

import "jobwatch/pkg/api"

// ViewState is the lifecycle state of a view.
//
//	Loading -> Ready     jobs (and locks) fetched
//	Loading -> Degraded  jobs fetched, locks failed
//	Loading -> Failed    primary fetch failed
//
// Ready, Degraded and Failed are terminal until the next refresh.
type ViewState string

const (
	ViewLoading  ViewState = "loading"
	ViewReady    ViewState = "ready"
	ViewDegraded ViewState = "degraded"
	ViewFailed   ViewState = "failed"
)

// JobRow is a job with its derived status.
type JobRow struct {
	Job    api.Job
	Status RunStatus
}

// JobsView is one page of a job view.
type JobsView struct {
	State      QueryState
	Rows       []JobRow
	TotalCount int
	Types      []string
}

// AllJobs queries the full job collection.
func AllJobs(jobs []api.Job, locks LockSnapshot, state QueryState) JobsView {
	return jobsView(jobs, locks, state)
}

// ActiveJobs keeps only running jobs (approximately running when the lock
// snapshot is unavailable) before querying. The pre-filter does not depend
// on the type filter.
func ActiveJobs(jobs []api.Job, locks LockSnapshot, state QueryState) JobsView {
	active := make([]api.Job, 0, len(jobs))
	for _, job := range jobs {
		if locks.Status(job).Running() {
			active = append(active, job)
		}
	}
	return jobsView(active, locks, state)
}

// NodeJobsView is the page of one node in the by-node view.
type NodeJobsView struct {
	NodeID    string
	NodeName  string
	TotalJobs int
	// Unavailable is set when the node reported no job info.
	Unavailable bool
	JobsView
}

// JobsByNode queries every node's jobs independently, each with the state
// stored under its node ID. A node without job info yields an empty,
// unavailable entry and does not affect the others.
func JobsByNode(nodes []api.NodeJobs, locks LockSnapshot, states *StateStore) []NodeJobsView {
	views := make([]NodeJobsView, 0, len(nodes))
	for _, node := range nodes {
		state := states.Get(node.NodeID)

		var jobs []api.Job
		view := NodeJobsView{NodeID: node.NodeID, NodeName: node.NodeName}
		if node.ScheduledJobInfo == nil {
			view.Unavailable = true
		} else {
			jobs = node.ScheduledJobInfo.Jobs
			view.TotalJobs = node.ScheduledJobInfo.TotalJobs
		}
		view.JobsView = jobsView(jobs, locks, state)
		views = append(views, view)
	}
	return views
}

// HistoryView is one page of normalized history.
type HistoryView struct {
	State      QueryState
	Entries    []HistoryEntry
	TotalCount int
	Types      []string
}

// HistoryPage queries normalized history entries.
func HistoryPage(entries []HistoryEntry, state QueryState) HistoryView {
	res := Query(entries, state, HistoryMatchers)
	return HistoryView{
		State:      state,
		Entries:    res.Page,
		TotalCount: res.TotalCount,
		Types:      Types(entries, HistoryMatchers.Type),
	}
}

func jobsView(jobs []api.Job, locks LockSnapshot, state QueryState) JobsView {
	res := Query(jobs, state, JobMatchers)
	rows := make([]JobRow, 0, len(res.Page))
	for _, job := range res.Page {
		rows = append(rows, JobRow{Job: job, Status: locks.Status(job)})
	}
	return JobsView{
		State:      state,
		Rows:       rows,
		TotalCount: res.TotalCount,
		Types:      Types(jobs, JobMatchers.Type),
	}
}
