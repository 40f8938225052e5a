// Package api contains shared JSON request/response structs.
// The scheduler payloads mirror the job-scheduler plugin REST API; the view
// payloads are what the monitor serves and the CLI prints.
package api

// Job is a scheduled job definition as reported by the scheduler service.
// The true key of a job is the pair (IndexName, JobID).
type Job struct {
	JobID       string    `json:"job_id"`
	IndexName   string    `json:"index_name"`
	Name        string    `json:"name"`
	JobType     string    `json:"job_type"`
	Enabled     bool      `json:"enabled"`
	Descheduled bool      `json:"descheduled"`
	Schedule    *Schedule `json:"schedule,omitempty"`

	EnabledTime               Timestamp `json:"enabled_time"`
	LastUpdateTime            Timestamp `json:"last_update_time"`
	LastExecutionTime         Timestamp `json:"last_execution_time"`
	LastExpectedExecutionTime Timestamp `json:"last_expected_execution_time"`
	NextExpectedExecutionTime Timestamp `json:"next_expected_execution_time"`

	Delay        Scalar `json:"delay"`
	Jitter       Scalar `json:"jitter"`
	LockDuration Scalar `json:"lock_duration"`
}

// JobsResponse is the body of GET /_plugins/_job_scheduler/api/jobs.
type JobsResponse struct {
	Jobs      []Job    `json:"jobs"`
	Failures  []string `json:"failures,omitempty"`
	TotalJobs int      `json:"total_jobs"`
}

// LockRecord is a runtime lease held by a running job.
type LockRecord struct {
	JobIndexName        string    `json:"job_index_name,omitempty"`
	JobID               string    `json:"job_id,omitempty"`
	LockTime            Timestamp `json:"lock_time"`
	LockDurationSeconds Scalar    `json:"lock_duration_seconds"`
	Released            bool      `json:"released"`
}

// LocksResponse is the body of GET /_plugins/_job_scheduler/api/locks.
// Keys have the form "{index_name}-{job_id}".
type LocksResponse struct {
	Locks map[string]LockRecord `json:"locks"`
}

// HistoryRecord is one raw execution-history record. Times are epoch seconds.
type HistoryRecord struct {
	JobID            string `json:"job_id"`
	JobIndexName     string `json:"job_index_name"`
	StartTime        int64  `json:"start_time"`
	EndTime          int64  `json:"end_time"`
	CompletionStatus int    `json:"completion_status"`
}

// HistoryResponse is the body of GET /_plugins/_job_scheduler/api/history.
type HistoryResponse struct {
	History map[string]HistoryRecord `json:"history"`
}

// ScheduledJobInfo lists the jobs scheduled on one node.
type ScheduledJobInfo struct {
	TotalJobs int   `json:"total_jobs"`
	Jobs      []Job `json:"jobs"`
}

// NodeJobs is one node entry of the per-node jobs payload. ScheduledJobInfo
// is nil when the node reported nothing.
type NodeJobs struct {
	NodeID           string            `json:"node_id"`
	NodeName         string            `json:"node_name,omitempty"`
	ScheduledJobInfo *ScheduledJobInfo `json:"scheduled_job_info"`
}

// NodesResponse is the body of the per-node jobs endpoint.
type NodesResponse struct {
	Failures []string   `json:"failures,omitempty"`
	Nodes    []NodeJobs `json:"nodes"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// TimeResponse is returned by the ping endpoint.
type TimeResponse struct {
	Time string `json:"time"`
}

// JobView is a job row ready for display.
type JobView struct {
	JobID       string `json:"job_id"`
	IndexName   string `json:"index_name"`
	Name        string `json:"name"`
	JobType     string `json:"job_type"`
	Enabled     bool   `json:"enabled"`
	Descheduled bool   `json:"descheduled"`

	// Status is one of "running", "idle" or "disabled". Approximate is set
	// when the status was derived without a lock snapshot.
	Status      string `json:"status"`
	Approximate bool   `json:"approximate,omitempty"`

	Schedule                  string `json:"schedule"`
	EnabledTime               string `json:"enabled_time"`
	LastUpdateTime            string `json:"last_update_time"`
	LastExecutionTime         string `json:"last_execution_time"`
	LastExpectedExecutionTime string `json:"last_expected_execution_time"`
	NextExpectedExecutionTime string `json:"next_expected_execution_time"`
	NextRunEstimated          bool   `json:"next_run_estimated,omitempty"`

	Delay        string `json:"delay"`
	Jitter       string `json:"jitter"`
	LockDuration string `json:"lock_duration"`
}

// Page carries the pagination echo shared by every view response.
type Page struct {
	TypeFilter  string   `json:"type_filter"`
	SearchQuery string   `json:"search_query"`
	PageIndex   int      `json:"page_index"`
	PageSize    int      `json:"page_size"`
	TotalCount  int      `json:"total_count"`
	Types       []string `json:"types"`
}

// JobsViewResponse is returned by the all-jobs and active-jobs views.
type JobsViewResponse struct {
	View      string         `json:"view"`
	State     string         `json:"state"`
	Error     *ErrorResponse `json:"error,omitempty"`
	Failures  []string       `json:"failures,omitempty"`
	TotalJobs int            `json:"total_jobs"`
	Page
	Jobs []JobView `json:"jobs"`
}

// NodeView is one node of the by-node view with its own page.
type NodeView struct {
	NodeID      string `json:"node_id"`
	NodeName    string `json:"node_name,omitempty"`
	TotalJobs   int    `json:"total_jobs"`
	Unavailable bool   `json:"unavailable,omitempty"`
	Page
	Jobs []JobView `json:"jobs"`
}

// NodesViewResponse is returned by the by-node view.
type NodesViewResponse struct {
	View     string         `json:"view"`
	State    string         `json:"state"`
	Error    *ErrorResponse `json:"error,omitempty"`
	Failures []string       `json:"failures,omitempty"`
	Nodes    []NodeView     `json:"nodes"`
}

// HistoryView is one normalized history entry ready for display.
type HistoryView struct {
	Key              string `json:"key"`
	JobID            string `json:"job_id"`
	JobIndexName     string `json:"job_index_name"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	StartEpoch       int64  `json:"start_epoch"`
	EndEpoch         int64  `json:"end_epoch"`
	Duration         int64  `json:"duration"`
	CompletionStatus int    `json:"completion_status"`
	Status           string `json:"status"`
}

// HistoryViewResponse is returned by the history view.
type HistoryViewResponse struct {
	View  string         `json:"view"`
	State string         `json:"state"`
	Error *ErrorResponse `json:"error,omitempty"`
	JobID string         `json:"job_id,omitempty"`
	Page
	Entries []HistoryView `json:"entries"`
}

// RefreshResponse reports the state of every view after a refresh.
type RefreshResponse struct {
	States map[string]string `json:"states"`
}
