// Package render turns monitor results into the display types of pkg/api
// shared by the HTTP views and the CLI.
package render

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"jobwatch/internal/client"
	"jobwatch/internal/monitor"
	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

// Options controls how times are shown.
type Options struct {
	// Location for rendered timestamps; time.Local when nil.
	Location *time.Location
	// Now is the reference for next-run estimates; time.Now when zero.
	Now time.Time
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// Error converts a fetch error into the wire error. Upstream failures keep
// their status and message; anything else is a 500.
func Error(err error) *api.ErrorResponse {
	if err == nil {
		return nil
	}
	status := StatusCode(err)
	resp := &api.ErrorResponse{Code: strconv.Itoa(status), Error: err.Error()}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		resp.Error = apiErr.Message
	}
	return resp
}

// StatusCode returns the HTTP status an error should be reported with.
func StatusCode(err error) int {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

// Job renders one row.
func Job(row scheduler.JobRow, opts Options) api.JobView {
	job := row.Job
	v := api.JobView{
		JobID:       job.JobID,
		IndexName:   job.IndexName,
		Name:        job.Name,
		JobType:     job.JobType,
		Enabled:     job.Enabled,
		Descheduled: job.Descheduled,
		Status:      string(row.Status.Status),
		Approximate: row.Status.Approximate,

		Schedule:                  scheduler.DescribeSchedule(job.Schedule),
		EnabledTime:               scheduler.FormatTimestamp(job.EnabledTime, opts.Location),
		LastUpdateTime:            scheduler.FormatTimestamp(job.LastUpdateTime, opts.Location),
		LastExecutionTime:         scheduler.FormatTimestamp(job.LastExecutionTime, opts.Location),
		LastExpectedExecutionTime: scheduler.FormatTimestamp(job.LastExpectedExecutionTime, opts.Location),
		NextExpectedExecutionTime: scheduler.FormatTimestamp(job.NextExpectedExecutionTime, opts.Location),

		Delay:        scalar(job.Delay),
		Jitter:       scalar(job.Jitter),
		LockDuration: scalar(job.LockDuration),
	}

	// Enabled cron jobs without a reported next run get an estimate.
	if job.Enabled && job.NextExpectedExecutionTime.IsAbsent() {
		if next, err := scheduler.NextCronRun(job.Schedule, opts.now()); err == nil {
			v.NextExpectedExecutionTime = scheduler.FormatEpoch(next.Unix(), opts.Location)
			v.NextRunEstimated = true
		}
	}
	return v
}

// Jobs renders every row of a page. The result is never nil.
func Jobs(rows []scheduler.JobRow, opts Options) []api.JobView {
	out := make([]api.JobView, 0, len(rows))
	for _, row := range rows {
		out = append(out, Job(row, opts))
	}
	return out
}

// JobsView renders an All Jobs or Active Jobs result.
func JobsView(view string, res monitor.JobsResult, opts Options) api.JobsViewResponse {
	return api.JobsViewResponse{
		View:      view,
		State:     string(res.ViewState),
		Error:     Error(res.Err),
		Failures:  res.Failures,
		TotalJobs: res.TotalJobs,
		Page:      page(res.State, res.TotalCount, res.Types),
		Jobs:      Jobs(res.Rows, opts),
	}
}

// NodesView renders the by-node result.
func NodesView(res monitor.NodesResult, opts Options) api.NodesViewResponse {
	nodes := make([]api.NodeView, 0, len(res.Nodes))
	for _, n := range res.Nodes {
		nodes = append(nodes, api.NodeView{
			NodeID:      n.NodeID,
			NodeName:    n.NodeName,
			TotalJobs:   n.TotalJobs,
			Unavailable: n.Unavailable,
			Page:        page(n.State, n.TotalCount, n.Types),
			Jobs:        Jobs(n.Rows, opts),
		})
	}
	return api.NodesViewResponse{
		View:     monitor.ViewNodes,
		State:    string(res.ViewState),
		Error:    Error(res.Err),
		Failures: res.Failures,
		Nodes:    nodes,
	}
}

// HistoryView renders the history result.
func HistoryView(res monitor.HistoryResult, opts Options) api.HistoryViewResponse {
	entries := make([]api.HistoryView, 0, len(res.Entries))
	for _, e := range res.Entries {
		entries = append(entries, api.HistoryView{
			Key:              e.Key,
			JobID:            e.JobID,
			JobIndexName:     e.JobIndexName,
			StartTime:        scheduler.FormatEpoch(e.StartTime, opts.Location),
			EndTime:          scheduler.FormatEpoch(e.EndTime, opts.Location),
			StartEpoch:       e.StartTime,
			EndEpoch:         e.EndTime,
			Duration:         e.Duration,
			CompletionStatus: e.CompletionStatus,
			Status:           e.Status,
		})
	}
	return api.HistoryViewResponse{
		View:    monitor.ViewHistory,
		State:   string(res.ViewState),
		Error:   Error(res.Err),
		JobID:   res.JobID,
		Page:    page(res.State, res.TotalCount, res.Types),
		Entries: entries,
	}
}

func page(state scheduler.QueryState, total int, types []string) api.Page {
	return api.Page{
		TypeFilter:  state.TypeFilter,
		SearchQuery: state.SearchQuery,
		PageIndex:   state.PageIndex,
		PageSize:    state.PageSize,
		TotalCount:  total,
		Types:       types,
	}
}

func scalar(s api.Scalar) string {
	if s.IsAbsent() {
		return scheduler.AbsentTime
	}
	return s.Raw
}
