package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch/internal/client"
	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

// fakeFetcher returns canned responses; a set error hook fails that call.
type fakeFetcher struct {
	mu sync.Mutex

	jobs    *api.JobsResponse
	locks   *api.LocksResponse
	history *api.HistoryResponse
	nodes   *api.NodesResponse

	jobsErr    error
	locksErr   error
	historyErr error
	nodesErr   error

	calls map[string]int
}

func (f *fakeFetcher) called(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
}

func (f *fakeFetcher) Jobs(context.Context) (*api.JobsResponse, error) {
	f.called("jobs")
	if f.jobsErr != nil {
		return nil, f.jobsErr
	}
	return f.jobs, nil
}

func (f *fakeFetcher) Locks(context.Context) (*api.LocksResponse, error) {
	f.called("locks")
	if f.locksErr != nil {
		return nil, f.locksErr
	}
	return f.locks, nil
}

func (f *fakeFetcher) History(context.Context) (*api.HistoryResponse, error) {
	f.called("history")
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history, nil
}

func (f *fakeFetcher) JobsByNode(context.Context) (*api.NodesResponse, error) {
	f.called("nodes")
	if f.nodesErr != nil {
		return nil, f.nodesErr
	}
	return f.nodes, nil
}

func newJob(id, jobType string, enabled bool, lockDuration api.Scalar) api.Job {
	return api.Job{JobID: id, IndexName: "idx", Name: id, JobType: jobType, Enabled: enabled, LockDuration: lockDuration}
}

func newFetcher() *fakeFetcher {
	jobs := []api.Job{
		newJob("alpha", "cron", true, api.Number(60)),
		newJob("beta", "interval", true, api.String(scheduler.NoLock)),
		newJob("gamma", "cron", false, api.Number(60)),
	}
	return &fakeFetcher{
		jobs: &api.JobsResponse{Jobs: jobs, TotalJobs: 3, Failures: []string{}},
		locks: &api.LocksResponse{Locks: map[string]api.LockRecord{
			"idx-beta": {JobID: "beta", JobIndexName: "idx"},
		}},
		history: &api.HistoryResponse{History: map[string]api.HistoryRecord{
			"h1": {JobID: "alpha", StartTime: 100, EndTime: 110},
			"h2": {JobID: "beta", StartTime: 200, EndTime: 190, CompletionStatus: 1},
			"h3": {JobID: "alpha", StartTime: 300, EndTime: 330},
		}},
		nodes: &api.NodesResponse{Nodes: []api.NodeJobs{
			{NodeID: "n1", NodeName: "data-1", ScheduledJobInfo: &api.ScheduledJobInfo{TotalJobs: 2, Jobs: jobs[:2]}},
			{NodeID: "n2", NodeName: "data-2"},
		}},
	}
}

func newTestMonitor(f Fetcher) *Monitor {
	return New(f, 10, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func jobIDs(rows []scheduler.JobRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Job.JobID)
	}
	return out
}

func TestNew_StartsLoading(t *testing.T) {
	m := newTestMonitor(newFetcher())

	for _, view := range Views {
		assert.Equal(t, scheduler.ViewLoading, m.States()[view], view)
	}
	assert.False(t, m.Ready())

	res := m.AllJobs(nil)
	assert.Equal(t, scheduler.ViewLoading, res.ViewState)
	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{scheduler.AllTypes}, res.Types)
}

func TestRefresh_Ready(t *testing.T) {
	f := newFetcher()
	m := newTestMonitor(f)

	states := m.Refresh(context.Background())

	assert.Equal(t, map[string]scheduler.ViewState{
		ViewJobs:    scheduler.ViewReady,
		ViewActive:  scheduler.ViewReady,
		ViewNodes:   scheduler.ViewReady,
		ViewHistory: scheduler.ViewReady,
	}, states)
	assert.True(t, m.Ready())
	assert.Equal(t, 1, f.calls["jobs"])
	assert.Equal(t, 2, f.calls["locks"], "jobs and nodes views both fetch locks")

	res := m.AllJobs(nil)
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, jobIDs(res.Rows))
	assert.Equal(t, 3, res.TotalJobs)
	assert.NoError(t, res.Err)
}

func TestRefreshJobs_LocksFailureDegrades(t *testing.T) {
	f := newFetcher()
	f.locksErr = &client.APIError{StatusCode: 403, Message: "forbidden"}
	m := newTestMonitor(f)

	state := m.RefreshJobs(context.Background())
	require.Equal(t, scheduler.ViewDegraded, state)
	assert.True(t, m.Ready())

	res := m.ActiveJobs(nil)
	assert.Equal(t, scheduler.ViewDegraded, res.ViewState)
	assert.NoError(t, res.Err, "degraded views carry no error")
	require.Equal(t, []string{"alpha"}, jobIDs(res.Rows), "heuristic: enabled and takes locks")
	assert.True(t, res.Rows[0].Status.Approximate)
}

func TestRefreshJobs_JobsFailureFails(t *testing.T) {
	f := newFetcher()
	upstream := &client.APIError{StatusCode: 503, Message: "cluster unavailable"}
	f.jobsErr = upstream
	m := newTestMonitor(f)

	state := m.RefreshJobs(context.Background())
	require.Equal(t, scheduler.ViewFailed, state)
	assert.False(t, m.Ready())

	res := m.AllJobs(nil)
	assert.Equal(t, scheduler.ViewFailed, res.ViewState)
	var apiErr *client.APIError
	require.True(t, errors.As(res.Err, &apiErr))
	assert.Equal(t, 503, apiErr.StatusCode)
	assert.Equal(t, "cluster unavailable", apiErr.Message)
	assert.Empty(t, res.Rows)
}

func TestRefreshJobs_RecoverAfterFailure(t *testing.T) {
	f := newFetcher()
	f.jobsErr = errors.New("boom")
	m := newTestMonitor(f)

	require.Equal(t, scheduler.ViewFailed, m.RefreshJobs(context.Background()))

	f.jobsErr = nil
	require.Equal(t, scheduler.ViewReady, m.RefreshJobs(context.Background()))
	assert.Len(t, m.AllJobs(nil).Rows, 3)
}

func TestActiveJobs_UsesLocks(t *testing.T) {
	m := newTestMonitor(newFetcher())
	m.RefreshJobs(context.Background())

	res := m.ActiveJobs(nil)
	assert.Equal(t, []string{"beta"}, jobIDs(res.Rows))
	assert.False(t, res.Rows[0].Status.Approximate)
	assert.Equal(t, []string{scheduler.AllTypes, "interval"}, res.Types)
}

func TestAllJobs_StateIsKeptBetweenQueries(t *testing.T) {
	m := newTestMonitor(newFetcher())
	m.RefreshJobs(context.Background())

	res := m.AllJobs(func(s *scheduler.QueryState) { s.SetTypeFilter("cron") })
	assert.Equal(t, []string{"alpha", "gamma"}, jobIDs(res.Rows))

	res = m.AllJobs(nil)
	assert.Equal(t, "cron", res.State.TypeFilter)
	assert.Equal(t, 2, res.TotalCount)

	// The active view has its own state.
	active := m.ActiveJobs(nil)
	assert.Equal(t, scheduler.AllTypes, active.State.TypeFilter)
}

func TestAllJobs_FilterChangeResetsPage(t *testing.T) {
	m := newTestMonitor(newFetcher())
	m.RefreshJobs(context.Background())

	res := m.AllJobs(func(s *scheduler.QueryState) { s.PageSize = 1; s.PageIndex = 2 })
	assert.Equal(t, []string{"gamma"}, jobIDs(res.Rows))

	res = m.AllJobs(func(s *scheduler.QueryState) { s.SetSearchQuery("alpha") })
	assert.Equal(t, 0, res.State.PageIndex)
	assert.Equal(t, []string{"alpha"}, jobIDs(res.Rows))
}

func TestJobsByNode_IndependentStates(t *testing.T) {
	m := newTestMonitor(newFetcher())
	require.Equal(t, scheduler.ViewReady, m.RefreshNodes(context.Background()))

	res := m.JobsByNode("n1", func(s *scheduler.QueryState) { s.SetSearchQuery("beta") })
	require.Len(t, res.Nodes, 2)

	n1, n2 := res.Nodes[0], res.Nodes[1]
	assert.Equal(t, []string{"beta"}, jobIDs(n1.Rows))
	assert.Equal(t, "beta", n1.State.SearchQuery)
	assert.Equal(t, 2, n1.TotalJobs)

	assert.True(t, n2.Unavailable)
	assert.Empty(t, n2.Rows)
	assert.Equal(t, "", n2.State.SearchQuery)

	// Querying without a node leaves the stored state untouched.
	res = m.JobsByNode("", nil)
	assert.Equal(t, "beta", res.Nodes[0].State.SearchQuery)
}

func TestRefreshNodes_PrunesVanishedNodes(t *testing.T) {
	f := newFetcher()
	m := newTestMonitor(f)
	m.RefreshNodes(context.Background())
	m.JobsByNode("n1", func(s *scheduler.QueryState) { s.SetSearchQuery("beta") })

	f.nodes = &api.NodesResponse{Nodes: []api.NodeJobs{{NodeID: "n2"}}}
	m.RefreshNodes(context.Background())
	assert.NotContains(t, m.nodeStates.Keys(), "n1")

	f.nodes = newFetcher().nodes
	m.RefreshNodes(context.Background())
	res := m.JobsByNode("", nil)
	assert.Equal(t, "", res.Nodes[0].State.SearchQuery, "n1 starts over with a fresh state")
}

func TestJobsByNode_UnknownNodeKeepsNoState(t *testing.T) {
	m := newTestMonitor(newFetcher())
	m.RefreshNodes(context.Background())

	for _, id := range []string{"n9", "n10", "n11"} {
		res := m.JobsByNode(id, func(s *scheduler.QueryState) { s.SetSearchQuery("x") })
		assert.Len(t, res.Nodes, 2)
	}
	assert.Equal(t, []string{"n1", "n2"}, m.nodeStates.Keys())
}

func TestRefreshNodes_Failure(t *testing.T) {
	f := newFetcher()
	f.nodesErr = errors.New("no route to host")
	m := newTestMonitor(f)

	assert.Equal(t, scheduler.ViewFailed, m.RefreshNodes(context.Background()))
	res := m.JobsByNode("", nil)
	assert.Empty(t, res.Nodes)
	assert.EqualError(t, res.Err, "no route to host")
}

func TestHistory(t *testing.T) {
	m := newTestMonitor(newFetcher())
	require.Equal(t, scheduler.ViewReady, m.RefreshHistory(context.Background()))

	res := m.History("", nil)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, []string{"h3", "h2", "h1"}, []string{res.Entries[0].Key, res.Entries[1].Key, res.Entries[2].Key})
	assert.Equal(t, int64(-10), res.Entries[1].Duration)

	res = m.History("alpha", nil)
	assert.Equal(t, "alpha", res.JobID)
	assert.Equal(t, 2, res.TotalCount)

	res = m.History("", func(s *scheduler.QueryState) { s.SetTypeFilter(scheduler.HistoryFailed) })
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "h2", res.Entries[0].Key)

	// Per-job history keeps its own state.
	res = m.History("alpha", nil)
	assert.Equal(t, scheduler.AllTypes, res.State.TypeFilter)
}

func TestHistory_UnknownJobKeepsNoState(t *testing.T) {
	m := newTestMonitor(newFetcher())
	m.RefreshHistory(context.Background())

	res := m.History("nope", func(s *scheduler.QueryState) { s.SetSearchQuery("x") })
	assert.Empty(t, res.Entries)
	assert.Equal(t, "x", res.State.SearchQuery)
	assert.NotContains(t, m.states.Keys(), "history/nope")
}

func TestRefreshHistory_PrunesVanishedJobs(t *testing.T) {
	f := newFetcher()
	m := newTestMonitor(f)
	m.RefreshHistory(context.Background())

	m.History("alpha", func(s *scheduler.QueryState) { s.SetSearchQuery("h3") })
	m.History("beta", func(s *scheduler.QueryState) { s.SetSearchQuery("h2") })
	require.Contains(t, m.states.Keys(), "history/alpha")

	f.history = &api.HistoryResponse{History: map[string]api.HistoryRecord{
		"h2": {JobID: "beta", StartTime: 200, EndTime: 190, CompletionStatus: 1},
	}}
	m.RefreshHistory(context.Background())
	keys := m.states.Keys()
	assert.NotContains(t, keys, "history/alpha")
	assert.Contains(t, keys, "history/beta")

	f.historyErr = errors.New("timeout")
	m.RefreshHistory(context.Background())
	assert.NotContains(t, m.states.Keys(), "history/beta")
}

func TestHistory_Failure(t *testing.T) {
	f := newFetcher()
	f.historyErr = errors.New("timeout")
	m := newTestMonitor(f)

	assert.Equal(t, scheduler.ViewFailed, m.RefreshHistory(context.Background()))
	res := m.History("", nil)
	assert.Equal(t, scheduler.ViewFailed, res.ViewState)
	assert.NotNil(t, res.Entries)
	assert.Empty(t, res.Entries)
}

func TestRefresh_ConcurrentCallsAreSafe(t *testing.T) {
	m := newTestMonitor(newFetcher())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			m.Refresh(context.Background())
		}()
		go func() {
			defer wg.Done()
			m.AllJobs(func(s *scheduler.QueryState) { s.SetSearchQuery("a") })
			m.JobsByNode("n1", nil)
			m.History("", nil)
		}()
	}
	wg.Wait()

	for view, state := range m.States() {
		assert.Equal(t, scheduler.ViewReady, state, view)
	}
}
