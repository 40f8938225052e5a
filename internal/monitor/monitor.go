// Package monitor owns the lifecycle of the scheduler views: it fetches the
// scheduler state, tracks each view's Loading/Ready/Degraded/Failed state and
// answers queries against the last fetched snapshot.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

// Fetcher reads the scheduler state. *client.SchedulerClient implements it.
type Fetcher interface {
	Jobs(ctx context.Context) (*api.JobsResponse, error)
	Locks(ctx context.Context) (*api.LocksResponse, error)
	History(ctx context.Context) (*api.HistoryResponse, error)
	JobsByNode(ctx context.Context) (*api.NodesResponse, error)
}

// View names. They double as StateStore keys.
const (
	ViewJobs    = "jobs"
	ViewActive  = "active"
	ViewNodes   = "nodes"
	ViewHistory = "history"
)

// Views lists every view in display order.
var Views = []string{ViewJobs, ViewActive, ViewNodes, ViewHistory}

type jobsSnapshot struct {
	state     scheduler.ViewState
	err       error
	jobs      []api.Job
	failures  []string
	totalJobs int
	locks     scheduler.LockSnapshot
	locksErr  error
}

type nodesSnapshot struct {
	state    scheduler.ViewState
	err      error
	nodes    []api.NodeJobs
	failures []string
	locks    scheduler.LockSnapshot
	locksErr error
}

type historySnapshot struct {
	state scheduler.ViewState
	err   error
	raw   map[string]api.HistoryRecord
}

// Monitor holds the latest snapshot of every view plus the query state of
// each one. It is safe for concurrent use.
type Monitor struct {
	fetcher Fetcher
	log     *slog.Logger

	mu      sync.RWMutex
	jobs    jobsSnapshot
	nodes   nodesSnapshot
	history historySnapshot

	states     *scheduler.StateStore
	nodeStates *scheduler.StateStore

	metrics *viewMetrics
}

// New creates a monitor with every view in the Loading state. Nothing is
// fetched until Refresh is called.
func New(fetcher Fetcher, pageSize int, log *slog.Logger) *Monitor {
	m := &Monitor{
		fetcher:    fetcher,
		log:        log,
		jobs:       jobsSnapshot{state: scheduler.ViewLoading},
		nodes:      nodesSnapshot{state: scheduler.ViewLoading},
		history:    historySnapshot{state: scheduler.ViewLoading},
		states:     scheduler.NewStateStore(pageSize),
		nodeStates: scheduler.NewStateStore(pageSize),
	}
	m.metrics = newViewMetrics(m, log)
	return m
}

// Refresh re-fetches every view concurrently and returns the resulting
// states. Failures are recorded in the views, never returned.
func (m *Monitor) Refresh(ctx context.Context) map[string]scheduler.ViewState {
	var g errgroup.Group
	g.Go(func() error { m.RefreshJobs(ctx); return nil })
	g.Go(func() error { m.RefreshNodes(ctx); return nil })
	g.Go(func() error { m.RefreshHistory(ctx); return nil })
	_ = g.Wait()
	return m.States()
}

// RefreshJobs re-fetches jobs and locks concurrently for the All Jobs and
// Active Jobs views. A lock failure degrades the views; a jobs failure fails
// them.
func (m *Monitor) RefreshJobs(ctx context.Context) scheduler.ViewState {
	m.mu.Lock()
	m.jobs.state = scheduler.ViewLoading
	m.mu.Unlock()

	var (
		jobsResp *api.JobsResponse
		locks    scheduler.LockSnapshot
		locksErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := m.fetcher.Jobs(gctx)
		if err != nil {
			return err
		}
		jobsResp = resp
		return nil
	})
	g.Go(func() error {
		locks, locksErr = m.fetchLocks(gctx)
		return nil
	})
	err := g.Wait()

	snap := jobsSnapshot{locks: locks, locksErr: locksErr}
	switch {
	case err != nil:
		snap.state, snap.err = scheduler.ViewFailed, err
	case locksErr != nil:
		snap.state = scheduler.ViewDegraded
	default:
		snap.state = scheduler.ViewReady
	}
	if jobsResp != nil {
		snap.jobs = jobsResp.Jobs
		snap.failures = jobsResp.Failures
		snap.totalJobs = jobsResp.TotalJobs
	}

	m.mu.Lock()
	m.jobs = snap
	m.mu.Unlock()

	m.logRefresh(ctx, ViewJobs, snap.state, snap.err, snap.locksErr)
	return snap.state
}

// RefreshNodes re-fetches the by-node view together with the lock table.
// Query states of nodes that are no longer reported are dropped.
func (m *Monitor) RefreshNodes(ctx context.Context) scheduler.ViewState {
	m.mu.Lock()
	m.nodes.state = scheduler.ViewLoading
	m.mu.Unlock()

	var (
		nodesResp *api.NodesResponse
		locks     scheduler.LockSnapshot
		locksErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := m.fetcher.JobsByNode(gctx)
		if err != nil {
			return err
		}
		nodesResp = resp
		return nil
	})
	g.Go(func() error {
		locks, locksErr = m.fetchLocks(gctx)
		return nil
	})
	err := g.Wait()

	snap := nodesSnapshot{locks: locks, locksErr: locksErr}
	switch {
	case err != nil:
		snap.state, snap.err = scheduler.ViewFailed, err
	case locksErr != nil:
		snap.state = scheduler.ViewDegraded
	default:
		snap.state = scheduler.ViewReady
	}
	if nodesResp != nil {
		snap.nodes = nodesResp.Nodes
		snap.failures = nodesResp.Failures
		m.pruneNodeStates(nodesResp.Nodes)
	}

	m.mu.Lock()
	m.nodes = snap
	m.mu.Unlock()

	m.logRefresh(ctx, ViewNodes, snap.state, snap.err, snap.locksErr)
	return snap.state
}

// RefreshHistory re-fetches the execution history.
func (m *Monitor) RefreshHistory(ctx context.Context) scheduler.ViewState {
	m.mu.Lock()
	m.history.state = scheduler.ViewLoading
	m.mu.Unlock()

	snap := historySnapshot{state: scheduler.ViewReady}
	resp, err := m.fetcher.History(ctx)
	if err != nil {
		snap.state, snap.err = scheduler.ViewFailed, err
	} else {
		snap.raw = resp.History
	}
	m.pruneHistoryStates(snap.raw)

	m.mu.Lock()
	m.history = snap
	m.mu.Unlock()

	m.logRefresh(ctx, ViewHistory, snap.state, snap.err, nil)
	return snap.state
}

// States returns the current state of every view.
func (m *Monitor) States() map[string]scheduler.ViewState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]scheduler.ViewState{
		ViewJobs:    m.jobs.state,
		ViewActive:  m.jobs.state,
		ViewNodes:   m.nodes.state,
		ViewHistory: m.history.state,
	}
}

// Ready reports whether at least one fetch of the jobs view succeeded.
func (m *Monitor) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs.state == scheduler.ViewReady || m.jobs.state == scheduler.ViewDegraded
}

func (m *Monitor) fetchLocks(ctx context.Context) (scheduler.LockSnapshot, error) {
	resp, err := m.fetcher.Locks(ctx)
	if err != nil {
		return scheduler.NoLocks(), fmt.Errorf("%w: %w", scheduler.ErrLocksUnavailable, err)
	}
	return scheduler.Locks(resp.Locks), nil
}

func (m *Monitor) pruneNodeStates(nodes []api.NodeJobs) {
	live := make([]string, 0, len(nodes))
	for _, n := range nodes {
		live = append(live, n.NodeID)
	}
	for _, key := range m.nodeStates.Keys() {
		if !slices.Contains(live, key) {
			m.nodeStates.Delete(key)
		}
	}
}

// pruneHistoryStates drops per-job history states of jobs no longer in the
// history. A failed fetch drops them all.
func (m *Monitor) pruneHistoryStates(raw map[string]api.HistoryRecord) {
	prefix := historyKey("")
	for _, key := range m.states.Keys() {
		jobID, ok := strings.CutPrefix(key, prefix)
		if ok && !hasHistory(raw, jobID) {
			m.states.Delete(key)
		}
	}
}

func (m *Monitor) logRefresh(ctx context.Context, view string, state scheduler.ViewState, err, locksErr error) {
	switch {
	case err != nil:
		m.log.ErrorContext(ctx, "view refresh failed", "view", view, "error", err)
	case locksErr != nil:
		m.log.WarnContext(ctx, "lock table unavailable, statuses are approximate", "view", view, "error", locksErr)
	default:
		m.log.DebugContext(ctx, "view refreshed", "view", view, "state", state)
	}
	m.metrics.refreshed(ctx, view, state)
}
