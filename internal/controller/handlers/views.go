package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"jobwatch/internal/monitor"
	"jobwatch/internal/render"
	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

// MaxPageIndex is the largest accepted ?page= value.
const MaxPageIndex = 1_000_000

// ListJobs handles GET /views/jobs.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	update, err := h.parseQuery(r.URL.Query())
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := h.monitor.AllJobs(update)
	h.respondJson(w, http.StatusOK, render.JobsView(monitor.ViewJobs, res, h.renderOptions()))
}

// ListActiveJobs handles GET /views/jobs/active.
func (h *Handlers) ListActiveJobs(w http.ResponseWriter, r *http.Request) {
	update, err := h.parseQuery(r.URL.Query())
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := h.monitor.ActiveJobs(update)
	h.respondJson(w, http.StatusOK, render.JobsView(monitor.ViewActive, res, h.renderOptions()))
}

// ListNodes handles GET /views/nodes. Query parameters update the state of
// the node named by ?node= only.
func (h *Handlers) ListNodes(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	update, err := h.parseQuery(params)
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := h.monitor.JobsByNode(params.Get("node"), update)
	h.respondJson(w, http.StatusOK, render.NodesView(res, h.renderOptions()))
}

// ListHistory handles GET /views/history.
func (h *Handlers) ListHistory(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	update, err := h.parseQuery(params)
	if err != nil {
		h.httpError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := h.monitor.History(params.Get("job_id"), update)
	h.respondJson(w, http.StatusOK, render.HistoryView(res, h.renderOptions()))
}

// Refresh handles POST /views/refresh. It blocks until every view has
// settled and reports the resulting states.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	states := h.monitor.Refresh(r.Context())

	resp := api.RefreshResponse{States: make(map[string]string, len(states))}
	for view, state := range states {
		resp.States[view] = string(state)
	}
	h.respondJson(w, http.StatusOK, resp)
}

// parseQuery turns type, q, page and size into a state update. Only the
// parameters present are applied. The page is set before the filters so
// that a filter change still returns to the first page.
func (h *Handlers) parseQuery(params url.Values) (monitor.Update, error) {
	var page, size *int
	if params.Has("page") {
		n, err := strconv.Atoi(params.Get("page"))
		if err != nil || n < 0 || n > MaxPageIndex {
			return nil, fmt.Errorf("invalid page: %q (expected 0-%d)", params.Get("page"), MaxPageIndex)
		}
		page = &n
	}
	if params.Has("size") {
		n, err := strconv.Atoi(params.Get("size"))
		if err != nil || n <= 0 || (h.opts.MaxPageSize > 0 && n > h.opts.MaxPageSize) {
			return nil, fmt.Errorf("invalid size: %q (expected 1-%d)", params.Get("size"), h.opts.MaxPageSize)
		}
		size = &n
	}

	return func(s *scheduler.QueryState) {
		if size != nil {
			s.PageSize = *size
		}
		if page != nil {
			s.PageIndex = *page
		}
		if params.Has("type") {
			s.SetTypeFilter(params.Get("type"))
		}
		if params.Has("q") {
			s.SetSearchQuery(params.Get("q"))
		}
	}, nil
}
