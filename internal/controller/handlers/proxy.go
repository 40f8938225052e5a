package handlers

import (
	"net/http"

	"jobwatch/internal/client"
	"jobwatch/internal/render"
	"jobwatch/pkg/api"
)

// isoMillis matches the scheduler UI's ISO-8601 timestamps.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Time handles GET /api/time.
func (h *Handlers) Time(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, api.TimeResponse{Time: h.now().UTC().Format(isoMillis)})
}

// ProxyJobs handles GET /api/jobs.
func (h *Handlers) ProxyJobs(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, client.JobsPath)
}

// ProxyLocks handles GET /api/locks.
func (h *Handlers) ProxyLocks(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, client.LocksPath)
}

// ProxyHistory handles GET /api/history.
func (h *Handlers) ProxyHistory(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, client.HistoryPath)
}

// ProxyJobsByNode handles GET /api/jobs/by_node.
func (h *Handlers) ProxyJobsByNode(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, client.JobsByNodePath)
}

// proxy forwards the scheduler body untouched. Failures answer with the
// upstream status (500 when there was none) and message.
func (h *Handlers) proxy(w http.ResponseWriter, r *http.Request, path string) {
	body, err := h.upstream.Raw(r.Context(), path)
	if err != nil {
		h.log.WarnContext(r.Context(), "scheduler request failed", "path", path, "error", err)
		h.respondJson(w, render.StatusCode(err), render.Error(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
