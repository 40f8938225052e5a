package handlers

import (
	"net/http"
)

// Healthz is a liveness probe.
// It returns 200 OK if the server is running.
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	h.respondJson(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Readyz is a readiness probe.
// It reports ready once the last jobs refresh succeeded, degraded included.
// It does not call the scheduler itself.
func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	if !h.monitor.Ready() {
		h.httpError(w, "Scheduler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.respondJson(w, http.StatusOK, map[string]string{"status": "ready"})
}
