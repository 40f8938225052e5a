// Package handlers contains HTTP handlers for the monitor API.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"jobwatch/internal/monitor"
	"jobwatch/internal/render"
	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

// Monitor is the view lifecycle the handlers query. *monitor.Monitor
// implements it.
type Monitor interface {
	Refresh(ctx context.Context) map[string]scheduler.ViewState
	Ready() bool
	AllJobs(update monitor.Update) monitor.JobsResult
	ActiveJobs(update monitor.Update) monitor.JobsResult
	JobsByNode(nodeID string, update monitor.Update) monitor.NodesResult
	History(jobID string, update monitor.Update) monitor.HistoryResult
}

// Upstream forwards raw requests to the scheduler. *client.SchedulerClient
// implements it.
type Upstream interface {
	Raw(ctx context.Context, path string) ([]byte, error)
}

// Options configures response rendering and parameter limits.
type Options struct {
	MaxPageSize int
	Location    *time.Location
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	monitor  Monitor
	upstream Upstream
	opts     Options
	log      *slog.Logger
	now      func() time.Time
}

// New creates a new Handlers instance.
func New(m Monitor, upstream Upstream, opts Options, log *slog.Logger) *Handlers {
	return &Handlers{
		monitor:  m,
		upstream: upstream,
		opts:     opts,
		log:      log,
		now:      time.Now,
	}
}

func (h *Handlers) renderOptions() render.Options {
	return render.Options{Location: h.opts.Location, Now: h.now()}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
