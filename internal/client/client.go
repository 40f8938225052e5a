// Package client talks to the job scheduler REST API.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"jobwatch/pkg/api"
)

// Scheduler REST endpoints.
const (
	JobsPath       = "/_plugins/_job_scheduler/api/jobs"
	LocksPath      = "/_plugins/_job_scheduler/api/locks"
	HistoryPath    = "/_plugins/_job_scheduler/api/history"
	JobsByNodePath = "/_plugins/_job_scheduler/api/jobs?by_node=true"
)

const instrumentationName = "jobwatch/internal/client"

// ErrMalformedPayload is returned when a 2xx response body is not the
// expected JSON document.
var ErrMalformedPayload = errors.New("malformed payload")

// APIError represents a failed request to the scheduler. StatusCode is the
// upstream status, or 500 when no response was received.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// SchedulerClient handles API calls to the scheduler service.
type SchedulerClient struct {
	BaseURL    string
	HTTPClient *http.Client

	tracer   trace.Tracer
	fetches  metric.Int64Counter
	failures metric.Int64Counter
	latency  metric.Float64Histogram
}

// New creates a client for the scheduler at baseURL. The timeout applies to
// the HTTP transport only.
func New(baseURL string, timeout time.Duration) *SchedulerClient {
	c := &SchedulerClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		tracer: otel.Tracer(instrumentationName),
	}

	meter := otel.Meter(instrumentationName)
	c.fetches, _ = meter.Int64Counter("jobwatch.scheduler.fetches",
		metric.WithDescription("Requests sent to the scheduler"))
	c.failures, _ = meter.Int64Counter("jobwatch.scheduler.fetch_failures",
		metric.WithDescription("Scheduler requests that failed"))
	c.latency, _ = meter.Float64Histogram("jobwatch.scheduler.fetch_duration",
		metric.WithDescription("Scheduler request latency"),
		metric.WithUnit("s"))
	return c
}

// Jobs fetches every scheduled job.
func (c *SchedulerClient) Jobs(ctx context.Context) (*api.JobsResponse, error) {
	var result api.JobsResponse
	if err := c.getJSON(ctx, "jobs", JobsPath, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Locks fetches the lock table.
func (c *SchedulerClient) Locks(ctx context.Context) (*api.LocksResponse, error) {
	var result api.LocksResponse
	if err := c.getJSON(ctx, "locks", LocksPath, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// History fetches the raw execution history.
func (c *SchedulerClient) History(ctx context.Context) (*api.HistoryResponse, error) {
	var result api.HistoryResponse
	if err := c.getJSON(ctx, "history", HistoryPath, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// JobsByNode fetches the jobs grouped by the node that schedules them.
func (c *SchedulerClient) JobsByNode(ctx context.Context) (*api.NodesResponse, error) {
	var result api.NodesResponse
	if err := c.getJSON(ctx, "jobs_by_node", JobsByNodePath, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Raw fetches path and returns the body untouched.
func (c *SchedulerClient) Raw(ctx context.Context, path string) ([]byte, error) {
	return c.get(ctx, "raw", path)
}

func (c *SchedulerClient) getJSON(ctx context.Context, endpoint, path string, out any) error {
	body, err := c.get(ctx, endpoint, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
		return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, endpoint, err)
	}
	return nil
}

func (c *SchedulerClient) get(ctx context.Context, endpoint, path string) (body []byte, err error) {
	ctx, span := c.tracer.Start(ctx, "scheduler."+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.path", path)))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	start := time.Now()
	defer func() {
		c.fetches.Add(ctx, 1, attrs)
		c.latency.Record(ctx, time.Since(start).Seconds(), attrs)
		if err != nil {
			c.failures.Add(ctx, 1, attrs)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Accept", "application/json")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &APIError{StatusCode: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{StatusCode: http.StatusInternalServerError, Message: err.Error(), Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	return respBody, nil
}
