package monitor

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"jobwatch/internal/scheduler"
)

var allStates = []scheduler.ViewState{
	scheduler.ViewLoading,
	scheduler.ViewReady,
	scheduler.ViewDegraded,
	scheduler.ViewFailed,
}

type viewMetrics struct {
	refreshes metric.Int64Counter
}

// newViewMetrics registers the refresh counter and an observable gauge that
// reports 1 for the current state of each view and 0 for the others.
func newViewMetrics(m *Monitor, log *slog.Logger) *viewMetrics {
	meter := otel.Meter("jobwatch/internal/monitor")

	refreshes, err := meter.Int64Counter("jobwatch.view.refreshes",
		metric.WithDescription("Completed view refreshes by resulting state"))
	if err != nil {
		log.Warn("failed to register refresh counter", "error", err)
	}

	_, err = meter.Int64ObservableGauge("jobwatch.view.state",
		metric.WithDescription("Current state of each view (1 = active state)"),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			for view, current := range m.States() {
				for _, s := range allStates {
					var v int64
					if s == current {
						v = 1
					}
					obs.Observe(v, metric.WithAttributes(
						attribute.String("view", view),
						attribute.String("state", string(s)),
					))
				}
			}
			return nil
		}),
	)
	if err != nil {
		log.Warn("failed to register view state gauge", "error", err)
	}

	return &viewMetrics{refreshes: refreshes}
}

func (v *viewMetrics) refreshed(ctx context.Context, view string, state scheduler.ViewState) {
	if v.refreshes == nil {
		return
	}
	v.refreshes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("view", view),
		attribute.String("state", string(state)),
	))
}
