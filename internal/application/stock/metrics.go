package stock

import (
	"context"

	"github.com/shopspring/decimal"
)

// MetricsRecorder receives business counters from the stock services.
// The telemetry package provides the OpenTelemetry implementation.
type MetricsRecorder interface {
	PurchasePosted(ctx context.Context, lots int)
	WriteoffCreated(ctx context.Context, reason string, cost decimal.Decimal)
	InsufficientStock(ctx context.Context)
	ContentionRetry(ctx context.Context, attempt int)
}

type noopRecorder struct{}

func (noopRecorder) PurchasePosted(context.Context, int)                      {}
func (noopRecorder) WriteoffCreated(context.Context, string, decimal.Decimal) {}
func (noopRecorder) InsufficientStock(context.Context)                        {}
func (noopRecorder) ContentionRetry(context.Context, int)                     {}

// NoopMetricsRecorder returns a recorder that drops everything
func NoopMetricsRecorder() MetricsRecorder {
	return noopRecorder{}
}
