package telemetry

import (
	"context"
	"errors"

	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const stockMeterName = "github.com/printshop/backend/stock"

var _ appstock.MetricsRecorder = (*StockMetrics)(nil)

// LowStockSource reports how many materials sit below their min_stock_base.
type LowStockSource interface {
	ControlSummary(ctx context.Context) (*appstock.ControlSummaryResponse, error)
}

// StockMetrics records stock business counters.
type StockMetrics struct {
	purchasesPosted   *Counter
	lotsCreated       *Counter
	writeoffsCreated  *Counter
	writeoffCost      *Histogram
	insufficientStock *Counter
	contentionRetries *Counter
	discrepancies     metric.Int64Gauge

	lowStock     metric.Int64ObservableGauge
	registration metric.Registration
	logger       *zap.Logger
}

// NewStockMetrics creates the stock instruments on meter.
func NewStockMetrics(meter metric.Meter, logger *zap.Logger) (*StockMetrics, error) {
	if meter == nil {
		return nil, errors.New("NewStockMetrics: meter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &StockMetrics{logger: logger}

	var err error
	if m.purchasesPosted, err = NewCounter(meter, "stock_purchases_posted_total",
		"Purchase documents moved from DRAFT to POSTED", "{document}"); err != nil {
		return nil, err
	}
	if m.lotsCreated, err = NewCounter(meter, "stock_lots_created_total",
		"Lots opened by posted purchases", "{lot}"); err != nil {
		return nil, err
	}
	if m.writeoffsCreated, err = NewCounter(meter, "stock_writeoffs_created_total",
		"Committed write-off documents", "{document}"); err != nil {
		return nil, err
	}
	if m.writeoffCost, err = NewHistogram(meter, HistogramOpts{
		Name:        "stock_writeoff_cost",
		Description: "FIFO cost of committed write-offs",
		Unit:        "{currency}",
		Boundaries:  []float64{10, 50, 100, 500, 1000, 5000, 10000, 50000},
	}); err != nil {
		return nil, err
	}
	if m.insufficientStock, err = NewCounter(meter, "stock_insufficient_total",
		"Write-offs rejected for lack of stock", "{request}"); err != nil {
		return nil, err
	}
	if m.contentionRetries, err = NewCounter(meter, "stock_contention_retries_total",
		"Write-off attempts repeated after losing a lot race", "{attempt}"); err != nil {
		return nil, err
	}
	if m.discrepancies, err = meter.Int64Gauge("stock_ledger_discrepancies",
		metric.WithDescription("Lots whose remainder disagrees with the movement ledger at the last reconcile"),
		metric.WithUnit("{lot}")); err != nil {
		return nil, err
	}
	if m.lowStock, err = meter.Int64ObservableGauge("stock_low_stock_materials",
		metric.WithDescription("Active materials below their minimum stock"),
		metric.WithUnit("{material}")); err != nil {
		return nil, err
	}
	return m, nil
}

// PurchasePosted counts a posted purchase and the lots it opened.
func (m *StockMetrics) PurchasePosted(ctx context.Context, lots int) {
	m.purchasesPosted.Inc(ctx)
	m.lotsCreated.Add(ctx, int64(lots))
}

// WriteoffCreated counts a committed write-off and records its cost.
func (m *StockMetrics) WriteoffCreated(ctx context.Context, reason string, cost decimal.Decimal) {
	m.writeoffsCreated.Inc(ctx, AttrReason.String(reason))
	m.writeoffCost.Record(ctx, cost.InexactFloat64(), AttrReason.String(reason))
}

// InsufficientStock counts a rejected write-off.
func (m *StockMetrics) InsufficientStock(ctx context.Context) {
	m.insufficientStock.Inc(ctx)
}

// ContentionRetry counts a repeated write-off attempt.
func (m *StockMetrics) ContentionRetry(ctx context.Context, attempt int) {
	m.contentionRetries.Inc(ctx, AttrAttempt.Int(attempt))
}

// LedgerDiscrepancies records the discrepancy count of the latest reconcile run.
func (m *StockMetrics) LedgerDiscrepancies(ctx context.Context, count int) {
	m.discrepancies.Record(ctx, int64(count))
}

// ObserveLowStock reports the low-stock count from src at every collection.
func (m *StockMetrics) ObserveLowStock(meter metric.Meter, src LowStockSource) error {
	reg, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		summary, err := src.ControlSummary(ctx)
		if err != nil {
			m.logger.Warn("Failed to collect low stock count", zap.Error(err))
			return nil
		}
		o.ObserveInt64(m.lowStock, int64(summary.LowStockCount))
		return nil
	}, m.lowStock)
	if err != nil {
		return err
	}
	m.registration = reg
	return nil
}

// Stop unregisters the low-stock callback.
func (m *StockMetrics) Stop() {
	if m.registration != nil {
		if err := m.registration.Unregister(); err != nil {
			m.logger.Warn("Failed to unregister stock metrics callback", zap.Error(err))
		}
		m.registration = nil
	}
}
