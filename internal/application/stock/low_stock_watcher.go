package stock

import (
	"context"

	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// LowStockWatcher warns when a write-off leaves a material below its
// min_stock_base threshold
type LowStockWatcher struct {
	materialRepo stock.MaterialRepository
	lotRepo      stock.LotRepository
	logger       *zap.Logger
}

// NewLowStockWatcher creates a new LowStockWatcher
func NewLowStockWatcher(materialRepo stock.MaterialRepository, lotRepo stock.LotRepository, logger *zap.Logger) *LowStockWatcher {
	return &LowStockWatcher{
		materialRepo: materialRepo,
		lotRepo:      lotRepo,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (w *LowStockWatcher) EventTypes() []string {
	return []string{stock.EventTypeWriteoffCreated}
}

// Handle checks the materials touched by a write-off
func (w *LowStockWatcher) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*stock.WriteoffCreatedEvent)
	if !ok {
		return nil
	}
	materials, err := w.materialRepo.FindByIDs(ctx, e.Materials)
	if err != nil {
		return err
	}
	list := make([]*stock.Material, 0, len(materials))
	for _, id := range e.Materials {
		if m, ok := materials[id]; ok {
			list = append(list, m)
		}
	}
	low, err := lowStock(ctx, w.lotRepo, list)
	if err != nil {
		return err
	}
	for _, item := range low {
		w.logger.Warn("material below minimum stock",
			zap.String("material_id", item.MaterialID.String()),
			zap.String("material", item.MaterialName),
			zap.String("on_hand", item.OnHand.String()),
			zap.String("min_stock", item.MinStock.String()),
			zap.String("writeoff_id", e.DocumentID.String()))
	}
	return nil
}

var _ shared.EventHandler = (*LowStockWatcher)(nil)
