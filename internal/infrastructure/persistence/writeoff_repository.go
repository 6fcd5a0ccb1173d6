package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/printshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormWriteoffRepository implements WriteoffRepository using GORM.
// Allocations are not a table of their own: they are read back from the
// CONSUMPTION movements that reference the write-off line.
type GormWriteoffRepository struct {
	db *gorm.DB
}

// NewGormWriteoffRepository creates a new GormWriteoffRepository
func NewGormWriteoffRepository(db *gorm.DB) *GormWriteoffRepository {
	return &GormWriteoffRepository{db: db}
}

// FindByID finds a write-off with its lines and lot allocations
func (r *GormWriteoffRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.WriteoffDocument, error) {
	var model models.WriteoffDocumentModel
	if err := r.db.WithContext(ctx).Preload("Lines", orderedLines).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	doc := model.ToDomain()
	if err := r.loadAllocations(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *GormWriteoffRepository) loadAllocations(ctx context.Context, doc *stock.WriteoffDocument) error {
	movements, err := NewGormMovementRepository(r.db).findConsumptionByRef(ctx, doc.ID)
	if err != nil {
		return err
	}
	if len(movements) == 0 {
		return nil
	}

	lotIDs := make([]uuid.UUID, 0, len(movements))
	for _, mv := range movements {
		if mv.LotID != nil {
			lotIDs = append(lotIDs, *mv.LotID)
		}
	}
	var lotRows []models.LotModel
	if err := r.db.WithContext(ctx).Select("id", "created_at").Where("id IN ?", lotIDs).Find(&lotRows).Error; err != nil {
		return err
	}
	lots := make(map[uuid.UUID]*stock.Lot, len(lotRows))
	for i := range lotRows {
		lots[lotRows[i].ID] = lotRows[i].ToDomain()
	}

	byLine := make(map[uuid.UUID][]stock.Allocation)
	order := make(map[uuid.UUID][]*stock.Lot)
	for _, mv := range movements {
		if mv.LotID == nil {
			continue
		}
		qty := mv.Qty.Neg()
		byLine[mv.RefLineID] = append(byLine[mv.RefLineID], stock.Allocation{
			LotID:    *mv.LotID,
			Qty:      qty,
			UnitCost: mv.UnitCost,
			Cost:     qty.Mul(mv.UnitCost).Round(stock.AmountScale),
		})
		order[mv.RefLineID] = append(order[mv.RefLineID], lots[*mv.LotID])
	}

	for i := range doc.Lines {
		line := &doc.Lines[i]
		allocs := byLine[line.ID]
		lineLots := order[line.ID]
		idx := make([]int, len(allocs))
		for k := range idx {
			idx[k] = k
		}
		sort.SliceStable(idx, func(a, b int) bool {
			la, lb := lineLots[idx[a]], lineLots[idx[b]]
			if la == nil || lb == nil {
				return false
			}
			return la.Before(lb)
		})
		sorted := make([]stock.Allocation, len(allocs))
		for k, j := range idx {
			sorted[k] = allocs[j]
		}
		line.Allocations = sorted
	}
	return nil
}

// FindAll returns a page of write-offs, newest first. Allocations are not loaded.
func (r *GormWriteoffRepository) FindAll(ctx context.Context, filter stock.WriteoffFilter) ([]stock.WriteoffDocument, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.WriteoffDocumentModel{})
	if filter.Reason != "" {
		query = query.Where("reason = ?", string(filter.Reason))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WriteoffDocumentModel
	err := query.Preload("Lines", orderedLines).
		Order(orderClause(filter.Filter, WriteoffSortFields, "created_at", "DESC")).
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	docs := make([]stock.WriteoffDocument, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, total, nil
}

// Create inserts a write-off document with its lines
func (r *GormWriteoffRepository) Create(ctx context.Context, doc *stock.WriteoffDocument) error {
	return classifyError(r.db.WithContext(ctx).Create(models.WriteoffDocumentModelFromDomain(doc)).Error)
}

// Ensure GormWriteoffRepository implements WriteoffRepository
var _ stock.WriteoffRepository = (*GormWriteoffRepository)(nil)
