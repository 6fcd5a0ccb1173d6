package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/printshop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLotRepository implements LotRepository using GORM
type GormLotRepository struct {
	db *gorm.DB
}

// NewGormLotRepository creates a new GormLotRepository
func NewGormLotRepository(db *gorm.DB) *GormLotRepository {
	return &GormLotRepository{db: db}
}

// FindByID finds a lot by its ID
func (r *GormLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Lot, error) {
	var model models.LotModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns lots in FIFO order (created_at, id)
func (r *GormLotRepository) FindAll(ctx context.Context, filter stock.LotFilter) ([]stock.Lot, error) {
	query := r.db.WithContext(ctx).Model(&models.LotModel{})
	if filter.MaterialID != nil {
		query = query.Where("material_id = ?", *filter.MaterialID)
	}
	if filter.OnlyAvailable {
		query = query.Where("qty_in > qty_out")
	}
	var rows []models.LotModel
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	lots := make([]stock.Lot, len(rows))
	for i := range rows {
		lots[i] = *rows[i].ToDomain()
	}
	return lots, nil
}

// LockAvailableByMaterials loads every lot with remaining quantity for the
// given materials. On Postgres the rows are locked FOR UPDATE in id order so
// concurrent write-offs touching overlapping materials queue instead of
// deadlocking. The caller sorts for FIFO.
func (r *GormLotRepository) LockAvailableByMaterials(ctx context.Context, materialIDs []uuid.UUID) ([]*stock.Lot, error) {
	if len(materialIDs) == 0 {
		return nil, nil
	}
	query := r.db.WithContext(ctx).
		Where("material_id IN ?", materialIDs).
		Where("qty_in > qty_out").
		Order("id ASC")
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []models.LotModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, classifyError(err)
	}
	lots := make([]*stock.Lot, len(rows))
	for i := range rows {
		lots[i] = rows[i].ToDomain()
	}
	return lots, nil
}

// CreateBatch inserts new lots
func (r *GormLotRepository) CreateBatch(ctx context.Context, lots []*stock.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	rows := make([]*models.LotModel, len(lots))
	for i, l := range lots {
		rows[i] = models.LotModelFromDomain(l)
	}
	return classifyError(r.db.WithContext(ctx).Create(&rows).Error)
}

// SaveConsumption writes the lot's new qty_out guarded by its version. If
// another transaction changed the lot since it was read, ErrContention is
// returned and nothing is written.
func (r *GormLotRepository) SaveConsumption(ctx context.Context, lot *stock.Lot) error {
	result := r.db.WithContext(ctx).Exec(
		"UPDATE lots SET qty_out = ?, updated_at = ?, version = version + 1 WHERE id = ? AND version = ?",
		lot.QtyOut, lot.UpdatedAt, lot.ID, lot.Version,
	)
	if result.Error != nil {
		return classifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		return stock.ErrContention
	}
	lot.Version++
	return nil
}

// SumRemaining returns the on-hand quantity per material. Materials without
// available lots map to zero.
func (r *GormLotRepository) SumRemaining(ctx context.Context, materialIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	result := make(map[uuid.UUID]decimal.Decimal, len(materialIDs))
	if len(materialIDs) == 0 {
		return result, nil
	}
	for _, id := range materialIDs {
		result[id] = decimal.Zero
	}
	var rows []models.LotModel
	err := r.db.WithContext(ctx).
		Select("material_id", "qty_in", "qty_out").
		Where("material_id IN ?", materialIDs).
		Where("qty_in > qty_out").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	// summed here rather than with SUM() so the result keeps decimal precision on every driver
	for _, row := range rows {
		result[row.MaterialID] = result[row.MaterialID].Add(row.QtyIn.Sub(row.QtyOut))
	}
	return result, nil
}

// Ensure GormLotRepository implements LotRepository
var _ stock.LotRepository = (*GormLotRepository)(nil)
