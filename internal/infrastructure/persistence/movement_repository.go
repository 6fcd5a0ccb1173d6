package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/printshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM.
// The ledger is append-only: there is no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Append inserts ledger rows
func (r *GormMovementRepository) Append(ctx context.Context, movements ...*stock.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.MovementModel, len(movements))
	for i, mv := range movements {
		if err := mv.Validate(); err != nil {
			return err
		}
		rows[i] = models.MovementModelFromDomain(mv)
	}
	return classifyError(r.db.WithContext(ctx).Create(&rows).Error)
}

// FindAll returns movements newest first, capped at MaxMovementsPage
func (r *GormMovementRepository) FindAll(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	query := r.db.WithContext(ctx).Model(&models.MovementModel{})
	if filter.MaterialID != nil {
		query = query.Where("material_id = ?", *filter.MaterialID)
	}
	if filter.LotID != nil {
		query = query.Where("lot_id = ?", *filter.LotID)
	}
	if filter.RefType != "" {
		query = query.Where("ref_type = ?", string(filter.RefType))
	}
	if filter.RefID != nil {
		query = query.Where("ref_id = ?", *filter.RefID)
	}
	limit := filter.Limit
	if limit <= 0 || limit > stock.MaxMovementsPage {
		limit = stock.MaxMovementsPage
	}

	var rows []models.MovementModel
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]stock.Movement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindForReplay returns every movement, optionally for one material, oldest first
func (r *GormMovementRepository) FindForReplay(ctx context.Context, materialID *uuid.UUID) ([]*stock.Movement, error) {
	query := r.db.WithContext(ctx).Model(&models.MovementModel{})
	if materialID != nil {
		query = query.Where("material_id = ?", *materialID)
	}
	var rows []models.MovementModel
	if err := query.Order("created_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*stock.Movement, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// findConsumptionByRef loads CONSUMPTION rows of one write-off
func (r *GormMovementRepository) findConsumptionByRef(ctx context.Context, refID uuid.UUID) ([]models.MovementModel, error) {
	var rows []models.MovementModel
	err := r.db.WithContext(ctx).
		Where("ref_type = ? AND ref_id = ? AND mv_type = ?", string(stock.RefWriteoff), refID, string(stock.MovementConsumption)).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// Ensure GormMovementRepository implements MovementRepository
var _ stock.MovementRepository = (*GormMovementRepository)(nil)
