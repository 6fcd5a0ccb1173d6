package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/printshop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMaterialRepository implements MaterialRepository using GORM
type GormMaterialRepository struct {
	db *gorm.DB
}

// NewGormMaterialRepository creates a new GormMaterialRepository
func NewGormMaterialRepository(db *gorm.DB) *GormMaterialRepository {
	return &GormMaterialRepository{db: db}
}

// FindByID finds a material by its ID
func (r *GormMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Material, error) {
	var model models.MaterialModel
	if err := r.db.WithContext(ctx).Preload("Props").First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// LockByID reloads the material under a row lock. SQLite has no row locks;
// its single writer already serializes the transaction.
func (r *GormMaterialRepository) LockByID(ctx context.Context, id uuid.UUID, strength stock.LockStrength) (*stock.Material, error) {
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: string(strength)})
	}
	var model models.MaterialModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, classifyError(err)
	}
	var props []models.MaterialPropModel
	if err := r.db.WithContext(ctx).Where("material_id = ?", id).Find(&props).Error; err != nil {
		return nil, err
	}
	model.Props = props
	return model.ToDomain(), nil
}

// FindByIDs loads several materials at once, keyed by ID. Unknown IDs are absent from the map.
func (r *GormMaterialRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*stock.Material, error) {
	result := make(map[uuid.UUID]*stock.Material, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var rows []models.MaterialModel
	if err := r.db.WithContext(ctx).Preload("Props").Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		m := rows[i].ToDomain()
		result[m.ID] = m
	}
	return result, nil
}

// FindByName finds a material by exact name, preferring the active one
func (r *GormMaterialRepository) FindByName(ctx context.Context, name string) (*stock.Material, error) {
	var model models.MaterialModel
	err := r.db.WithContext(ctx).Preload("Props").
		Where("name = ?", strings.TrimSpace(name)).
		Order("is_void ASC, updated_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of materials ordered by name, with the total count
func (r *GormMaterialRepository) FindAll(ctx context.Context, filter stock.MaterialFilter) ([]stock.Material, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MaterialModel{})
	if !filter.IncludeVoid {
		query = query.Where("is_void = ?", false)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MaterialModel
	err := query.Preload("Props").
		Order(orderClause(filter.Filter, MaterialSortFields, "name", "ASC")).
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	materials := make([]stock.Material, len(rows))
	for i := range rows {
		materials[i] = *rows[i].ToDomain()
	}
	return materials, total, nil
}

// FindWithMinStock returns active materials that carry a min_stock_base property
func (r *GormMaterialRepository) FindWithMinStock(ctx context.Context) ([]stock.Material, error) {
	var rows []models.MaterialModel
	err := r.db.WithContext(ctx).Preload("Props").
		Where("is_void = ?", false).
		Where("id IN (?)", r.db.Model(&models.MaterialPropModel{}).
			Select("material_id").
			Where("prop_key = ?", stock.PropMinStockBase)).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	materials := make([]stock.Material, len(rows))
	for i := range rows {
		materials[i] = *rows[i].ToDomain()
	}
	return materials, nil
}

// Save creates or updates a material and replaces its property set
func (r *GormMaterialRepository) Save(ctx context.Context, m *stock.Material) error {
	model := models.MaterialModelFromDomain(m)
	props := model.Props
	model.Props = nil

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("material_id = ?", m.ID).Delete(&models.MaterialPropModel{}).Error; err != nil {
			return err
		}
		if len(props) == 0 {
			return nil
		}
		return tx.Create(&props).Error
	})
	return classifyError(err)
}

// Ensure GormMaterialRepository implements MaterialRepository
var _ stock.MaterialRepository = (*GormMaterialRepository)(nil)
