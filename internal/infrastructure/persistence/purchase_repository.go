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
)

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("line_no ASC")
}

// FindByID finds a purchase document with its lines
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.PurchaseDocument, error) {
	var model models.PurchaseDocumentModel
	if err := r.db.WithContext(ctx).Preload("Lines", orderedLines).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of purchase documents, newest document date first
func (r *GormPurchaseRepository) FindAll(ctx context.Context, filter stock.PurchaseFilter) ([]stock.PurchaseDocument, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseDocumentModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Supplier != "" {
		query = query.Where("supplier = ?", filter.Supplier)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(supplier) LIKE ? OR LOWER(doc_no) LIKE ? OR LOWER(comment) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PurchaseDocumentModel
	err := query.Preload("Lines", orderedLines).
		Order(orderClause(filter.Filter, PurchaseSortFields, "doc_date", "DESC")).
		Offset(filter.Offset()).Limit(filter.Limit()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	docs := make([]stock.PurchaseDocument, len(rows))
	for i := range rows {
		docs[i] = *rows[i].ToDomain()
	}
	return docs, total, nil
}

// Create inserts a new document together with its lines
func (r *GormPurchaseRepository) Create(ctx context.Context, doc *stock.PurchaseDocument) error {
	return classifyError(r.db.WithContext(ctx).Create(models.PurchaseDocumentModelFromDomain(doc)).Error)
}

// TransitionStatus persists the document's new status only if the stored status
// still equals from. A lost race yields ErrAlreadyFinalized.
func (r *GormPurchaseRepository) TransitionStatus(ctx context.Context, doc *stock.PurchaseDocument, from stock.DocumentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseDocumentModel{}).
		Where("id = ? AND status = ?", doc.ID, string(from)).
		Updates(map[string]any{
			"status":      string(doc.Status),
			"posted_at":   doc.PostedAt,
			"voided_at":   doc.VoidedAt,
			"void_reason": doc.VoidReason,
			"updated_at":  doc.UpdatedAt,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return classifyError(result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.PurchaseDocumentModel{}).Where("id = ?", doc.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return stock.ErrAlreadyFinalized
	}
	doc.IncrementVersion()
	return nil
}

// CountByStatus counts documents in the given status
func (r *GormPurchaseRepository) CountByStatus(ctx context.Context, status stock.DocumentStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseDocumentModel{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	return count, err
}

// ExistsDocNo reports whether the supplier already has a document with this number
func (r *GormPurchaseRepository) ExistsDocNo(ctx context.Context, supplier, docNo string) (bool, error) {
	docNo = strings.TrimSpace(docNo)
	if docNo == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseDocumentModel{}).
		Where("supplier = ? AND doc_no = ?", strings.TrimSpace(supplier), docNo).
		Count(&count).Error
	return count > 0, err
}

// HasDraftLines reports whether any DRAFT document still has a line for the material
func (r *GormPurchaseRepository) HasDraftLines(ctx context.Context, materialID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PurchaseLineModel{}).
		Joins("JOIN purchase_documents ON purchase_documents.id = purchase_lines.document_id").
		Where("purchase_lines.material_id = ? AND purchase_documents.status = ?", materialID, string(stock.StatusDraft)).
		Count(&count).Error
	return count > 0, err
}

// Ensure GormPurchaseRepository implements PurchaseRepository
var _ stock.PurchaseRepository = (*GormPurchaseRepository)(nil)
