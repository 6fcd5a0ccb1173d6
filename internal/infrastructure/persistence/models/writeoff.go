package models

import (
	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// WriteoffDocumentModel is the persistence model for the WriteoffDocument aggregate root.
// Lot allocations are not stored here; they are the CONSUMPTION rows of the ledger.
type WriteoffDocumentModel struct {
	AggregateModel
	Reason    string              `gorm:"type:varchar(20);not null;index"`
	Comment   string              `gorm:"type:text;not null;default:''"`
	TotalCost decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Lines     []WriteoffLineModel `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (WriteoffDocumentModel) TableName() string {
	return "writeoff_documents"
}

// WriteoffLineModel is the persistence model for a write-off line.
type WriteoffLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo     int             `gorm:"not null"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Qty        decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	UOM        string          `gorm:"column:uom;type:varchar(20);not null"`
	UOMFactor  decimal.Decimal `gorm:"column:uom_factor;type:decimal(18,6);not null;default:0"`
	QtyBase    decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Cost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (WriteoffLineModel) TableName() string {
	return "writeoff_lines"
}

// ToDomain converts the persistence model to a domain WriteoffDocument without allocations.
func (m *WriteoffDocumentModel) ToDomain() *stock.WriteoffDocument {
	doc := &stock.WriteoffDocument{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Reason:            stock.WriteoffReason(m.Reason),
		Comment:           m.Comment,
		TotalCost:         m.TotalCost,
		Lines:             make([]stock.WriteoffLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		doc.Lines[i] = stock.WriteoffLine{
			ID:         l.ID,
			DocumentID: l.DocumentID,
			LineNo:     l.LineNo,
			MaterialID: l.MaterialID,
			Qty:        l.Qty,
			UOM:        l.UOM,
			UOMFactor:  l.UOMFactor,
			QtyBase:    l.QtyBase,
			Cost:       l.Cost,
		}
	}
	return doc
}

// WriteoffDocumentModelFromDomain creates a new persistence model from a domain WriteoffDocument.
func WriteoffDocumentModelFromDomain(d *stock.WriteoffDocument) *WriteoffDocumentModel {
	m := &WriteoffDocumentModel{
		Reason:    string(d.Reason),
		Comment:   d.Comment,
		TotalCost: d.TotalCost,
		Lines:     make([]WriteoffLineModel, len(d.Lines)),
	}
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	for i, l := range d.Lines {
		m.Lines[i] = WriteoffLineModel{
			ID:         l.ID,
			DocumentID: l.DocumentID,
			LineNo:     l.LineNo,
			MaterialID: l.MaterialID,
			Qty:        l.Qty,
			UOM:        l.UOM,
			UOMFactor:  l.UOMFactor,
			QtyBase:    l.QtyBase,
			Cost:       l.Cost,
		}
	}
	return m
}

// AllModels lists every stock table model in dependency order.
func AllModels() []any {
	return []any{
		&MaterialModel{},
		&MaterialPropModel{},
		&PurchaseDocumentModel{},
		&PurchaseLineModel{},
		&LotModel{},
		&MovementModel{},
		&WriteoffDocumentModel{},
		&WriteoffLineModel{},
	}
}
