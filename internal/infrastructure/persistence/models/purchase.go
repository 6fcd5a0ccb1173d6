package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// PurchaseDocumentModel is the persistence model for the PurchaseDocument aggregate root.
type PurchaseDocumentModel struct {
	AggregateModel
	DocDate    time.Time           `gorm:"not null;index"`
	Supplier   string              `gorm:"type:varchar(200);not null;default:'';uniqueIndex:idx_purchase_supplier_doc_no,priority:1"`
	DocNo      *string             `gorm:"type:varchar(100);uniqueIndex:idx_purchase_supplier_doc_no,priority:2"`
	PayType    string              `gorm:"type:varchar(50);not null;default:''"`
	VATMode    string              `gorm:"column:vat_mode;type:varchar(20);not null"`
	Status     string              `gorm:"type:varchar(20);not null;index"`
	PostedAt   *time.Time          `gorm:"default:null"`
	VoidedAt   *time.Time          `gorm:"default:null"`
	VoidReason string              `gorm:"type:varchar(500);not null;default:''"`
	Comment    string              `gorm:"type:text;not null;default:''"`
	Lines      []PurchaseLineModel `gorm:"foreignKey:DocumentID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseDocumentModel) TableName() string {
	return "purchase_documents"
}

// PurchaseLineModel is the persistence model for a purchase line.
type PurchaseLineModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	DocumentID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo        int             `gorm:"not null"`
	MaterialID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Qty           decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	UOM           string          `gorm:"column:uom;type:varchar(20);not null"`
	UOMFactor     decimal.Decimal `gorm:"column:uom_factor;type:decimal(18,6);not null;default:0"`
	RollLengthM   decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	VATRate       decimal.Decimal `gorm:"column:vat_rate;type:decimal(5,2);not null;default:0"`
	NonStock      bool            `gorm:"not null;default:false"`
	QtyBase       decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	UnitPriceBase decimal.Decimal `gorm:"type:decimal(18,6);not null"`
}

// TableName returns the table name for GORM
func (PurchaseLineModel) TableName() string {
	return "purchase_lines"
}

// ToDomain converts the persistence model to a domain PurchaseDocument.
func (m *PurchaseDocumentModel) ToDomain() *stock.PurchaseDocument {
	doc := &stock.PurchaseDocument{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		DocDate:           m.DocDate,
		Supplier:          m.Supplier,
		DocNo:             derefString(m.DocNo),
		PayType:           m.PayType,
		VATMode:           stock.VATMode(m.VATMode),
		Status:            stock.DocumentStatus(m.Status),
		PostedAt:          m.PostedAt,
		VoidedAt:          m.VoidedAt,
		VoidReason:        m.VoidReason,
		Comment:           m.Comment,
		Lines:             make([]stock.PurchaseLine, len(m.Lines)),
	}
	for i := range m.Lines {
		doc.Lines[i] = m.Lines[i].ToDomain()
	}
	return doc
}

// FromDomain populates the persistence model from a domain PurchaseDocument.
func (m *PurchaseDocumentModel) FromDomain(d *stock.PurchaseDocument) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.DocDate = d.DocDate
	m.Supplier = d.Supplier
	m.DocNo = nullableString(d.DocNo)
	m.PayType = d.PayType
	m.VATMode = string(d.VATMode)
	m.Status = string(d.Status)
	m.PostedAt = d.PostedAt
	m.VoidedAt = d.VoidedAt
	m.VoidReason = d.VoidReason
	m.Comment = d.Comment
	m.Lines = make([]PurchaseLineModel, len(d.Lines))
	for i := range d.Lines {
		m.Lines[i].FromDomain(&d.Lines[i])
	}
}

// PurchaseDocumentModelFromDomain creates a new persistence model from a domain PurchaseDocument.
func PurchaseDocumentModelFromDomain(d *stock.PurchaseDocument) *PurchaseDocumentModel {
	m := &PurchaseDocumentModel{}
	m.FromDomain(d)
	return m
}

// ToDomain converts the line model to a domain PurchaseLine.
func (m *PurchaseLineModel) ToDomain() stock.PurchaseLine {
	return stock.PurchaseLine{
		ID:            m.ID,
		DocumentID:    m.DocumentID,
		LineNo:        m.LineNo,
		MaterialID:    m.MaterialID,
		Qty:           m.Qty,
		UOM:           m.UOM,
		UOMFactor:     m.UOMFactor,
		RollLengthM:   m.RollLengthM,
		UnitPrice:     m.UnitPrice,
		VATRate:       m.VATRate,
		NonStock:      m.NonStock,
		QtyBase:       m.QtyBase,
		UnitPriceBase: m.UnitPriceBase,
	}
}

// FromDomain populates the line model from a domain PurchaseLine.
func (m *PurchaseLineModel) FromDomain(l *stock.PurchaseLine) {
	m.ID = l.ID
	m.DocumentID = l.DocumentID
	m.LineNo = l.LineNo
	m.MaterialID = l.MaterialID
	m.Qty = l.Qty
	m.UOM = l.UOM
	m.UOMFactor = l.UOMFactor
	m.RollLengthM = l.RollLengthM
	m.UnitPrice = l.UnitPrice
	m.VATRate = l.VATRate
	m.NonStock = l.NonStock
	m.QtyBase = l.QtyBase
	m.UnitPriceBase = l.UnitPriceBase
}
