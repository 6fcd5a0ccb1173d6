package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// LotModel is the persistence model for a Lot. QtyIn is immutable after insert;
// only QtyOut, UpdatedAt and Version change.
type LotModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	MaterialID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_lots_material_fifo,priority:1"`
	PurchaseDocID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PurchaseLineID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	QtyIn          decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	QtyOut         decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	CreatedAt      time.Time       `gorm:"not null;index:idx_lots_material_fifo,priority:2"`
	UpdatedAt      time.Time       `gorm:"not null"`
	Version        int             `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (LotModel) TableName() string {
	return "lots"
}

// ToDomain converts the persistence model to a domain Lot.
func (m *LotModel) ToDomain() *stock.Lot {
	return &stock.Lot{
		ID:             m.ID,
		MaterialID:     m.MaterialID,
		PurchaseDocID:  m.PurchaseDocID,
		PurchaseLineID: m.PurchaseLineID,
		QtyIn:          m.QtyIn,
		QtyOut:         m.QtyOut,
		UnitCost:       m.UnitCost,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		Version:        m.Version,
	}
}

// LotModelFromDomain creates a new persistence model from a domain Lot.
func LotModelFromDomain(l *stock.Lot) *LotModel {
	return &LotModel{
		ID:             l.ID,
		MaterialID:     l.MaterialID,
		PurchaseDocID:  l.PurchaseDocID,
		PurchaseLineID: l.PurchaseLineID,
		QtyIn:          l.QtyIn,
		QtyOut:         l.QtyOut,
		UnitCost:       l.UnitCost,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
		Version:        l.Version,
	}
}

// MovementModel is one append-only ledger row.
type MovementModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	LotID      *uuid.UUID      `gorm:"type:uuid;index"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;index"`
	MvType     string          `gorm:"column:mv_type;type:varchar(20);not null"`
	Qty        decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	RefType    string          `gorm:"type:varchar(20);not null;index:idx_movements_ref,priority:1"`
	RefID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_movements_ref,priority:2"`
	RefLineID  uuid.UUID       `gorm:"type:uuid;not null"`
	Reason     string          `gorm:"type:varchar(50);not null;default:''"`
	CreatedAt  time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (MovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain Movement.
func (m *MovementModel) ToDomain() *stock.Movement {
	return &stock.Movement{
		ID:         m.ID,
		LotID:      m.LotID,
		MaterialID: m.MaterialID,
		Type:       stock.MovementType(m.MvType),
		Qty:        m.Qty,
		UnitCost:   m.UnitCost,
		RefType:    stock.RefType(m.RefType),
		RefID:      m.RefID,
		RefLineID:  m.RefLineID,
		Reason:     m.Reason,
		CreatedAt:  m.CreatedAt,
	}
}

// MovementModelFromDomain creates a new persistence model from a domain Movement.
func MovementModelFromDomain(mv *stock.Movement) *MovementModel {
	return &MovementModel{
		ID:         mv.ID,
		LotID:      mv.LotID,
		MaterialID: mv.MaterialID,
		MvType:     string(mv.Type),
		Qty:        mv.Qty,
		UnitCost:   mv.UnitCost,
		RefType:    string(mv.RefType),
		RefID:      mv.RefID,
		RefLineID:  mv.RefLineID,
		Reason:     mv.Reason,
		CreatedAt:  mv.CreatedAt,
	}
}
