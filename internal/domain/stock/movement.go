package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType classifies ledger entries
type MovementType string

const (
	MovementReceipt      MovementType = "RECEIPT"
	MovementConsumption  MovementType = "CONSUMPTION"
	MovementVoidReversal MovementType = "VOID_REVERSAL"
)

// RefType names the document kind a movement belongs to
type RefType string

const (
	RefPurchase RefType = "PURCHASE"
	RefWriteoff RefType = "WRITEOFF"
)

// Movement is an immutable ledger entry. Qty is signed: receipts are
// positive, consumptions negative.
type Movement struct {
	ID         uuid.UUID
	LotID      *uuid.UUID
	MaterialID uuid.UUID
	Type       MovementType
	Qty        decimal.Decimal
	UnitCost   decimal.Decimal
	RefType    RefType
	RefID      uuid.UUID
	RefLineID  uuid.UUID
	Reason     string
	CreatedAt  time.Time
}

// NewReceiptMovement records a lot entering stock
func NewReceiptMovement(lot *Lot) *Movement {
	lotID := lot.ID
	return &Movement{
		ID:         uuid.New(),
		LotID:      &lotID,
		MaterialID: lot.MaterialID,
		Type:       MovementReceipt,
		Qty:        lot.QtyIn,
		UnitCost:   lot.UnitCost,
		RefType:    RefPurchase,
		RefID:      lot.PurchaseDocID,
		RefLineID:  lot.PurchaseLineID,
		CreatedAt:  lot.CreatedAt,
	}
}

// NewNonStockReceiptMovement records a purchase line of a material that does
// not carry lots. It has no lot and does not count toward lot conservation.
func NewNonStockReceiptMovement(doc *PurchaseDocument, line *PurchaseLine, at time.Time) *Movement {
	return &Movement{
		ID:         uuid.New(),
		MaterialID: line.MaterialID,
		Type:       MovementReceipt,
		Qty:        line.QtyBase,
		UnitCost:   line.UnitCost(doc.VATMode),
		RefType:    RefPurchase,
		RefID:      doc.ID,
		RefLineID:  line.ID,
		CreatedAt:  at,
	}
}

// NewConsumptionMovement records qty leaving a lot for a write-off line
func NewConsumptionMovement(lot *Lot, qty decimal.Decimal, doc *WriteoffDocument, line *WriteoffLine, at time.Time) *Movement {
	lotID := lot.ID
	return &Movement{
		ID:         uuid.New(),
		LotID:      &lotID,
		MaterialID: lot.MaterialID,
		Type:       MovementConsumption,
		Qty:        qty.Neg(),
		UnitCost:   lot.UnitCost,
		RefType:    RefWriteoff,
		RefID:      doc.ID,
		RefLineID:  line.ID,
		Reason:     string(doc.Reason),
		CreatedAt:  at,
	}
}

// Validate checks the sign convention of the movement type
func (m *Movement) Validate() error {
	switch m.Type {
	case MovementReceipt:
		if !m.Qty.IsPositive() {
			return NewValidationError("receipt movement must be positive")
		}
	case MovementConsumption:
		if !m.Qty.IsNegative() {
			return NewValidationError("consumption movement must be negative")
		}
	case MovementVoidReversal:
		if m.Qty.IsZero() {
			return NewValidationError("void reversal movement must not be zero")
		}
	default:
		return NewValidationError("unknown movement type %q", m.Type)
	}
	return nil
}

// IsLotMovement reports whether the entry belongs to a lot
func (m *Movement) IsLotMovement() bool {
	return m.LotID != nil
}
