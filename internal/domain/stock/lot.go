package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Decimal scales used for persisted values
const (
	QtyScale    int32 = 6
	CostScale   int32 = 6
	AmountScale int32 = 4
)

// Lot is a quantity of one material received at one unit cost.
// QtyIn and UnitCost never change after creation; QtyOut only grows.
type Lot struct {
	ID             uuid.UUID
	MaterialID     uuid.UUID
	PurchaseDocID  uuid.UUID
	PurchaseLineID uuid.UUID
	QtyIn          decimal.Decimal
	QtyOut         decimal.Decimal
	UnitCost       decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int
}

// NewLotFromLine creates the lot for a posted purchase line.
// createdAt is the posting time and becomes the FIFO ordering key.
func NewLotFromLine(doc *PurchaseDocument, line *PurchaseLine, createdAt time.Time) *Lot {
	return &Lot{
		ID:             uuid.New(),
		MaterialID:     line.MaterialID,
		PurchaseDocID:  doc.ID,
		PurchaseLineID: line.ID,
		QtyIn:          line.QtyBase,
		QtyOut:         decimal.Zero,
		UnitCost:       line.UnitCost(doc.VATMode),
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
		Version:        1,
	}
}

// Remaining returns QtyIn - QtyOut
func (l *Lot) Remaining() decimal.Decimal {
	return l.QtyIn.Sub(l.QtyOut)
}

// HasRemaining reports whether anything is left to consume
func (l *Lot) HasRemaining() bool {
	return l.Remaining().IsPositive()
}

// Consume advances QtyOut. It refuses to overdraw the lot.
func (l *Lot) Consume(qty decimal.Decimal, at time.Time) error {
	if !qty.IsPositive() {
		return NewValidationError("consumed quantity must be positive")
	}
	if qty.GreaterThan(l.Remaining()) {
		return NewInsufficientStockError(l.MaterialID, qty, l.Remaining())
	}
	l.QtyOut = l.QtyOut.Add(qty)
	l.UpdatedAt = at
	return nil
}

// Value returns the cost of what is left in the lot
func (l *Lot) Value() decimal.Decimal {
	return l.Remaining().Mul(l.UnitCost).Round(AmountScale)
}

// Before reports whether l precedes other in FIFO order: (created_at, id) ascending
func (l *Lot) Before(other *Lot) bool {
	if !l.CreatedAt.Equal(other.CreatedAt) {
		return l.CreatedAt.Before(other.CreatedAt)
	}
	return l.ID.String() < other.ID.String()
}
