package stock

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DocumentStatus is the purchase document lifecycle state
type DocumentStatus string

const (
	StatusDraft  DocumentStatus = "DRAFT"
	StatusPosted DocumentStatus = "POSTED"
	StatusVoid   DocumentStatus = "VOID"
)

// IsValid reports whether the status is known
func (s DocumentStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusPosted, StatusVoid:
		return true
	}
	return false
}

// IsFinal reports whether the document left DRAFT
func (s DocumentStatus) IsFinal() bool {
	return s == StatusPosted || s == StatusVoid
}

// CanTransitionTo reports whether next is reachable from s.
// There is deliberately no POSTED -> VOID edge.
func (s DocumentStatus) CanTransitionTo(next DocumentStatus) bool {
	return s == StatusDraft && (next == StatusPosted || next == StatusVoid)
}

// VATMode says how unit prices on a purchase relate to VAT
type VATMode string

const (
	VATNone     VATMode = "no_vat"
	VATIncluded VATMode = "vat_included"
	VATOnTop    VATMode = "vat_on_top"
)

// IsValid reports whether the VAT mode is known
func (m VATMode) IsValid() bool {
	switch m {
	case VATNone, VATIncluded, VATOnTop:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// PurchaseDocument is a supplier invoice that becomes lots when posted
type PurchaseDocument struct {
	shared.BaseAggregateRoot
	DocDate    time.Time
	Supplier   string
	DocNo      string
	PayType    string
	VATMode    VATMode
	Status     DocumentStatus
	PostedAt   *time.Time
	VoidedAt   *time.Time
	VoidReason string
	Comment    string
	Lines      []PurchaseLine
}

// PurchaseLine is one material row of a purchase document.
// Qty/UOM/UnitPrice are what the supplier billed; QtyBase and UnitPriceBase
// are the same row restated in the material's base unit.
type PurchaseLine struct {
	ID            uuid.UUID
	DocumentID    uuid.UUID
	LineNo        int
	MaterialID    uuid.UUID
	Qty           decimal.Decimal
	UOM           string
	UOMFactor     decimal.Decimal
	RollLengthM   decimal.Decimal
	UnitPrice     decimal.Decimal
	VATRate       decimal.Decimal
	NonStock      bool
	QtyBase       decimal.Decimal
	UnitPriceBase decimal.Decimal
}

// PurchaseLineInput carries the caller's view of a purchase line
type PurchaseLineInput struct {
	Qty         decimal.Decimal
	UOM         string
	UOMFactor   decimal.Decimal
	RollLengthM decimal.Decimal
	UnitPrice   decimal.Decimal
	VATRate     decimal.Decimal
	NonStock    bool
}

// NewPurchaseDocument creates a DRAFT purchase document without lines
func NewPurchaseDocument(docDate time.Time, supplier, docNo, payType string, vatMode VATMode, comment string) (*PurchaseDocument, error) {
	if vatMode == "" {
		vatMode = VATNone
	}
	if !vatMode.IsValid() {
		return nil, NewValidationError("unknown vat_mode %q", vatMode)
	}
	if docDate.IsZero() {
		docDate = time.Now()
	}
	return &PurchaseDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		DocDate:           docDate,
		Supplier:          strings.TrimSpace(supplier),
		DocNo:             strings.TrimSpace(docNo),
		PayType:           strings.TrimSpace(payType),
		VATMode:           vatMode,
		Status:            StatusDraft,
		Comment:           comment,
	}, nil
}

// AddLine validates the input against the material and appends a line
func (d *PurchaseDocument) AddLine(m *Material, in PurchaseLineInput) error {
	if d.Status != StatusDraft {
		return ErrAlreadyFinalized
	}
	lineNo := len(d.Lines) + 1
	if err := m.CanReceive(); err != nil {
		return err
	}
	if in.Qty.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("line %d: qty must be greater than 0", lineNo)
	}
	if in.UnitPrice.IsNegative() {
		return NewValidationError("line %d: unit_price must not be negative", lineNo)
	}
	if in.VATRate.IsNegative() || in.VATRate.GreaterThan(hundred) {
		return NewValidationError("line %d: vat_rate must be between 0 and 100", lineNo)
	}
	if !m.IsLotTracked && !in.NonStock {
		return NewValidationError("line %d: material %s is not lot-tracked; mark the line as non_stock", lineNo, m.Name)
	}

	uom := in.UOM
	if strings.TrimSpace(uom) == "" {
		uom = m.BaseUOM
	}
	qtyBase, err := ConvertToBase(m, in.Qty, uom, Conversion{Factor: in.UOMFactor, RollLengthM: in.RollLengthM})
	if err != nil {
		return err
	}

	d.Lines = append(d.Lines, PurchaseLine{
		ID:            uuid.New(),
		DocumentID:    d.ID,
		LineNo:        lineNo,
		MaterialID:    m.ID,
		Qty:           in.Qty,
		UOM:           NormalizeUOM(uom),
		UOMFactor:     in.UOMFactor,
		RollLengthM:   in.RollLengthM,
		UnitPrice:     in.UnitPrice,
		VATRate:       in.VATRate,
		NonStock:      !m.IsLotTracked && in.NonStock,
		QtyBase:       qtyBase,
		UnitPriceBase: in.Qty.Mul(in.UnitPrice).Div(qtyBase).Round(CostScale),
	})
	return nil
}

// Validate checks the document is postable as a whole
func (d *PurchaseDocument) Validate() error {
	if len(d.Lines) == 0 {
		return NewValidationError("purchase document must have at least one line")
	}
	if !d.VATMode.IsValid() {
		return NewValidationError("unknown vat_mode %q", d.VATMode)
	}
	return nil
}

// MarkPosted moves a DRAFT document to POSTED
func (d *PurchaseDocument) MarkPosted(at time.Time) error {
	if !d.Status.CanTransitionTo(StatusPosted) {
		return ErrAlreadyFinalized
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d.Status = StatusPosted
	d.PostedAt = &at
	d.Touch(at)
	return nil
}

// RecordPosting queues the PurchasePostedEvent for the lots opened by this
// posting. Call after MarkPosted.
func (d *PurchaseDocument) RecordPosting(lots []*Lot) {
	if d.PostedAt == nil {
		return
	}
	d.AddDomainEvent(NewPurchasePostedEvent(d, lots, *d.PostedAt))
}

// Void moves a DRAFT document to VOID. Posted documents cannot be voided:
// their lots may already feed write-off costs.
func (d *PurchaseDocument) Void(reason string, at time.Time) error {
	if !d.Status.CanTransitionTo(StatusVoid) {
		return ErrAlreadyFinalized
	}
	d.Status = StatusVoid
	d.VoidedAt = &at
	d.VoidReason = strings.TrimSpace(reason)
	d.Touch(at)
	return nil
}

// UnitCost returns the lot cost per base unit, net of VAT
func (l *PurchaseLine) UnitCost(mode VATMode) decimal.Decimal {
	price := l.UnitPriceBase
	if l.QtyBase.IsPositive() {
		price = l.Qty.Mul(l.UnitPrice).Div(l.QtyBase)
	}
	if mode == VATIncluded && l.VATRate.IsPositive() {
		price = price.Div(decimal.NewFromInt(1).Add(l.VATRate.Div(hundred)))
	}
	return price.Round(CostScale)
}
