package stock

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// WriteoffReason says why material left stock
type WriteoffReason string

const (
	ReasonProduction WriteoffReason = "production"
	ReasonScrap      WriteoffReason = "scrap"
	ReasonOther      WriteoffReason = "other"
)

// IsValid reports whether the reason is known
func (r WriteoffReason) IsValid() bool {
	switch r {
	case ReasonProduction, ReasonScrap, ReasonOther:
		return true
	}
	return false
}

// WriteoffDocument consumes stock. It is created fully resolved: either all
// lines are covered by lots or the document does not exist.
type WriteoffDocument struct {
	shared.BaseAggregateRoot
	Reason    WriteoffReason
	Comment   string
	TotalCost decimal.Decimal
	Lines     []WriteoffLine
}

// WriteoffLine is one material row of a write-off
type WriteoffLine struct {
	ID          uuid.UUID
	DocumentID  uuid.UUID
	LineNo      int
	MaterialID  uuid.UUID
	Qty         decimal.Decimal
	UOM         string
	UOMFactor   decimal.Decimal
	QtyBase     decimal.Decimal
	Cost        decimal.Decimal
	Allocations []Allocation
}

// WriteoffLineInput carries the caller's view of a write-off line
type WriteoffLineInput struct {
	MaterialID  uuid.UUID
	Qty         decimal.Decimal
	UOM         string
	UOMFactor   decimal.Decimal
	RollLengthM decimal.Decimal
}

// Allocation is the part of a write-off line taken from one lot
type Allocation struct {
	LotID    uuid.UUID
	Qty      decimal.Decimal
	UnitCost decimal.Decimal
	Cost     decimal.Decimal
}

// NewWriteoffDocument creates an empty write-off stamped at the given time
func NewWriteoffDocument(reason WriteoffReason, comment string, at time.Time) (*WriteoffDocument, error) {
	if reason == "" {
		reason = ReasonOther
	}
	if !reason.IsValid() {
		return nil, NewValidationError("unknown write-off reason %q", reason)
	}
	root := shared.NewBaseAggregateRoot()
	root.CreatedAt = at
	root.UpdatedAt = at
	return &WriteoffDocument{
		BaseAggregateRoot: root,
		Reason:            reason,
		Comment:           strings.TrimSpace(comment),
		TotalCost:         decimal.Zero,
	}, nil
}

// AddLine converts the requested quantity into base units and appends a line
func (d *WriteoffDocument) AddLine(m *Material, in WriteoffLineInput) (*WriteoffLine, error) {
	lineNo := len(d.Lines) + 1
	if !m.IsLotTracked {
		return nil, NewValidationError("line %d: material %s is not lot-tracked", lineNo, m.Name)
	}
	uom := in.UOM
	if strings.TrimSpace(uom) == "" {
		uom = m.BaseUOM
	}
	qtyBase, err := ConvertToBase(m, in.Qty, uom, Conversion{Factor: in.UOMFactor, RollLengthM: in.RollLengthM})
	if err != nil {
		return nil, err
	}
	d.Lines = append(d.Lines, WriteoffLine{
		ID:         uuid.New(),
		DocumentID: d.ID,
		LineNo:     lineNo,
		MaterialID: m.ID,
		Qty:        in.Qty,
		UOM:        NormalizeUOM(uom),
		UOMFactor:  in.UOMFactor,
		QtyBase:    qtyBase,
		Cost:       decimal.Zero,
	})
	return &d.Lines[len(d.Lines)-1], nil
}

// SetAllocations records where a line's quantity came from and refreshes costs
func (d *WriteoffDocument) SetAllocations(lineIdx int, allocs []Allocation) {
	line := &d.Lines[lineIdx]
	line.Allocations = allocs
	cost := decimal.Zero
	for _, a := range allocs {
		cost = cost.Add(a.Cost)
	}
	line.Cost = cost.Round(AmountScale)

	total := decimal.Zero
	for i := range d.Lines {
		total = total.Add(d.Lines[i].Cost)
	}
	d.TotalCost = total
}

// Validate checks the document has lines
func (d *WriteoffDocument) Validate() error {
	if len(d.Lines) == 0 {
		return NewValidationError("write-off must have at least one line")
	}
	return nil
}

// RecordCreated queues the WriteoffCreatedEvent once every line is allocated
func (d *WriteoffDocument) RecordCreated() {
	d.ClearDomainEvents()
	d.AddDomainEvent(NewWriteoffCreatedEvent(d))
}

// MaterialIDs returns the distinct materials on the document in line order
func (d *WriteoffDocument) MaterialIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(d.Lines))
	ids := make([]uuid.UUID, 0, len(d.Lines))
	for _, l := range d.Lines {
		if !seen[l.MaterialID] {
			seen[l.MaterialID] = true
			ids = append(ids, l.MaterialID)
		}
	}
	return ids
}
