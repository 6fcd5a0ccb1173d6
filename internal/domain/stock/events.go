package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypePurchasePosted  = "stock.purchase.posted"
	EventTypeWriteoffCreated = "stock.writeoff.created"
)

// Aggregate types
const (
	AggregateTypePurchase = "PurchaseDocument"
	AggregateTypeWriteoff = "WriteoffDocument"
)

// PurchasePostedEvent is raised after a purchase document's lots are committed
type PurchasePostedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID   `json:"document_id"`
	Supplier   string      `json:"supplier"`
	LotIDs     []uuid.UUID `json:"lot_ids"`
	Materials  []uuid.UUID `json:"material_ids"`
}

// NewPurchasePostedEvent builds the event from the posted document and its lots
func NewPurchasePostedEvent(doc *PurchaseDocument, lots []*Lot, at time.Time) *PurchasePostedEvent {
	lotIDs := make([]uuid.UUID, 0, len(lots))
	seen := make(map[uuid.UUID]bool)
	materials := make([]uuid.UUID, 0, len(lots))
	for _, lot := range lots {
		lotIDs = append(lotIDs, lot.ID)
		if !seen[lot.MaterialID] {
			seen[lot.MaterialID] = true
			materials = append(materials, lot.MaterialID)
		}
	}
	return &PurchasePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchasePosted, AggregateTypePurchase, doc.ID, at),
		DocumentID:      doc.ID,
		Supplier:        doc.Supplier,
		LotIDs:          lotIDs,
		Materials:       materials,
	}
}

// WriteoffCreatedEvent is raised after a write-off commits
type WriteoffCreatedEvent struct {
	shared.BaseDomainEvent
	DocumentID uuid.UUID       `json:"document_id"`
	Reason     WriteoffReason  `json:"reason"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	Materials  []uuid.UUID     `json:"material_ids"`
}

// NewWriteoffCreatedEvent builds the event from a committed write-off
func NewWriteoffCreatedEvent(doc *WriteoffDocument) *WriteoffCreatedEvent {
	return &WriteoffCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeWriteoffCreated, AggregateTypeWriteoff, doc.ID, doc.CreatedAt),
		DocumentID:      doc.ID,
		Reason:          doc.Reason,
		TotalCost:       doc.TotalCost,
		Materials:       doc.MaterialIDs(),
	}
}

var (
	_ shared.AggregateRoot = (*PurchaseDocument)(nil)
	_ shared.AggregateRoot = (*WriteoffDocument)(nil)
)
