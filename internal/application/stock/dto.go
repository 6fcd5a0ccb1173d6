package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// CreateMaterialInput describes a new material
type CreateMaterialInput struct {
	Name         string
	Category     string
	BaseUOM      string
	IsLotTracked *bool
	Props        map[string]string
}

// UpdateMaterialInput replaces the descriptive attributes of a material
type UpdateMaterialInput struct {
	Name         string
	Category     string
	BaseUOM      string
	IsLotTracked bool
}

// MaterialListFilter narrows material listings
type MaterialListFilter struct {
	Search      string
	Category    string
	IncludeVoid bool
	Page        int
	PageSize    int
	OrderBy     string // name, category, created_at, updated_at
	OrderDir    string
}

// MaterialResponse is the read model of a material
type MaterialResponse struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	BaseUOM      string            `json:"base_uom"`
	IsLotTracked bool              `json:"is_lot_tracked"`
	IsVoid       bool              `json:"is_void"`
	VoidedAt     *time.Time        `json:"voided_at,omitempty"`
	VoidReason   string            `json:"void_reason,omitempty"`
	Props        map[string]string `json:"props"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ToMaterialResponse converts the domain material
func ToMaterialResponse(m *stock.Material) MaterialResponse {
	props := make(map[string]string, len(m.Props))
	for k, v := range m.Props {
		props[k] = v
	}
	return MaterialResponse{
		ID:           m.ID,
		Name:         m.Name,
		Category:     m.Category,
		BaseUOM:      m.BaseUOM,
		IsLotTracked: m.IsLotTracked,
		IsVoid:       m.IsVoid,
		VoidedAt:     m.VoidedAt,
		VoidReason:   m.VoidReason,
		Props:        props,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// PurchaseLineInput is one line of a new purchase. A line names its material
// either by id or by name; unknown names create a lot-tracked material.
type PurchaseLineInput struct {
	MaterialID   *uuid.UUID
	MaterialName string
	Qty          decimal.Decimal
	UOM          string
	UOMFactor    decimal.Decimal
	RollLengthM  decimal.Decimal
	UnitPrice    decimal.Decimal
	VATRate      decimal.Decimal
	NonStock     bool
}

// CreatePurchaseInput describes a DRAFT purchase document
type CreatePurchaseInput struct {
	DocDate  *time.Time
	Supplier string
	DocNo    string
	PayType  string
	VATMode  string
	Comment  string
	Lines    []PurchaseLineInput
}

// PurchaseListFilter narrows purchase listings
type PurchaseListFilter struct {
	Search   string
	Status   string
	Supplier string
	Page     int
	PageSize int
	OrderBy  string // doc_date, created_at, updated_at, supplier, posted_at
	OrderDir string
}

// PurchaseLineResponse is one line of a purchase document
type PurchaseLineResponse struct {
	ID            uuid.UUID       `json:"id"`
	LineNo        int             `json:"line_no"`
	MaterialID    uuid.UUID       `json:"material_id"`
	Qty           decimal.Decimal `json:"qty"`
	UOM           string          `json:"uom"`
	UOMFactor     decimal.Decimal `json:"uom_factor"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	VATRate       decimal.Decimal `json:"vat_rate"`
	NonStock      bool            `json:"non_stock"`
	QtyBase       decimal.Decimal `json:"qty_base"`
	UnitPriceBase decimal.Decimal `json:"unit_price_base"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
}

// PurchaseResponse is the read model of a purchase document
type PurchaseResponse struct {
	ID         uuid.UUID              `json:"id"`
	DocDate    time.Time              `json:"doc_date"`
	Supplier   string                 `json:"supplier"`
	DocNo      string                 `json:"doc_no"`
	PayType    string                 `json:"pay_type"`
	VATMode    string                 `json:"vat_mode"`
	Status     string                 `json:"status"`
	PostedAt   *time.Time             `json:"posted_at,omitempty"`
	VoidedAt   *time.Time             `json:"voided_at,omitempty"`
	VoidReason string                 `json:"void_reason,omitempty"`
	Comment    string                 `json:"comment"`
	Lines      []PurchaseLineResponse `json:"lines"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
}

// ToPurchaseResponse converts the domain document
func ToPurchaseResponse(doc *stock.PurchaseDocument) PurchaseResponse {
	lines := make([]PurchaseLineResponse, 0, len(doc.Lines))
	for i := range doc.Lines {
		l := &doc.Lines[i]
		lines = append(lines, PurchaseLineResponse{
			ID:            l.ID,
			LineNo:        l.LineNo,
			MaterialID:    l.MaterialID,
			Qty:           l.Qty,
			UOM:           l.UOM,
			UOMFactor:     l.UOMFactor,
			UnitPrice:     l.UnitPrice,
			VATRate:       l.VATRate,
			NonStock:      l.NonStock,
			QtyBase:       l.QtyBase,
			UnitPriceBase: l.UnitPriceBase,
			UnitCost:      l.UnitCost(doc.VATMode),
		})
	}
	return PurchaseResponse{
		ID:         doc.ID,
		DocDate:    doc.DocDate,
		Supplier:   doc.Supplier,
		DocNo:      doc.DocNo,
		PayType:    doc.PayType,
		VATMode:    string(doc.VATMode),
		Status:     string(doc.Status),
		PostedAt:   doc.PostedAt,
		VoidedAt:   doc.VoidedAt,
		VoidReason: doc.VoidReason,
		Comment:    doc.Comment,
		Lines:      lines,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
}

// WriteoffLineInput is one line of a write-off request
type WriteoffLineInput struct {
	MaterialID  uuid.UUID
	Qty         decimal.Decimal
	UOM         string
	UOMFactor   decimal.Decimal
	RollLengthM decimal.Decimal
}

// CreateWriteoffInput describes a write-off to resolve atomically
type CreateWriteoffInput struct {
	Reason  string
	Comment string
	Lines   []WriteoffLineInput
}

// WriteoffListFilter narrows write-off listings
type WriteoffListFilter struct {
	Reason   string
	Page     int
	PageSize int
	OrderBy  string // created_at, total_cost
	OrderDir string
}

// AllocationResponse is the part of a write-off line taken from one lot
type AllocationResponse struct {
	LotID    uuid.UUID       `json:"lot_id"`
	Qty      decimal.Decimal `json:"qty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Cost     decimal.Decimal `json:"cost"`
}

// WriteoffLineResponse is one line of a write-off
type WriteoffLineResponse struct {
	ID          uuid.UUID            `json:"id"`
	LineNo      int                  `json:"line_no"`
	MaterialID  uuid.UUID            `json:"material_id"`
	Qty         decimal.Decimal      `json:"qty"`
	UOM         string               `json:"uom"`
	UOMFactor   decimal.Decimal      `json:"uom_factor"`
	QtyBase     decimal.Decimal      `json:"qty_base"`
	Cost        decimal.Decimal      `json:"cost"`
	Allocations []AllocationResponse `json:"allocations"`
}

// WriteoffResponse is the read model of a write-off document
type WriteoffResponse struct {
	ID        uuid.UUID              `json:"id"`
	Reason    string                 `json:"reason"`
	Comment   string                 `json:"comment"`
	TotalCost decimal.Decimal        `json:"total_cost"`
	Lines     []WriteoffLineResponse `json:"lines"`
	CreatedAt time.Time              `json:"created_at"`
}

// ToWriteoffResponse converts the domain document
func ToWriteoffResponse(doc *stock.WriteoffDocument) WriteoffResponse {
	lines := make([]WriteoffLineResponse, 0, len(doc.Lines))
	for _, l := range doc.Lines {
		allocs := make([]AllocationResponse, 0, len(l.Allocations))
		for _, a := range l.Allocations {
			allocs = append(allocs, AllocationResponse{LotID: a.LotID, Qty: a.Qty, UnitCost: a.UnitCost, Cost: a.Cost})
		}
		lines = append(lines, WriteoffLineResponse{
			ID:          l.ID,
			LineNo:      l.LineNo,
			MaterialID:  l.MaterialID,
			Qty:         l.Qty,
			UOM:         l.UOM,
			UOMFactor:   l.UOMFactor,
			QtyBase:     l.QtyBase,
			Cost:        l.Cost,
			Allocations: allocs,
		})
	}
	return WriteoffResponse{
		ID:        doc.ID,
		Reason:    string(doc.Reason),
		Comment:   doc.Comment,
		TotalCost: doc.TotalCost,
		Lines:     lines,
		CreatedAt: doc.CreatedAt,
	}
}

// LotResponse is a lot joined with its material
type LotResponse struct {
	ID               uuid.UUID       `json:"lot_id"`
	MaterialID       uuid.UUID       `json:"material_id"`
	MaterialName     string          `json:"material_name"`
	MaterialCategory string          `json:"material_category"`
	BaseUOM          string          `json:"base_uom"`
	PurchaseDocID    uuid.UUID       `json:"purchase_doc_id"`
	PurchaseLineID   uuid.UUID       `json:"purchase_line_id"`
	QtyIn            decimal.Decimal `json:"qty_in"`
	QtyOut           decimal.Decimal `json:"qty_out"`
	QtyRemaining     decimal.Decimal `json:"qty_remaining"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	CreatedAt        time.Time       `json:"created_at"`
}

// LotListFilter narrows lot listings
type LotListFilter struct {
	MaterialID    *uuid.UUID
	OnlyAvailable bool
}

// OnHandResponse is the stock position of one material
type OnHandResponse struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	BaseUOM      string          `json:"base_uom"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Value        decimal.Decimal `json:"value"`
	WeightedCost decimal.Decimal `json:"weighted_cost"`
	LotCount     int             `json:"lot_count"`
}

// MovementListFilter narrows ledger listings
type MovementListFilter struct {
	MaterialID *uuid.UUID
	LotID      *uuid.UUID
	RefType    string
	RefID      *uuid.UUID
	Limit      int
}

// MovementResponse is a ledger entry joined with its material
type MovementResponse struct {
	ID           uuid.UUID       `json:"id"`
	LotID        *uuid.UUID      `json:"lot_id"`
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	Type         string          `json:"mv_type"`
	Qty          decimal.Decimal `json:"qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	RefType      string          `json:"ref_type"`
	RefID        uuid.UUID       `json:"ref_id"`
	RefLineID    uuid.UUID       `json:"ref_line_id"`
	Reason       string          `json:"reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ReconcileResponse reports the lot store against a replay of the ledger
type ReconcileResponse struct {
	Balanced      bool                      `json:"balanced"`
	Materials     []stock.MaterialBalance   `json:"materials"`
	Discrepancies []stock.LedgerDiscrepancy `json:"discrepancies"`
}

// LowStockItem is a material below its configured threshold
type LowStockItem struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialName string          `json:"material_name"`
	OnHand       decimal.Decimal `json:"on_hand"`
	MinStock     decimal.Decimal `json:"min_stock"`
}

// ControlSummaryResponse feeds the stock control dashboard
type ControlSummaryResponse struct {
	DraftPurchases int64          `json:"draft_purchases"`
	LowStockCount  int            `json:"low_stock_count"`
	LowStock       []LowStockItem `json:"low_stock"`
}
