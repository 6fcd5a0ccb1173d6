package dto

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of document dates
const DateLayout = "2006-01-02"

// CreateMaterialRequest is the body of POST /materials
type CreateMaterialRequest struct {
	Name         string            `json:"name" binding:"required,max=200"`
	Category     string            `json:"category" binding:"max=100"`
	BaseUOM      string            `json:"base_uom" binding:"required,max=20"`
	IsLotTracked *bool             `json:"is_lot_tracked"`
	Props        map[string]string `json:"props"`
}

// ToInput converts the request to the service input
func (r CreateMaterialRequest) ToInput() appstock.CreateMaterialInput {
	return appstock.CreateMaterialInput{
		Name:         r.Name,
		Category:     r.Category,
		BaseUOM:      r.BaseUOM,
		IsLotTracked: r.IsLotTracked,
		Props:        r.Props,
	}
}

// UpdateMaterialRequest is the body of PUT /materials/:id
type UpdateMaterialRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Category     string `json:"category" binding:"max=100"`
	BaseUOM      string `json:"base_uom" binding:"required,max=20"`
	IsLotTracked bool   `json:"is_lot_tracked"`
}

// ToInput converts the request to the service input
func (r UpdateMaterialRequest) ToInput() appstock.UpdateMaterialInput {
	return appstock.UpdateMaterialInput{
		Name:         r.Name,
		Category:     r.Category,
		BaseUOM:      r.BaseUOM,
		IsLotTracked: r.IsLotTracked,
	}
}

// SetPropsRequest is the body of PUT /materials/:id/props
type SetPropsRequest struct {
	Props map[string]string `json:"props" binding:"required"`
}

// VoidRequest is the body of the void endpoints
type VoidRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// MaterialListQuery holds GET /materials query parameters
type MaterialListQuery struct {
	ListRequest
	Category    string `form:"category"`
	IncludeVoid bool   `form:"include_void"`
}

// ToFilter converts the query to the service filter
func (q MaterialListQuery) ToFilter() appstock.MaterialListFilter {
	q.Normalize()
	return appstock.MaterialListFilter{
		Search:      q.Search,
		Category:    q.Category,
		IncludeVoid: q.IncludeVoid,
		Page:        q.Page,
		PageSize:    q.PageSize,
		OrderBy:     q.OrderBy,
		OrderDir:    q.OrderDir,
	}
}

// PurchaseLineRequest is one line of a purchase. Either material_id or
// material_name identifies the material.
type PurchaseLineRequest struct {
	MaterialID   string          `json:"material_id" binding:"omitempty,uuid"`
	MaterialName string          `json:"material_name" binding:"required_without=MaterialID,max=200"`
	Qty          decimal.Decimal `json:"qty"`
	UOM          string          `json:"uom" binding:"max=20"`
	UOMFactor    decimal.Decimal `json:"uom_factor"`
	RollLengthM  decimal.Decimal `json:"roll_length_m"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	VATRate      decimal.Decimal `json:"vat_rate"`
	NonStock     bool            `json:"non_stock"`
}

// CreatePurchaseRequest is the body of POST /purchases
type CreatePurchaseRequest struct {
	DocDate  string                `json:"doc_date" binding:"omitempty,datetime=2006-01-02"`
	Supplier string                `json:"supplier" binding:"max=200"`
	DocNo    string                `json:"doc_no" binding:"max=100"`
	PayType  string                `json:"pay_type" binding:"max=50"`
	VATMode  string                `json:"vat_mode" binding:"omitempty,oneof=no_vat vat_included vat_on_top"`
	Comment  string                `json:"comment" binding:"max=1000"`
	Lines    []PurchaseLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the service input
func (r CreatePurchaseRequest) ToInput() (appstock.CreatePurchaseInput, error) {
	in := appstock.CreatePurchaseInput{
		Supplier: r.Supplier,
		DocNo:    r.DocNo,
		PayType:  r.PayType,
		VATMode:  r.VATMode,
		Comment:  r.Comment,
		Lines:    make([]appstock.PurchaseLineInput, 0, len(r.Lines)),
	}
	if r.DocDate != "" {
		d, err := time.Parse(DateLayout, r.DocDate)
		if err != nil {
			return in, fmt.Errorf("doc_date: %w", err)
		}
		in.DocDate = &d
	}
	for i, l := range r.Lines {
		materialID, err := parseOptionalUUID(l.MaterialID)
		if err != nil {
			return in, fmt.Errorf("lines[%d].material_id: %w", i, err)
		}
		in.Lines = append(in.Lines, appstock.PurchaseLineInput{
			MaterialID:   materialID,
			MaterialName: l.MaterialName,
			Qty:          l.Qty,
			UOM:          l.UOM,
			UOMFactor:    l.UOMFactor,
			RollLengthM:  l.RollLengthM,
			UnitPrice:    l.UnitPrice,
			VATRate:      l.VATRate,
			NonStock:     l.NonStock,
		})
	}
	return in, nil
}

// PurchaseListQuery holds GET /purchases query parameters
type PurchaseListQuery struct {
	ListRequest
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT POSTED VOID"`
	Supplier string `form:"supplier"`
}

// ToFilter converts the query to the service filter
func (q PurchaseListQuery) ToFilter() appstock.PurchaseListFilter {
	q.Normalize()
	return appstock.PurchaseListFilter{
		Search:   q.Search,
		Status:   q.Status,
		Supplier: q.Supplier,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
}

// WriteoffLineRequest is one line of a write-off
type WriteoffLineRequest struct {
	MaterialID  string          `json:"material_id" binding:"required,uuid"`
	Qty         decimal.Decimal `json:"qty"`
	UOM         string          `json:"uom" binding:"max=20"`
	UOMFactor   decimal.Decimal `json:"uom_factor"`
	RollLengthM decimal.Decimal `json:"roll_length_m"`
}

// CreateWriteoffRequest is the body of POST /stock/writeoffs
type CreateWriteoffRequest struct {
	Reason  string                `json:"reason" binding:"required,oneof=production scrap other"`
	Comment string                `json:"comment" binding:"max=1000"`
	Lines   []WriteoffLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToInput converts the request to the service input
func (r CreateWriteoffRequest) ToInput() (appstock.CreateWriteoffInput, error) {
	in := appstock.CreateWriteoffInput{
		Reason:  r.Reason,
		Comment: r.Comment,
		Lines:   make([]appstock.WriteoffLineInput, 0, len(r.Lines)),
	}
	for i, l := range r.Lines {
		materialID, err := uuid.Parse(l.MaterialID)
		if err != nil {
			return in, fmt.Errorf("lines[%d].material_id: %w", i, err)
		}
		in.Lines = append(in.Lines, appstock.WriteoffLineInput{
			MaterialID:  materialID,
			Qty:         l.Qty,
			UOM:         l.UOM,
			UOMFactor:   l.UOMFactor,
			RollLengthM: l.RollLengthM,
		})
	}
	return in, nil
}

// WriteoffListQuery holds GET /stock/writeoffs query parameters
type WriteoffListQuery struct {
	ListRequest
	Reason string `form:"reason" binding:"omitempty,oneof=production scrap other"`
}

// ToFilter converts the query to the service filter
func (q WriteoffListQuery) ToFilter() appstock.WriteoffListFilter {
	q.Normalize()
	return appstock.WriteoffListFilter{
		Reason:   q.Reason,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
}

// LotListQuery holds GET /stock/lots query parameters
type LotListQuery struct {
	MaterialID    string `form:"material_id" binding:"omitempty,uuid"`
	OnlyAvailable bool   `form:"only_available"`
}

// ToFilter converts the query to the service filter
func (q LotListQuery) ToFilter() (appstock.LotListFilter, error) {
	materialID, err := parseOptionalUUID(q.MaterialID)
	if err != nil {
		return appstock.LotListFilter{}, err
	}
	return appstock.LotListFilter{MaterialID: materialID, OnlyAvailable: q.OnlyAvailable}, nil
}

// MovementListQuery holds GET /stock/movements query parameters
type MovementListQuery struct {
	MaterialID string `form:"material_id" binding:"omitempty,uuid"`
	LotID      string `form:"lot_id" binding:"omitempty,uuid"`
	RefType    string `form:"ref_type" binding:"omitempty,oneof=PURCHASE WRITEOFF"`
	RefID      string `form:"ref_id" binding:"omitempty,uuid"`
	Limit      int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ToFilter converts the query to the service filter
func (q MovementListQuery) ToFilter() (appstock.MovementListFilter, error) {
	f := appstock.MovementListFilter{RefType: q.RefType, Limit: q.Limit}
	var err error
	if f.MaterialID, err = parseOptionalUUID(q.MaterialID); err != nil {
		return f, err
	}
	if f.LotID, err = parseOptionalUUID(q.LotID); err != nil {
		return f, err
	}
	if f.RefID, err = parseOptionalUUID(q.RefID); err != nil {
		return f, err
	}
	return f, nil
}

// ReconcileQuery holds GET /stock/reconcile query parameters
type ReconcileQuery struct {
	MaterialID string `form:"material_id" binding:"omitempty,uuid"`
}

// Material returns the material scope, nil for all materials
func (q ReconcileQuery) Material() (*uuid.UUID, error) {
	return parseOptionalUUID(q.MaterialID)
}

func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
