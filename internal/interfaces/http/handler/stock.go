package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/printshop/backend/internal/interfaces/http/dto"
)

// WriteoffService is what StockHandler needs to consume stock
type WriteoffService interface {
	Create(ctx context.Context, in appstock.CreateWriteoffInput, idempotencyKey string) (*appstock.WriteoffResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appstock.WriteoffResponse, error)
	List(ctx context.Context, filter appstock.WriteoffListFilter) ([]appstock.WriteoffResponse, int64, error)
}

// QueryService is the read side used by StockHandler
type QueryService interface {
	ListLots(ctx context.Context, filter appstock.LotListFilter) ([]appstock.LotResponse, error)
	StockOnHand(ctx context.Context, materialID uuid.UUID) (*appstock.OnHandResponse, error)
	StockOnHandAll(ctx context.Context) ([]appstock.OnHandResponse, error)
	ListMovements(ctx context.Context, filter appstock.MovementListFilter) ([]appstock.MovementResponse, error)
	Reconcile(ctx context.Context, materialID *uuid.UUID) (*appstock.ReconcileResponse, error)
	ControlSummary(ctx context.Context) (*appstock.ControlSummaryResponse, error)
}

// StockHandler handles write-offs and stock queries
type StockHandler struct {
	BaseHandler
	writeoffs WriteoffService
	queries   QueryService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(writeoffs WriteoffService, queries QueryService) *StockHandler {
	return &StockHandler{writeoffs: writeoffs, queries: queries}
}

// CreateWriteoff handles POST /stock/writeoffs. All lines are consumed
// FIFO in one transaction or not at all.
func (h *StockHandler) CreateWriteoff(c *gin.Context) {
	var req dto.CreateWriteoffRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.writeoffs.Create(c.Request.Context(), in, IdempotencyKey(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// ListWriteoffs handles GET /stock/writeoffs
func (h *StockHandler) ListWriteoffs(c *gin.Context) {
	var query dto.WriteoffListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := query.ToFilter()
	docs, total, err := h.writeoffs.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, filter.Page, filter.PageSize)
}

// GetWriteoff handles GET /stock/writeoffs/:id
func (h *StockHandler) GetWriteoff(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.writeoffs.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// ListLots handles GET /stock/lots
func (h *StockHandler) ListLots(c *gin.Context) {
	var query dto.LotListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lots, err := h.queries.ListLots(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lots)
}

// ListMovements handles GET /stock/movements
func (h *StockHandler) ListMovements(c *gin.Context) {
	var query dto.MovementListQuery
	if !h.BindQuery(c, &query) {
		return
	}
	filter, err := query.ToFilter()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	movements, err := h.queries.ListMovements(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

// OnHandAll handles GET /stock/on-hand
func (h *StockHandler) OnHandAll(c *gin.Context) {
	positions, err := h.queries.StockOnHandAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, positions)
}

// OnHand handles GET /stock/on-hand/:material_id
func (h *StockHandler) OnHand(c *gin.Context) {
	id, ok := h.ParseID(c, "material_id")
	if !ok {
		return
	}

	position, err := h.queries.StockOnHand(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, position)
}

// Reconcile handles GET /stock/reconcile
func (h *StockHandler) Reconcile(c *gin.Context) {
	var query dto.ReconcileQuery
	if !h.BindQuery(c, &query) {
		return
	}
	materialID, err := query.Material()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.queries.Reconcile(c.Request.Context(), materialID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Control handles GET /stock/control
func (h *StockHandler) Control(c *gin.Context) {
	summary, err := h.queries.ControlSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
