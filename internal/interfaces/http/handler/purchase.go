package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/printshop/backend/internal/interfaces/http/dto"
)

// PurchaseService is what PurchaseHandler needs from purchase posting
type PurchaseService interface {
	Create(ctx context.Context, in appstock.CreatePurchaseInput, idempotencyKey string) (*appstock.PurchaseResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appstock.PurchaseResponse, error)
	List(ctx context.Context, filter appstock.PurchaseListFilter) ([]appstock.PurchaseResponse, int64, error)
	Post(ctx context.Context, id uuid.UUID) (*appstock.PurchaseResponse, error)
	Void(ctx context.Context, id uuid.UUID, reason string) (*appstock.PurchaseResponse, error)
}

// PurchaseHandler handles purchase document endpoints
type PurchaseHandler struct {
	BaseHandler
	service PurchaseService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(service PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// Create handles POST /purchases. The document starts as DRAFT.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	doc, err := h.service.Create(c.Request.Context(), in, IdempotencyKey(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, doc)
}

// List handles GET /purchases
func (h *PurchaseHandler) List(c *gin.Context) {
	var query dto.PurchaseListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := query.ToFilter()
	docs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, docs, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /purchases/:id
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Post handles POST /purchases/:id/post and creates one lot per stock line
func (h *PurchaseHandler) Post(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	doc, err := h.service.Post(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Void handles POST /purchases/:id/void. Only DRAFT documents can be voided.
func (h *PurchaseHandler) Void(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.VoidRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Void(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}
