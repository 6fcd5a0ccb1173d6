package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/printshop/backend/internal/interfaces/http/dto"
)

// MaterialService is what MaterialHandler needs from the material catalog
type MaterialService interface {
	Create(ctx context.Context, in appstock.CreateMaterialInput) (*appstock.MaterialResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appstock.MaterialResponse, error)
	List(ctx context.Context, filter appstock.MaterialListFilter) ([]appstock.MaterialResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, in appstock.UpdateMaterialInput) (*appstock.MaterialResponse, error)
	Void(ctx context.Context, id uuid.UUID, reason string) (*appstock.MaterialResponse, error)
	SetProps(ctx context.Context, id uuid.UUID, props map[string]string) (*appstock.MaterialResponse, error)
}

// MaterialHandler handles material catalog endpoints
type MaterialHandler struct {
	BaseHandler
	service MaterialService
}

// NewMaterialHandler creates a new MaterialHandler
func NewMaterialHandler(service MaterialService) *MaterialHandler {
	return &MaterialHandler{service: service}
}

// Create handles POST /materials
func (h *MaterialHandler) Create(c *gin.Context) {
	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	material, err := h.service.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, material)
}

// List handles GET /materials
func (h *MaterialHandler) List(c *gin.Context) {
	var query dto.MaterialListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := query.ToFilter()
	materials, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, materials, total, filter.Page, filter.PageSize)
}

// GetByID handles GET /materials/:id
func (h *MaterialHandler) GetByID(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	material, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, material)
}

// Update handles PUT /materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	material, err := h.service.Update(c.Request.Context(), id, req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, material)
}

// Void handles POST /materials/:id/void
func (h *MaterialHandler) Void(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.VoidRequest
	if c.Request.ContentLength != 0 && !h.BindJSON(c, &req) {
		return
	}

	material, err := h.service.Void(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, material)
}

// SetProps handles PUT /materials/:id/props
func (h *MaterialHandler) SetProps(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SetPropsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	material, err := h.service.SetProps(c.Request.Context(), id, req.Props)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, material)
}
