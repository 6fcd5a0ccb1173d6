package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/printshop/backend/internal/interfaces/http/dto"
	"github.com/printshop/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.RequestIDKey, "req-1")
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	materialID := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"validation", stock.NewValidationError("qty must be positive"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"already finalized", stock.ErrAlreadyFinalized, http.StatusConflict, dto.ErrCodeAlreadyFinalized},
		{"wrapped finalized", fmt.Errorf("post: %w", stock.ErrAlreadyFinalized), http.StatusConflict, dto.ErrCodeAlreadyFinalized},
		{"insufficient", stock.NewInsufficientStockError(materialID, decimal.NewFromInt(10), decimal.NewFromInt(4)), http.StatusConflict, dto.ErrCodeInsufficientStock},
		{"contention", stock.ErrContention, http.StatusServiceUnavailable, dto.ErrCodeContention},
		{"optimistic lock", shared.ErrConcurrencyConflict, http.StatusServiceUnavailable, dto.ErrCodeContention},
		{"in progress", appstock.ErrRequestInProgress, http.StatusConflict, dto.ErrCodeRequestInProgress},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/", "")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleError_InsufficientDetails(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/", "")
	materialID := uuid.New()

	h.HandleError(c, stock.NewInsufficientStockError(materialID, decimal.RequireFromString("12.5"), decimal.NewFromInt(10)))

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, materialID.String())
	assert.Equal(t, materialID.String(), resp.Error.Details["material_id"])
	assert.Equal(t, "2.5", resp.Error.Details["shortfall"])
	assert.Equal(t, "10", resp.Error.Details["available"])
}

func TestBaseHandler_HandleError_ContentionRetryAfter(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/", "")

	h.HandleError(c, fmt.Errorf("writeoff: %w", stock.ErrContention))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ContentionRetryAfter, w.Header().Get("Retry-After"))
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/", "")

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

func TestBaseHandler_BindJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{"malformed", `{"reason":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON, ""},
		{"empty body", ``, http.StatusBadRequest, dto.ErrCodeInvalidJSON, ""},
		{"missing reason", `{"lines":[{"material_id":"` + uuid.NewString() + `","qty":"1"}]}`, http.StatusBadRequest, dto.ErrCodeValidation, "reason"},
		{"bad line id", `{"reason":"scrap","lines":[{"material_id":"nope","qty":"1"}]}`, http.StatusBadRequest, dto.ErrCodeValidation, "lines[0].material_id"},
		{"wrong type", `{"reason":"scrap","comment":5,"lines":[]}`, http.StatusBadRequest, dto.ErrCodeValidation, "comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodPost, "/", tt.body)

			var req dto.CreateWriteoffRequest
			ok := h.BindJSON(c, &req)

			assert.False(t, ok)
			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.wantField != "" {
				require.NotEmpty(t, resp.Error.Fields)
				assert.Equal(t, tt.wantField, resp.Error.Fields[0].Field)
			}
		})
	}
}

func TestBaseHandler_BindJSON_TooLarge(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/", `{"reason":"scrap","comment":"`+strings.Repeat("x", 64)+`"}`)
	c.Request.Body = http.MaxBytesReader(w, c.Request.Body, 16)

	var req dto.CreateWriteoffRequest
	assert.False(t, h.BindJSON(c, &req))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestBaseHandler_ParseID(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newTestContext(http.MethodGet, "/", "")
	id := uuid.New()
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	got, ok := h.ParseID(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	c, w := newTestContext(http.MethodGet, "/", "")
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	_, ok = h.ParseID(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, "id", resp.Error.Fields[0].Field)
}
