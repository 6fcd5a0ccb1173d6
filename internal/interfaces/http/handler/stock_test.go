package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/printshop/backend/internal/interfaces/http/dto"
	"github.com/printshop/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWriteoffService struct {
	mock.Mock
}

func (m *mockWriteoffService) Create(ctx context.Context, in appstock.CreateWriteoffInput, key string) (*appstock.WriteoffResponse, error) {
	args := m.Called(ctx, in, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appstock.WriteoffResponse), args.Error(1)
}

func (m *mockWriteoffService) GetByID(ctx context.Context, id uuid.UUID) (*appstock.WriteoffResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appstock.WriteoffResponse), args.Error(1)
}

func (m *mockWriteoffService) List(ctx context.Context, filter appstock.WriteoffListFilter) ([]appstock.WriteoffResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]appstock.WriteoffResponse), args.Get(1).(int64), args.Error(2)
}

type failingQueries struct {
	QueryService
	err error
}

func (q failingQueries) ControlSummary(context.Context) (*appstock.ControlSummaryResponse, error) {
	return nil, q.err
}

func TestStockHandler_CreateWriteoff_PassesIdempotencyKey(t *testing.T) {
	svc := new(mockWriteoffService)
	h := NewStockHandler(svc, nil)
	materialID := uuid.New()
	created := &appstock.WriteoffResponse{ID: uuid.New(), Reason: "scrap"}

	svc.On("Create", mock.Anything, mock.MatchedBy(func(in appstock.CreateWriteoffInput) bool {
		return in.Reason == "scrap" && len(in.Lines) == 1 && in.Lines[0].MaterialID == materialID
	}), "key-42").Return(created, nil)

	c, w := newTestContext(http.MethodPost, "/stock/writeoffs",
		`{"reason":"scrap","lines":[{"material_id":"`+materialID.String()+`","qty":"2.5"}]}`)
	c.Request.Header.Set(middleware.IdempotencyKeyHeader, "key-42")

	h.CreateWriteoff(c)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestStockHandler_CreateWriteoff_Contention(t *testing.T) {
	svc := new(mockWriteoffService)
	h := NewStockHandler(svc, nil)
	svc.On("Create", mock.Anything, mock.Anything, "").Return(nil, stock.ErrContention)

	c, w := newTestContext(http.MethodPost, "/stock/writeoffs",
		`{"reason":"production","lines":[{"material_id":"`+uuid.NewString()+`","qty":"1"}]}`)

	h.CreateWriteoff(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeContention, resp.Error.Code)
}

func TestStockHandler_CreateWriteoff_InProgress(t *testing.T) {
	svc := new(mockWriteoffService)
	h := NewStockHandler(svc, nil)
	svc.On("Create", mock.Anything, mock.Anything, "dup").Return(nil, appstock.ErrRequestInProgress)

	c, w := newTestContext(http.MethodPost, "/stock/writeoffs",
		`{"reason":"other","lines":[{"material_id":"`+uuid.NewString()+`","qty":"1"}]}`)
	c.Request.Header.Set(middleware.IdempotencyKeyHeader, "dup")

	h.CreateWriteoff(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeRequestInProgress, decodeResponse(t, w).Error.Code)
}

func TestStockHandler_ListWriteoffs_Meta(t *testing.T) {
	svc := new(mockWriteoffService)
	h := NewStockHandler(svc, nil)
	svc.On("List", mock.Anything, appstock.WriteoffListFilter{Reason: "scrap", Page: 2, PageSize: 5}).
		Return([]appstock.WriteoffResponse{{ID: uuid.New()}}, int64(6), nil)

	c, w := newTestContext(http.MethodGet, "/stock/writeoffs?reason=scrap&page=2&page_size=5", "")

	h.ListWriteoffs(c)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(6), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)
	svc.AssertExpectations(t)
}

func TestStockHandler_Control_Error(t *testing.T) {
	h := NewStockHandler(nil, failingQueries{err: errors.New("db down")})
	c, w := newTestContext(http.MethodGet, "/stock/control", "")

	h.Control(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Len(t, c.Errors, 1)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthHandler(t *testing.T) {
	c, w := newTestContext(http.MethodGet, "/health", "")
	NewHealthHandler(stubPinger{}, "1.2.3").Health(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"1.2.3"`)

	c, w = newTestContext(http.MethodGet, "/health", "")
	NewHealthHandler(stubPinger{err: errors.New("connection refused")}, "1.2.3").Health(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestGinRouteParams(t *testing.T) {
	// material_id is the on-hand path parameter name
	c, w := newTestContext(http.MethodGet, "/stock/on-hand/x", "")
	c.Params = gin.Params{{Key: "material_id", Value: "x"}}
	NewStockHandler(nil, nil).OnHand(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "material_id", decodeResponse(t, w).Error.Fields[0].Field)
}
