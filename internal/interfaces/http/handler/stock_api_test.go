package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstock "github.com/printshop/backend/internal/application/stock"
	"github.com/printshop/backend/internal/infrastructure/persistence"
	"github.com/printshop/backend/internal/infrastructure/persistence/models"
	"github.com/printshop/backend/internal/interfaces/http/dto"
	"github.com/printshop/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// stockAPI serves the stock handlers over an in-memory SQLite database
type stockAPI struct {
	t      *testing.T
	engine *gin.Engine
}

func newStockAPI(t *testing.T) *stockAPI {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	// strictly increasing timestamps keep FIFO order equal to posting order
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := appstock.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	})

	materialRepo := persistence.NewGormMaterialRepository(db)
	purchaseRepo := persistence.NewGormPurchaseRepository(db)
	lotRepo := persistence.NewGormLotRepository(db)
	movementRepo := persistence.NewGormMovementRepository(db)
	scope := persistence.NewGormTransactionScope(db, time.Second)

	materials := NewMaterialHandler(appstock.NewMaterialService(materialRepo, scope, clock))
	purchases := NewPurchaseHandler(appstock.NewPurchaseService(purchaseRepo, scope, clock))
	stockHandler := NewStockHandler(
		appstock.NewWriteoffService(persistence.NewGormWriteoffRepository(db), scope,
			appstock.RetryConfig{MaxAttempts: 3, Backoff: time.Millisecond}, clock),
		appstock.NewQueryService(materialRepo, purchaseRepo, lotRepo, movementRepo, scope),
	)

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.POST("/materials", materials.Create)
	api.GET("/materials", materials.List)
	api.GET("/materials/:id", materials.GetByID)
	api.PUT("/materials/:id", materials.Update)
	api.POST("/materials/:id/void", materials.Void)
	api.PUT("/materials/:id/props", materials.SetProps)
	api.POST("/purchases", purchases.Create)
	api.GET("/purchases", purchases.List)
	api.GET("/purchases/:id", purchases.GetByID)
	api.POST("/purchases/:id/post", purchases.Post)
	api.POST("/purchases/:id/void", purchases.Void)
	api.POST("/stock/writeoffs", stockHandler.CreateWriteoff)
	api.GET("/stock/writeoffs", stockHandler.ListWriteoffs)
	api.GET("/stock/writeoffs/:id", stockHandler.GetWriteoff)
	api.GET("/stock/lots", stockHandler.ListLots)
	api.GET("/stock/movements", stockHandler.ListMovements)
	api.GET("/stock/on-hand", stockHandler.OnHandAll)
	api.GET("/stock/on-hand/:material_id", stockHandler.OnHand)
	api.GET("/stock/reconcile", stockHandler.Reconcile)
	api.GET("/stock/control", stockHandler.Control)

	return &stockAPI{t: t, engine: r}
}

func (a *stockAPI) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// data decodes the envelope and unmarshals its data into out
func (a *stockAPI) data(w *httptest.ResponseRecorder, out any) dto.Response {
	a.t.Helper()
	var env struct {
		dto.Response
		Data json.RawMessage `json:"data"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out), w.Body.String())
	}
	return env.Response
}

func (a *stockAPI) createMaterial(name string) uuid.UUID {
	a.t.Helper()
	w := a.do(http.MethodPost, "/materials", gin.H{"name": name, "category": "film", "base_uom": "m2"})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var m appstock.MaterialResponse
	a.data(w, &m)
	return m.ID
}

func (a *stockAPI) createPurchase(materialID uuid.UUID, qty, price string) appstock.PurchaseResponse {
	a.t.Helper()
	w := a.do(http.MethodPost, "/purchases", gin.H{
		"supplier": "Oracal",
		"doc_date": "2024-03-01",
		"lines":    []gin.H{{"material_id": materialID, "qty": qty, "unit_price": price}},
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var doc appstock.PurchaseResponse
	a.data(w, &doc)
	return doc
}

func (a *stockAPI) receive(materialID uuid.UUID, qty, price string) {
	a.t.Helper()
	doc := a.createPurchase(materialID, qty, price)
	w := a.do(http.MethodPost, "/purchases/"+doc.ID.String()+"/post", nil)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
}

func writeoffBody(materialID uuid.UUID, qty string) gin.H {
	return gin.H{
		"reason": "production",
		"lines":  []gin.H{{"material_id": materialID, "qty": qty}},
	}
}

func TestStockAPI_PurchaseLifecycle(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 641 white")

	doc := api.createPurchase(film, "100", "2")
	assert.Equal(t, "DRAFT", doc.Status)
	assert.Equal(t, "2024-03-01", doc.DocDate.Format(dto.DateLayout))

	var lots []appstock.LotResponse
	api.data(api.do(http.MethodGet, "/stock/lots?material_id="+film.String(), nil), &lots)
	assert.Empty(t, lots)

	w := api.do(http.MethodPost, "/purchases/"+doc.ID.String()+"/post", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var posted appstock.PurchaseResponse
	api.data(w, &posted)
	assert.Equal(t, "POSTED", posted.Status)

	t.Run("second post is rejected", func(t *testing.T) {
		w := api.do(http.MethodPost, "/purchases/"+doc.ID.String()+"/post", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		resp := api.data(w, nil)
		assert.Equal(t, dto.ErrCodeAlreadyFinalized, resp.Error.Code)
	})

	t.Run("posted document cannot be voided", func(t *testing.T) {
		w := api.do(http.MethodPost, "/purchases/"+doc.ID.String()+"/void", gin.H{"reason": "typo"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	api.data(api.do(http.MethodGet, "/stock/lots?material_id="+film.String(), nil), &lots)
	require.Len(t, lots, 1)
	assert.True(t, lots[0].QtyRemaining.Equal(decimal.NewFromInt(100)))

	var position appstock.OnHandResponse
	api.data(api.do(http.MethodGet, "/stock/on-hand/"+film.String(), nil), &position)
	assert.True(t, position.OnHand.Equal(decimal.NewFromInt(100)))
	assert.True(t, position.Value.Equal(decimal.NewFromInt(200)))
}

func TestStockAPI_VoidDraft(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 651 red")
	doc := api.createPurchase(film, "5", "1")

	w := api.do(http.MethodPost, "/purchases/"+doc.ID.String()+"/void", gin.H{"reason": "duplicate"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var voided appstock.PurchaseResponse
	api.data(w, &voided)
	assert.Equal(t, "VOID", voided.Status)
	assert.Equal(t, "duplicate", voided.VoidReason)

	w = api.do(http.MethodPost, "/purchases/"+doc.ID.String()+"/post", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var list []appstock.PurchaseResponse
	resp := api.data(api.do(http.MethodGet, "/purchases?status=VOID", nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, int64(1), resp.Meta.Total)
}

func TestStockAPI_WriteoffFIFO(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 641 black")
	api.receive(film, "10", "1")
	api.receive(film, "10", "3")

	w := api.do(http.MethodPost, "/stock/writeoffs", writeoffBody(film, "15"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var wo appstock.WriteoffResponse
	api.data(w, &wo)
	require.Len(t, wo.Lines, 1)
	require.Len(t, wo.Lines[0].Allocations, 2)
	assert.True(t, wo.TotalCost.Equal(decimal.NewFromInt(25)), "got %s", wo.TotalCost)

	var fetched appstock.WriteoffResponse
	api.data(api.do(http.MethodGet, "/stock/writeoffs/"+wo.ID.String(), nil), &fetched)
	assert.Equal(t, wo.ID, fetched.ID)

	var movements []appstock.MovementResponse
	api.data(api.do(http.MethodGet, "/stock/movements?ref_type=WRITEOFF&material_id="+film.String(), nil), &movements)
	assert.Len(t, movements, 2)

	var report appstock.ReconcileResponse
	api.data(api.do(http.MethodGet, "/stock/reconcile", nil), &report)
	assert.True(t, report.Balanced)
}

func TestStockAPI_WriteoffInsufficient(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 970 matte")
	api.receive(film, "4", "1")

	w := api.do(http.MethodPost, "/stock/writeoffs", writeoffBody(film, "10"))
	assert.Equal(t, http.StatusConflict, w.Code)
	resp := api.data(w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInsufficientStock, resp.Error.Code)
	assert.Equal(t, film.String(), resp.Error.Details["material_id"])
	assert.Equal(t, "6", resp.Error.Details["shortfall"])

	var position appstock.OnHandResponse
	api.data(api.do(http.MethodGet, "/stock/on-hand/"+film.String(), nil), &position)
	assert.True(t, position.OnHand.Equal(decimal.NewFromInt(4)), "nothing was consumed")
}

func TestStockAPI_Validation(t *testing.T) {
	api := newStockAPI(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"material without name", http.MethodPost, "/materials", gin.H{"base_uom": "m2"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"purchase without lines", http.MethodPost, "/purchases", gin.H{"supplier": "x"}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"purchase bad date", http.MethodPost, "/purchases", gin.H{"doc_date": "01.03.2024", "lines": []gin.H{{"material_name": "x", "qty": "1"}}}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"writeoff bad reason", http.MethodPost, "/stock/writeoffs", gin.H{"reason": "lost", "lines": []gin.H{{"material_id": uuid.New(), "qty": "1"}}}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"writeoff zero qty", http.MethodPost, "/stock/writeoffs", writeoffBody(uuid.New(), "0"), http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown material", http.MethodGet, "/materials/" + uuid.NewString(), nil, http.StatusNotFound, dto.ErrCodeNotFound},
		{"bad id", http.MethodGet, "/purchases/abc", nil, http.StatusBadRequest, dto.ErrCodeValidation},
		{"bad movement filter", http.MethodGet, "/stock/movements?ref_type=SALE", nil, http.StatusBadRequest, dto.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			resp := api.data(w, nil)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestStockAPI_Materials(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Avery 700")

	w := api.do(http.MethodPut, "/materials/"+film.String()+"/props", gin.H{"props": gin.H{"color": "white", "width_mm": "1260"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var m appstock.MaterialResponse
	api.data(w, &m)
	assert.Equal(t, "1260", m.Props["width_mm"])

	w = api.do(http.MethodPut, "/materials/"+film.String(), gin.H{"name": "Avery 700 Premium", "category": "film", "base_uom": "m2", "is_lot_tracked": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	api.data(w, &m)
	assert.Equal(t, "Avery 700 Premium", m.Name)

	var list []appstock.MaterialResponse
	resp := api.data(api.do(http.MethodGet, "/materials?search=Avery", nil), &list)
	require.Len(t, list, 1)
	assert.Equal(t, 1, resp.Meta.Page)

	w = api.do(http.MethodPost, "/materials/"+film.String()+"/void", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	api.data(w, &m)
	assert.True(t, m.IsVoid)

	api.data(api.do(http.MethodGet, "/materials", nil), &list)
	assert.Empty(t, list)
}

func TestStockAPI_Control(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 8500")
	api.createPurchase(film, "1", "1")

	var summary appstock.ControlSummaryResponse
	api.data(api.do(http.MethodGet, "/stock/control", nil), &summary)
	assert.Equal(t, int64(1), summary.DraftPurchases)

	var positions []appstock.OnHandResponse
	w := api.do(http.MethodGet, "/stock/on-hand", nil)
	require.Equal(t, http.StatusOK, w.Code)
	api.data(w, &positions)
}

func TestStockAPI_WriteoffBadUnitConversion(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 751 gold")
	api.receive(film, "10", "1")

	w := api.do(http.MethodPost, "/stock/writeoffs", gin.H{
		"reason": "production",
		"lines":  []gin.H{{"material_id": film, "qty": "1", "uom": "box"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	resp := api.data(w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

	var position appstock.OnHandResponse
	api.data(api.do(http.MethodGet, "/stock/on-hand/"+film.String(), nil), &position)
	assert.True(t, position.OnHand.Equal(decimal.NewFromInt(10)))
}

func TestStockAPI_WriteoffFromVoidedMaterial(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 631 grey")
	api.receive(film, "6", "2")

	w := api.do(http.MethodPost, "/materials/"+film.String()+"/void", gin.H{"reason": "discontinued"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/purchases", gin.H{
		"supplier": "Oracal",
		"lines":    []gin.H{{"material_id": film, "qty": "1", "unit_price": "2"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "no new receipts for a void material")

	w = api.do(http.MethodPost, "/stock/writeoffs", writeoffBody(film, "6"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var wo appstock.WriteoffResponse
	api.data(w, &wo)
	assert.True(t, wo.TotalCost.Equal(decimal.NewFromInt(12)))
}

func TestStockAPI_BaseUnitLockedByDraft(t *testing.T) {
	api := newStockAPI(t)
	film := api.createMaterial("Oracal 8300 blue")
	api.createPurchase(film, "3", "1")

	w := api.do(http.MethodPut, "/materials/"+film.String(), gin.H{
		"name": "Oracal 8300 blue", "category": "film", "base_uom": "pcs", "is_lot_tracked": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	resp := api.data(w, nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}
