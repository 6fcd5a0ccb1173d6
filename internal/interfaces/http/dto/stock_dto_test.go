package dto

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePurchaseRequest_ToInput(t *testing.T) {
	film := uuid.New()
	body := `{
		"doc_date": "2024-03-01",
		"supplier": "Oracal",
		"doc_no": "INV-7",
		"vat_mode": "vat_included",
		"lines": [
			{"material_id": "` + film.String() + `", "qty": "100", "uom": "m2", "unit_price": 50, "vat_rate": "20"},
			{"material_name": "Delivery", "qty": 1, "unit_price": "15.5", "non_stock": true}
		]
	}`

	var req CreatePurchaseRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))

	in, err := req.ToInput()
	require.NoError(t, err)
	require.NotNil(t, in.DocDate)
	assert.Equal(t, "2024-03-01", in.DocDate.Format(DateLayout))
	assert.Equal(t, "vat_included", in.VATMode)
	require.Len(t, in.Lines, 2)

	assert.Equal(t, film, *in.Lines[0].MaterialID)
	assert.True(t, in.Lines[0].Qty.Equal(decimal.NewFromInt(100)))
	assert.True(t, in.Lines[0].UnitPrice.Equal(decimal.NewFromInt(50)))

	assert.Nil(t, in.Lines[1].MaterialID)
	assert.Equal(t, "Delivery", in.Lines[1].MaterialName)
	assert.True(t, in.Lines[1].NonStock)
	assert.True(t, in.Lines[1].UnitPrice.Equal(decimal.RequireFromString("15.5")))
}

func TestCreatePurchaseRequest_BadDate(t *testing.T) {
	req := CreatePurchaseRequest{DocDate: "01.03.2024"}
	_, err := req.ToInput()
	assert.ErrorContains(t, err, "doc_date")
}

func TestCreateWriteoffRequest_ToInput(t *testing.T) {
	film := uuid.New()
	req := CreateWriteoffRequest{
		Reason: "scrap",
		Lines:  []WriteoffLineRequest{{MaterialID: film.String(), Qty: decimal.NewFromInt(3)}},
	}

	in, err := req.ToInput()
	require.NoError(t, err)
	assert.Equal(t, "scrap", in.Reason)
	assert.Equal(t, film, in.Lines[0].MaterialID)

	req.Lines[0].MaterialID = "not-a-uuid"
	_, err = req.ToInput()
	assert.ErrorContains(t, err, "lines[0].material_id")
}

func TestListQueriesNormalize(t *testing.T) {
	f := MaterialListQuery{IncludeVoid: true}.ToFilter()
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 20, f.PageSize)
	assert.True(t, f.IncludeVoid)

	pf := PurchaseListQuery{ListRequest: ListRequest{Page: 3, PageSize: 50}, Status: "DRAFT"}.ToFilter()
	assert.Equal(t, 3, pf.Page)
	assert.Equal(t, 50, pf.PageSize)
	assert.Equal(t, "DRAFT", pf.Status)
}

func TestMovementListQuery_ToFilter(t *testing.T) {
	lot := uuid.New()
	f, err := MovementListQuery{LotID: lot.String(), RefType: "WRITEOFF", Limit: 10}.ToFilter()
	require.NoError(t, err)
	assert.Nil(t, f.MaterialID)
	assert.Equal(t, lot, *f.LotID)
	assert.Equal(t, "WRITEOFF", f.RefType)
	assert.Equal(t, 10, f.Limit)

	_, err = MovementListQuery{RefID: "nope"}.ToFilter()
	assert.Error(t, err)
}
