package stock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplayLedger(t *testing.T) {
	materialID := uuid.New()
	now := time.Now()

	receive := func(qty int64) (*Lot, *Movement) {
		lot := newTestLot(materialID, float64(qty), 0, 10, now)
		return lot, NewReceiptMovement(lot)
	}

	t.Run("balanced ledger", func(t *testing.T) {
		lot, receipt := receive(10)
		doc, err := NewWriteoffDocument(ReasonScrap, "", now)
		require.NoError(t, err)
		doc.Lines = append(doc.Lines, WriteoffLine{ID: uuid.New(), MaterialID: materialID})
		require.NoError(t, lot.Consume(decimal.NewFromInt(4), now))
		consumption := NewConsumptionMovement(lot, decimal.NewFromInt(4), doc, &doc.Lines[0], now)
		require.NoError(t, consumption.Validate())
		assert.Equal(t, "scrap", consumption.Reason)

		balances, problems := ReplayLedger([]*Lot{lot}, []*Movement{receipt, consumption})
		assert.Empty(t, problems)
		require.Len(t, balances, 1)
		assert.True(t, balances[0].Balanced)
		assert.True(t, balances[0].OnHand.Equal(decimal.NewFromInt(6)))
	})

	t.Run("detects drift and orphans", func(t *testing.T) {
		lot, receipt := receive(10)
		lot.QtyOut = decimal.NewFromInt(3)

		orphanLot := uuid.New()
		orphan := &Movement{ID: uuid.New(), LotID: &orphanLot, MaterialID: materialID, Type: MovementReceipt, Qty: decimal.NewFromInt(1)}

		balances, problems := ReplayLedger([]*Lot{lot}, []*Movement{receipt, orphan})
		require.Len(t, problems, 2)
		require.Len(t, balances, 1)
		assert.False(t, balances[0].Balanced)
	})

	t.Run("ignores movements without lot", func(t *testing.T) {
		service := mustMaterial(t, "Service", "pcs", false)
		doc, err := NewPurchaseDocument(now, "S", "1", "", VATNone, "")
		require.NoError(t, err)
		require.NoError(t, doc.AddLine(service, PurchaseLineInput{Qty: decimal.NewFromInt(2), NonStock: true}))
		mv := NewNonStockReceiptMovement(doc, &doc.Lines[0], now)
		assert.False(t, mv.IsLotMovement())

		balances, problems := ReplayLedger(nil, []*Movement{mv})
		assert.Empty(t, problems)
		assert.Empty(t, balances)
	})
}

func TestMovement_Validate(t *testing.T) {
	assert.ErrorIs(t, (&Movement{Type: MovementReceipt, Qty: decimal.NewFromInt(-1)}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Movement{Type: MovementConsumption, Qty: decimal.NewFromInt(1)}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Movement{Type: MovementVoidReversal, Qty: decimal.Zero}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&Movement{Type: "ADJUST", Qty: decimal.NewFromInt(1)}).Validate(), ErrValidation)
	assert.NoError(t, (&Movement{Type: MovementVoidReversal, Qty: decimal.NewFromInt(-2)}).Validate())
}
