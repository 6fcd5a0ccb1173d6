package stock

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerDiscrepancy is a lot whose stored remainder disagrees with its movements
type LedgerDiscrepancy struct {
	LotID      uuid.UUID       `json:"lot_id"`
	MaterialID uuid.UUID       `json:"material_id"`
	Stored     decimal.Decimal `json:"stored_remaining"`
	Replayed   decimal.Decimal `json:"replayed_remaining"`
	Problem    string          `json:"problem"`
}

// MaterialBalance compares lot remainders with the ledger for one material
type MaterialBalance struct {
	MaterialID uuid.UUID       `json:"material_id"`
	OnHand     decimal.Decimal `json:"on_hand"`
	LedgerQty  decimal.Decimal `json:"ledger_qty"`
	Balanced   bool            `json:"balanced"`
}

// ReplayLedger replays lot movements and compares them against stored lots.
// It returns per-material balances (sorted by material id) and any per-lot
// discrepancies: remainder mismatch, negative remainder, or movements that
// reference an unknown lot. Movements without a lot are ignored.
func ReplayLedger(lots []*Lot, movements []*Movement) ([]MaterialBalance, []LedgerDiscrepancy) {
	replayed := make(map[uuid.UUID]decimal.Decimal, len(lots))
	known := make(map[uuid.UUID]*Lot, len(lots))
	for _, lot := range lots {
		known[lot.ID] = lot
		replayed[lot.ID] = decimal.Zero
	}

	balances := make(map[uuid.UUID]*MaterialBalance)
	balance := func(id uuid.UUID) *MaterialBalance {
		b, ok := balances[id]
		if !ok {
			b = &MaterialBalance{MaterialID: id, OnHand: decimal.Zero, LedgerQty: decimal.Zero}
			balances[id] = b
		}
		return b
	}

	var discrepancies []LedgerDiscrepancy
	orphans := make(map[uuid.UUID]decimal.Decimal)
	orphanMaterial := make(map[uuid.UUID]uuid.UUID)
	for _, mv := range movements {
		if !mv.IsLotMovement() {
			continue
		}
		balance(mv.MaterialID).LedgerQty = balance(mv.MaterialID).LedgerQty.Add(mv.Qty)
		if _, ok := known[*mv.LotID]; !ok {
			orphans[*mv.LotID] = orphans[*mv.LotID].Add(mv.Qty)
			orphanMaterial[*mv.LotID] = mv.MaterialID
			continue
		}
		replayed[*mv.LotID] = replayed[*mv.LotID].Add(mv.Qty)
	}

	for _, lot := range lots {
		b := balance(lot.MaterialID)
		b.OnHand = b.OnHand.Add(lot.Remaining())
		switch {
		case lot.Remaining().IsNegative():
			discrepancies = append(discrepancies, LedgerDiscrepancy{
				LotID: lot.ID, MaterialID: lot.MaterialID,
				Stored: lot.Remaining(), Replayed: replayed[lot.ID],
				Problem: "negative remainder",
			})
		case !lot.Remaining().Equal(replayed[lot.ID]):
			discrepancies = append(discrepancies, LedgerDiscrepancy{
				LotID: lot.ID, MaterialID: lot.MaterialID,
				Stored: lot.Remaining(), Replayed: replayed[lot.ID],
				Problem: "remainder does not match movements",
			})
		}
	}
	for lotID, qty := range orphans {
		discrepancies = append(discrepancies, LedgerDiscrepancy{
			LotID: lotID, MaterialID: orphanMaterial[lotID],
			Stored: decimal.Zero, Replayed: qty,
			Problem: "movements reference unknown lot",
		})
	}

	result := make([]MaterialBalance, 0, len(balances))
	for _, b := range balances {
		b.Balanced = b.OnHand.Equal(b.LedgerQty)
		result = append(result, *b)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].MaterialID.String() < result[j].MaterialID.String()
	})
	sort.Slice(discrepancies, func(i, j int) bool {
		return discrepancies[i].LotID.String() < discrepancies[j].LotID.String()
	})
	return result, discrepancies
}
