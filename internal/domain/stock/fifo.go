package stock

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SortFIFO orders lots oldest first, ties broken by ascending lot id
func SortFIFO(lots []*Lot) {
	sort.SliceStable(lots, func(i, j int) bool {
		return lots[i].Before(lots[j])
	})
}

// AllocateFIFO plans the consumption of qty of a material across lots.
// Lots of other materials and empty lots are skipped; no newer lot is touched
// while an older one still has a remainder. The lots are not modified.
func AllocateFIFO(materialID uuid.UUID, lots []*Lot, qty decimal.Decimal) ([]Allocation, error) {
	if !qty.IsPositive() {
		return nil, NewValidationError("quantity to allocate must be positive")
	}

	candidates := make([]*Lot, 0, len(lots))
	for _, lot := range lots {
		if lot.MaterialID == materialID && lot.HasRemaining() {
			candidates = append(candidates, lot)
		}
	}
	SortFIFO(candidates)

	allocations := make([]Allocation, 0, 1)
	needed := qty
	available := decimal.Zero
	for _, lot := range candidates {
		remaining := lot.Remaining()
		available = available.Add(remaining)
		if needed.IsZero() {
			continue
		}
		take := decimal.Min(needed, remaining)
		allocations = append(allocations, Allocation{
			LotID:    lot.ID,
			Qty:      take,
			UnitCost: lot.UnitCost,
			Cost:     take.Mul(lot.UnitCost).Round(AmountScale),
		})
		needed = needed.Sub(take)
	}

	if needed.IsPositive() {
		return nil, NewInsufficientStockError(materialID, qty, available)
	}
	return allocations, nil
}
