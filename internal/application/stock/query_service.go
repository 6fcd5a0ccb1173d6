package stock

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// QueryService is the read side over lots and the movement ledger
type QueryService struct {
	materialRepo stock.MaterialRepository
	purchaseRepo stock.PurchaseRepository
	lotRepo      stock.LotRepository
	movementRepo stock.MovementRepository
	txScope      TransactionScope
}

// NewQueryService creates a new QueryService
func NewQueryService(
	materialRepo stock.MaterialRepository,
	purchaseRepo stock.PurchaseRepository,
	lotRepo stock.LotRepository,
	movementRepo stock.MovementRepository,
	txScope TransactionScope,
) *QueryService {
	return &QueryService{
		materialRepo: materialRepo,
		purchaseRepo: purchaseRepo,
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		txScope:      txScope,
	}
}

// ListLots returns lots in FIFO order joined with their material
func (s *QueryService) ListLots(ctx context.Context, filter LotListFilter) ([]LotResponse, error) {
	lots, err := s.lotRepo.FindAll(ctx, stock.LotFilter{MaterialID: filter.MaterialID, OnlyAvailable: filter.OnlyAvailable})
	if err != nil {
		return nil, err
	}
	materials, err := s.materialsFor(ctx, len(lots), func(i int) uuid.UUID { return lots[i].MaterialID })
	if err != nil {
		return nil, err
	}

	out := make([]LotResponse, 0, len(lots))
	for i := range lots {
		lot := &lots[i]
		resp := LotResponse{
			ID:             lot.ID,
			MaterialID:     lot.MaterialID,
			PurchaseDocID:  lot.PurchaseDocID,
			PurchaseLineID: lot.PurchaseLineID,
			QtyIn:          lot.QtyIn,
			QtyOut:         lot.QtyOut,
			QtyRemaining:   lot.Remaining(),
			UnitCost:       lot.UnitCost,
			CreatedAt:      lot.CreatedAt,
		}
		if m, ok := materials[lot.MaterialID]; ok {
			resp.MaterialName = m.Name
			resp.MaterialCategory = m.Category
			resp.BaseUOM = m.BaseUOM
		}
		out = append(out, resp)
	}
	return out, nil
}

// StockOnHand returns the remaining quantity and FIFO value of one material
func (s *QueryService) StockOnHand(ctx context.Context, materialID uuid.UUID) (*OnHandResponse, error) {
	m, err := s.materialRepo.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}
	lots, err := s.lotRepo.FindAll(ctx, stock.LotFilter{MaterialID: &materialID, OnlyAvailable: true})
	if err != nil {
		return nil, err
	}
	resp := onHand(m, lots)
	return &resp, nil
}

// StockOnHandAll returns the stock position of every material that has stock
func (s *QueryService) StockOnHandAll(ctx context.Context) ([]OnHandResponse, error) {
	lots, err := s.lotRepo.FindAll(ctx, stock.LotFilter{OnlyAvailable: true})
	if err != nil {
		return nil, err
	}
	grouped := make(map[uuid.UUID][]stock.Lot)
	for _, lot := range lots {
		grouped[lot.MaterialID] = append(grouped[lot.MaterialID], lot)
	}
	ids := make([]uuid.UUID, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}
	materials, err := s.materialRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]OnHandResponse, 0, len(grouped))
	for id, group := range grouped {
		m, ok := materials[id]
		if !ok {
			m = &stock.Material{}
			m.ID = id
		}
		out = append(out, onHand(m, group))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaterialName != out[j].MaterialName {
			return out[i].MaterialName < out[j].MaterialName
		}
		return out[i].MaterialID.String() < out[j].MaterialID.String()
	})
	return out, nil
}

func onHand(m *stock.Material, lots []stock.Lot) OnHandResponse {
	qty := decimal.Zero
	value := decimal.Zero
	for i := range lots {
		qty = qty.Add(lots[i].Remaining())
		value = value.Add(lots[i].Remaining().Mul(lots[i].UnitCost))
	}
	weighted := decimal.Zero
	if qty.IsPositive() {
		weighted = value.Div(qty).Round(stock.CostScale)
	}
	return OnHandResponse{
		MaterialID:   m.ID,
		MaterialName: m.Name,
		BaseUOM:      m.BaseUOM,
		OnHand:       qty,
		Value:        value.Round(stock.AmountScale),
		WeightedCost: weighted,
		LotCount:     len(lots),
	}
}

// ListMovements returns ledger entries newest first, at most stock.MaxMovementsPage
func (s *QueryService) ListMovements(ctx context.Context, filter MovementListFilter) ([]MovementResponse, error) {
	refType := stock.RefType(strings.ToUpper(strings.TrimSpace(filter.RefType)))
	if refType != "" && refType != stock.RefPurchase && refType != stock.RefWriteoff {
		return nil, stock.NewValidationError("unknown ref_type %q", filter.RefType)
	}
	limit := filter.Limit
	if limit <= 0 || limit > stock.MaxMovementsPage {
		limit = stock.MaxMovementsPage
	}

	movements, err := s.movementRepo.FindAll(ctx, stock.MovementFilter{
		MaterialID: filter.MaterialID,
		LotID:      filter.LotID,
		RefType:    refType,
		RefID:      filter.RefID,
		Limit:      limit,
	})
	if err != nil {
		return nil, err
	}
	materials, err := s.materialsFor(ctx, len(movements), func(i int) uuid.UUID { return movements[i].MaterialID })
	if err != nil {
		return nil, err
	}

	out := make([]MovementResponse, 0, len(movements))
	for _, mv := range movements {
		resp := MovementResponse{
			ID:         mv.ID,
			LotID:      mv.LotID,
			MaterialID: mv.MaterialID,
			Type:       string(mv.Type),
			Qty:        mv.Qty,
			UnitCost:   mv.UnitCost,
			RefType:    string(mv.RefType),
			RefID:      mv.RefID,
			RefLineID:  mv.RefLineID,
			Reason:     mv.Reason,
			CreatedAt:  mv.CreatedAt,
		}
		if m, ok := materials[mv.MaterialID]; ok {
			resp.MaterialName = m.Name
		}
		out = append(out, resp)
	}
	return out, nil
}

// Reconcile replays the ledger and compares it with stored lot remainders.
// Lots and movements are read from one snapshot; a write-off committing
// between the two reads would otherwise show up as drift.
func (s *QueryService) Reconcile(ctx context.Context, materialID *uuid.UUID) (*ReconcileResponse, error) {
	var (
		lots      []stock.Lot
		movements []*stock.Movement
	)
	err := s.txScope.Snapshot(ctx, func(repos TransactionalRepositories) error {
		var err error
		lots, err = repos.LotRepo().FindAll(ctx, stock.LotFilter{MaterialID: materialID})
		if err != nil {
			return err
		}
		movements, err = repos.MovementRepo().FindForReplay(ctx, materialID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ptrs := make([]*stock.Lot, 0, len(lots))
	for i := range lots {
		ptrs = append(ptrs, &lots[i])
	}
	balances, discrepancies := stock.ReplayLedger(ptrs, movements)

	balanced := len(discrepancies) == 0
	for _, b := range balances {
		balanced = balanced && b.Balanced
	}
	if discrepancies == nil {
		discrepancies = []stock.LedgerDiscrepancy{}
	}
	return &ReconcileResponse{
		Balanced:      balanced,
		Materials:     balances,
		Discrepancies: discrepancies,
	}, nil
}

// ControlSummary counts draft purchases and materials below their threshold
func (s *QueryService) ControlSummary(ctx context.Context) (*ControlSummaryResponse, error) {
	drafts, err := s.purchaseRepo.CountByStatus(ctx, stock.StatusDraft)
	if err != nil {
		return nil, err
	}
	low, err := s.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	return &ControlSummaryResponse{
		DraftPurchases: drafts,
		LowStockCount:  len(low),
		LowStock:       low,
	}, nil
}

// LowStock lists active materials whose on-hand is below min_stock_base
func (s *QueryService) LowStock(ctx context.Context) ([]LowStockItem, error) {
	materials, err := s.materialRepo.FindWithMinStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(materials) == 0 {
		return []LowStockItem{}, nil
	}
	ptrs := make([]*stock.Material, 0, len(materials))
	for i := range materials {
		ptrs = append(ptrs, &materials[i])
	}
	return lowStock(ctx, s.lotRepo, ptrs)
}

func lowStock(ctx context.Context, lotRepo stock.LotRepository, materials []*stock.Material) ([]LowStockItem, error) {
	ids := make([]uuid.UUID, 0, len(materials))
	for _, m := range materials {
		ids = append(ids, m.ID)
	}
	onHand, err := lotRepo.SumRemaining(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]LowStockItem, 0)
	for _, m := range materials {
		threshold, ok := m.MinStock()
		if !ok || m.IsVoid {
			continue
		}
		qty := onHand[m.ID]
		if qty.LessThan(threshold) {
			out = append(out, LowStockItem{MaterialID: m.ID, MaterialName: m.Name, OnHand: qty, MinStock: threshold})
		}
	}
	return out, nil
}

func (s *QueryService) materialsFor(ctx context.Context, n int, idAt func(i int) uuid.UUID) (map[uuid.UUID]*stock.Material, error) {
	seen := make(map[uuid.UUID]bool)
	ids := make([]uuid.UUID, 0)
	for i := 0; i < n; i++ {
		id := idAt(i)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]*stock.Material{}, nil
	}
	return s.materialRepo.FindByIDs(ctx, ids)
}
