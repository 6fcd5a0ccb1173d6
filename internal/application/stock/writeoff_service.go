package stock

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// RetryConfig bounds how often a write-off is re-run after losing a lot race
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryConfig returns the default write-off retry policy
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Backoff: 50 * time.Millisecond}
}

// WriteoffService resolves write-off documents against FIFO lots
type WriteoffService struct {
	writeoffRepo stock.WriteoffRepository
	txScope      TransactionScope
	retry        RetryConfig
	support
}

// NewWriteoffService creates a new WriteoffService
func NewWriteoffService(writeoffRepo stock.WriteoffRepository, txScope TransactionScope, retry RetryConfig, opts ...Option) *WriteoffService {
	if retry.MaxAttempts < 1 {
		retry.MaxAttempts = 1
	}
	return &WriteoffService{
		writeoffRepo: writeoffRepo,
		txScope:      txScope,
		retry:        retry,
		support:      newSupport(opts),
	}
}

// Create consumes every line of the write-off from the oldest lots first.
// Either all lines are covered and the document is committed together with
// its lot updates and CONSUMPTION movements, or nothing is written.
//
// Losing a lot race (ErrContention) re-runs the whole allocation against a
// fresh read, up to RetryConfig.MaxAttempts times.
func (s *WriteoffService) Create(ctx context.Context, in CreateWriteoffInput, idempotencyKey string) (*WriteoffResponse, error) {
	return idempotent(ctx, &s.support, "writeoff", idempotencyKey, s.GetByID,
		func() (*WriteoffResponse, uuid.UUID, error) {
			doc, err := s.createWithRetry(ctx, in)
			if err != nil {
				return nil, uuid.Nil, err
			}
			resp := ToWriteoffResponse(doc)
			return &resp, doc.ID, nil
		})
}

func (s *WriteoffService) createWithRetry(ctx context.Context, in CreateWriteoffInput) (*stock.WriteoffDocument, error) {
	if len(in.Lines) == 0 {
		return nil, stock.NewValidationError("write-off must have at least one line")
	}

	var (
		doc *stock.WriteoffDocument
		err error
	)
	for attempt := 1; attempt <= s.retry.MaxAttempts; attempt++ {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var txErr error
			doc, txErr = s.resolve(ctx, repos, in)
			return txErr
		})
		if !errors.Is(err, stock.ErrContention) || attempt == s.retry.MaxAttempts {
			break
		}

		s.metrics.ContentionRetry(ctx, attempt)
		s.logger.Warn("write-off lost a lot race, retrying",
			zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.retry.Backoff * time.Duration(attempt)):
		}
	}

	if err != nil {
		var insufficient *stock.InsufficientStockError
		switch {
		case errors.As(err, &insufficient):
			s.metrics.InsufficientStock(ctx)
			s.logger.Info("write-off rejected: insufficient stock",
				zap.String("material_id", insufficient.MaterialID.String()),
				zap.String("shortfall", insufficient.Shortfall.String()))
		case errors.Is(err, stock.ErrContention):
			s.logger.Warn("write-off gave up after contention", zap.Int("attempts", s.retry.MaxAttempts))
			return nil, stock.ErrContention
		}
		return nil, err
	}

	s.logger.Info("write-off created",
		zap.String("document_id", doc.ID.String()),
		zap.String("reason", string(doc.Reason)),
		zap.String("total_cost", doc.TotalCost.String()))
	s.metrics.WriteoffCreated(ctx, string(doc.Reason), doc.TotalCost)
	s.publishPending(ctx, doc)
	return doc, nil
}

// resolve is one attempt. Lots of every material on the document are locked
// up front in ascending id order; allocation then walks them in FIFO order in
// memory so that two lines of the same material see each other's consumption.
func (s *WriteoffService) resolve(ctx context.Context, repos TransactionalRepositories, in CreateWriteoffInput) (*stock.WriteoffDocument, error) {
	now := s.now()
	doc, err := stock.NewWriteoffDocument(stock.WriteoffReason(strings.ToLower(strings.TrimSpace(in.Reason))), in.Comment, now)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.MaterialID)
	}
	materials, err := repos.MaterialRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, l := range in.Lines {
		m, ok := materials[l.MaterialID]
		if !ok {
			return nil, stock.NewValidationError("line %d: material %s not found", len(doc.Lines)+1, l.MaterialID)
		}
		if _, err := doc.AddLine(m, stock.WriteoffLineInput{
			MaterialID:  l.MaterialID,
			Qty:         l.Qty,
			UOM:         l.UOM,
			UOMFactor:   l.UOMFactor,
			RollLengthM: l.RollLengthM,
		}); err != nil {
			return nil, err
		}
	}

	lots, err := repos.LotRepo().LockAvailableByMaterials(ctx, doc.MaterialIDs())
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*stock.Lot, len(lots))
	for _, lot := range lots {
		byID[lot.ID] = lot
	}

	touched := make(map[uuid.UUID]*stock.Lot)
	movements := make([]*stock.Movement, 0, len(doc.Lines))
	for i := range doc.Lines {
		line := &doc.Lines[i]
		allocs, err := stock.AllocateFIFO(line.MaterialID, lots, line.QtyBase)
		if err != nil {
			return nil, err
		}
		for _, a := range allocs {
			lot := byID[a.LotID]
			if err := lot.Consume(a.Qty, now); err != nil {
				return nil, err
			}
			touched[lot.ID] = lot
			movements = append(movements, stock.NewConsumptionMovement(lot, a.Qty, doc, line, now))
		}
		doc.SetAllocations(i, allocs)
	}

	ordered := make([]*stock.Lot, 0, len(touched))
	for _, lot := range touched {
		ordered = append(ordered, lot)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].ID.String() < ordered[j].ID.String()
	})
	for _, lot := range ordered {
		if err := repos.LotRepo().SaveConsumption(ctx, lot); err != nil {
			return nil, err
		}
	}

	if err := repos.WriteoffRepo().Create(ctx, doc); err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Append(ctx, movements...); err != nil {
		return nil, err
	}
	doc.RecordCreated()
	return doc, nil
}

// GetByID returns a write-off with its lot allocations
func (s *WriteoffService) GetByID(ctx context.Context, id uuid.UUID) (*WriteoffResponse, error) {
	doc, err := s.writeoffRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToWriteoffResponse(doc)
	return &resp, nil
}

// List returns a page of write-offs, newest first
func (s *WriteoffService) List(ctx context.Context, filter WriteoffListFilter) ([]WriteoffResponse, int64, error) {
	reason := stock.WriteoffReason(strings.ToLower(strings.TrimSpace(filter.Reason)))
	if reason != "" && !reason.IsValid() {
		return nil, 0, stock.NewValidationError("unknown write-off reason %q", filter.Reason)
	}
	docs, total, err := s.writeoffRepo.FindAll(ctx, stock.WriteoffFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: orDefault(filter.OrderDir, "desc"),
		},
		Reason: reason,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]WriteoffResponse, 0, len(docs))
	for i := range docs {
		out = append(out, ToWriteoffResponse(&docs[i]))
	}
	return out, total, nil
}
