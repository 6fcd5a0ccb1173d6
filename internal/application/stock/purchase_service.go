package stock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// AutoCreatedCategory is the category given to materials created from a purchase line name
const AutoCreatedCategory = "film"

// PurchaseService creates, posts and voids purchase documents
type PurchaseService struct {
	purchaseRepo stock.PurchaseRepository
	txScope      TransactionScope
	support
}

// NewPurchaseService creates a new PurchaseService
func NewPurchaseService(purchaseRepo stock.PurchaseRepository, txScope TransactionScope, opts ...Option) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		txScope:      txScope,
		support:      newSupport(opts),
	}
}

// Create stores a DRAFT purchase document. idempotencyKey may be empty.
func (s *PurchaseService) Create(ctx context.Context, in CreatePurchaseInput, idempotencyKey string) (*PurchaseResponse, error) {
	return idempotent(ctx, &s.support, "purchase", idempotencyKey, s.GetByID,
		func() (*PurchaseResponse, uuid.UUID, error) {
			doc, err := s.create(ctx, in)
			if err != nil {
				return nil, uuid.Nil, err
			}
			resp := ToPurchaseResponse(doc)
			return &resp, doc.ID, nil
		})
}

func (s *PurchaseService) create(ctx context.Context, in CreatePurchaseInput) (*stock.PurchaseDocument, error) {
	if len(in.Lines) == 0 {
		return nil, stock.NewValidationError("purchase document must have at least one line")
	}

	docDate := s.now()
	if in.DocDate != nil {
		docDate = *in.DocDate
	}
	doc, err := stock.NewPurchaseDocument(docDate, in.Supplier, in.DocNo, in.PayType, stock.VATMode(strings.TrimSpace(in.VATMode)), in.Comment)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if doc.DocNo != "" {
			exists, err := repos.PurchaseRepo().ExistsDocNo(ctx, doc.Supplier, doc.DocNo)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError("ALREADY_EXISTS",
					fmt.Sprintf("Purchase document %s from %q already exists", doc.DocNo, doc.Supplier))
			}
		}

		for i, line := range in.Lines {
			m, err := s.resolveMaterial(ctx, repos.MaterialRepo(), line)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			if err := doc.AddLine(m, stock.PurchaseLineInput{
				Qty:         line.Qty,
				UOM:         line.UOM,
				UOMFactor:   line.UOMFactor,
				RollLengthM: line.RollLengthM,
				UnitPrice:   line.UnitPrice,
				VATRate:     line.VATRate,
				NonStock:    line.NonStock,
			}); err != nil {
				return err
			}
		}
		return repos.PurchaseRepo().Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("supplier", doc.Supplier),
		zap.Int("lines", len(doc.Lines)))
	return doc, nil
}

// resolveMaterial finds the line's material by id, or by name creating a
// lot-tracked material in the line's unit when the name is new. An existing
// material is share-locked so its base unit cannot change before the line's
// converted quantity commits.
func (s *PurchaseService) resolveMaterial(ctx context.Context, repo stock.MaterialRepository, line PurchaseLineInput) (*stock.Material, error) {
	if line.MaterialID != nil {
		m, err := repo.LockByID(ctx, *line.MaterialID, stock.LockShare)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, stock.NewValidationError("material %s not found", *line.MaterialID)
		}
		return m, err
	}

	name := strings.TrimSpace(line.MaterialName)
	if name == "" {
		return nil, stock.NewValidationError("material_id or material_name is required")
	}
	m, err := repo.FindByName(ctx, name)
	if err == nil {
		return repo.LockByID(ctx, m.ID, stock.LockShare)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	uom := line.UOM
	if strings.TrimSpace(uom) == "" {
		uom = stock.UOMSquareMeter
	}
	m, err = stock.NewMaterial(name, AutoCreatedCategory, uom, true)
	if err != nil {
		return nil, err
	}
	if err := repo.Save(ctx, m); err != nil {
		return nil, err
	}
	s.logger.Info("material created from purchase line", zap.String("material_id", m.ID.String()), zap.String("name", m.Name))
	return m, nil
}

// GetByID returns a purchase document with its lines
func (s *PurchaseService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseResponse, error) {
	doc, err := s.purchaseRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToPurchaseResponse(doc)
	return &resp, nil
}

// List returns a page of purchase documents, newest first
func (s *PurchaseService) List(ctx context.Context, filter PurchaseListFilter) ([]PurchaseResponse, int64, error) {
	status := stock.DocumentStatus(strings.ToUpper(strings.TrimSpace(filter.Status)))
	if status != "" && !status.IsValid() {
		return nil, 0, stock.NewValidationError("unknown status %q", filter.Status)
	}
	docs, total, err := s.purchaseRepo.FindAll(ctx, stock.PurchaseFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			OrderBy:  filter.OrderBy,
			OrderDir: orDefault(filter.OrderDir, "desc"),
		},
		Status:   status,
		Supplier: filter.Supplier,
	})
	if err != nil {
		return nil, 0, err
	}
	out := make([]PurchaseResponse, 0, len(docs))
	for i := range docs {
		out = append(out, ToPurchaseResponse(&docs[i]))
	}
	return out, total, nil
}

// Post turns a DRAFT document into lots and receipt movements in one
// transaction. The status change is a compare-and-swap on DRAFT, so of two
// concurrent posts exactly one creates lots and the other gets ErrAlreadyFinalized.
func (s *PurchaseService) Post(ctx context.Context, id uuid.UUID) (*PurchaseResponse, error) {
	var (
		doc  *stock.PurchaseDocument
		lots []*stock.Lot
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.PurchaseRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := doc.Status
		if from.IsFinal() {
			return stock.ErrAlreadyFinalized
		}

		ids := make([]uuid.UUID, 0, len(doc.Lines))
		for _, l := range doc.Lines {
			ids = append(ids, l.MaterialID)
		}
		materials, err := repos.MaterialRepo().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		now := s.now()
		lots = make([]*stock.Lot, 0, len(doc.Lines))
		movements := make([]*stock.Movement, 0, len(doc.Lines))
		for i := range doc.Lines {
			line := &doc.Lines[i]
			m, ok := materials[line.MaterialID]
			if !ok {
				return stock.NewValidationError("line %d: material %s not found", line.LineNo, line.MaterialID)
			}
			if err := m.CanReceive(); err != nil {
				return err
			}
			switch {
			case m.IsLotTracked:
				lot := stock.NewLotFromLine(doc, line, now)
				lots = append(lots, lot)
				movements = append(movements, stock.NewReceiptMovement(lot))
			case line.NonStock:
				movements = append(movements, stock.NewNonStockReceiptMovement(doc, line, now))
			default:
				return stock.NewValidationError("line %d: material %s is not lot-tracked; mark the line as non_stock", line.LineNo, m.Name)
			}
		}

		if err := doc.MarkPosted(now); err != nil {
			return err
		}
		doc.RecordPosting(lots)
		if err := repos.PurchaseRepo().TransitionStatus(ctx, doc, from); err != nil {
			return err
		}
		if len(lots) > 0 {
			if err := repos.LotRepo().CreateBatch(ctx, lots); err != nil {
				return err
			}
		}
		return repos.MovementRepo().Append(ctx, movements...)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase document posted",
		zap.String("document_id", doc.ID.String()),
		zap.Int("lots", len(lots)))
	s.metrics.PurchasePosted(ctx, len(lots))
	s.publishPending(ctx, doc)

	resp := ToPurchaseResponse(doc)
	return &resp, nil
}

// Void finalizes a DRAFT document without touching stock. Posted documents
// are rejected with ErrAlreadyFinalized.
func (s *PurchaseService) Void(ctx context.Context, id uuid.UUID, reason string) (*PurchaseResponse, error) {
	var doc *stock.PurchaseDocument
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		doc, err = repos.PurchaseRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		from := doc.Status
		if err := doc.Void(reason, s.now()); err != nil {
			return err
		}
		return repos.PurchaseRepo().TransitionStatus(ctx, doc, from)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase document voided", zap.String("document_id", doc.ID.String()))
	resp := ToPurchaseResponse(doc)
	return &resp, nil
}
