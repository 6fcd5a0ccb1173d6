package stock

import (
	"context"

	"github.com/printshop/backend/internal/domain/stock"
)

// TransactionScope provides transactional access to stock repositories.
// Every repository handed to fn shares one database transaction; returning an
// error from fn rolls all of it back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
	// Snapshot runs read-only fn against one consistent view of the data, so
	// rows committed by other transactions while fn runs stay invisible.
	Snapshot(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the stock repositories bound to one transaction.
//
// Posting and write-off touch several aggregates at once (documents, lots, the
// ledger), so they must only use the repositories obtained here while inside
// Execute.
type TransactionalRepositories interface {
	MaterialRepo() stock.MaterialRepository
	PurchaseRepo() stock.PurchaseRepository
	LotRepo() stock.LotRepository
	MovementRepo() stock.MovementRepository
	WriteoffRepo() stock.WriteoffRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Used by unit tests with in-memory or mocked repositories.
type NoOpTransactionScope struct {
	materialRepo stock.MaterialRepository
	purchaseRepo stock.PurchaseRepository
	lotRepo      stock.LotRepository
	movementRepo stock.MovementRepository
	writeoffRepo stock.WriteoffRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	materialRepo stock.MaterialRepository,
	purchaseRepo stock.PurchaseRepository,
	lotRepo stock.LotRepository,
	movementRepo stock.MovementRepository,
	writeoffRepo stock.WriteoffRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		materialRepo: materialRepo,
		purchaseRepo: purchaseRepo,
		lotRepo:      lotRepo,
		movementRepo: movementRepo,
		writeoffRepo: writeoffRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// Snapshot runs the function against the plain repositories.
func (s *NoOpTransactionScope) Snapshot(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) MaterialRepo() stock.MaterialRepository { return s.materialRepo }
func (s *NoOpTransactionScope) PurchaseRepo() stock.PurchaseRepository { return s.purchaseRepo }
func (s *NoOpTransactionScope) LotRepo() stock.LotRepository           { return s.lotRepo }
func (s *NoOpTransactionScope) MovementRepo() stock.MovementRepository { return s.movementRepo }
func (s *NoOpTransactionScope) WriteoffRepo() stock.WriteoffRepository { return s.writeoffRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
