package stock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockMaterialRepository is a mock implementation of stock.MaterialRepository
type MockMaterialRepository struct {
	mock.Mock
}

func (m *MockMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Material, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Material), args.Error(1)
}

func (m *MockMaterialRepository) LockByID(ctx context.Context, id uuid.UUID, strength stock.LockStrength) (*stock.Material, error) {
	args := m.Called(ctx, id, strength)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*stock.Material, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*stock.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindByName(ctx context.Context, name string) (*stock.Material, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Material), args.Error(1)
}

func (m *MockMaterialRepository) FindAll(ctx context.Context, filter stock.MaterialFilter) ([]stock.Material, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]stock.Material), args.Get(1).(int64), args.Error(2)
}

func (m *MockMaterialRepository) FindWithMinStock(ctx context.Context) ([]stock.Material, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Material), args.Error(1)
}

func (m *MockMaterialRepository) Save(ctx context.Context, material *stock.Material) error {
	return m.Called(ctx, material).Error(0)
}

// MockPurchaseRepository is a mock implementation of stock.PurchaseRepository
type MockPurchaseRepository struct {
	mock.Mock
}

func (m *MockPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.PurchaseDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.PurchaseDocument), args.Error(1)
}

func (m *MockPurchaseRepository) FindAll(ctx context.Context, filter stock.PurchaseFilter) ([]stock.PurchaseDocument, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]stock.PurchaseDocument), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseRepository) Create(ctx context.Context, doc *stock.PurchaseDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockPurchaseRepository) TransitionStatus(ctx context.Context, doc *stock.PurchaseDocument, from stock.DocumentStatus) error {
	return m.Called(ctx, doc, from).Error(0)
}

func (m *MockPurchaseRepository) CountByStatus(ctx context.Context, status stock.DocumentStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseRepository) ExistsDocNo(ctx context.Context, supplier, docNo string) (bool, error) {
	args := m.Called(ctx, supplier, docNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseRepository) HasDraftLines(ctx context.Context, materialID uuid.UUID) (bool, error) {
	args := m.Called(ctx, materialID)
	return args.Bool(0), args.Error(1)
}

// MockLotRepository is a mock implementation of stock.LotRepository
type MockLotRepository struct {
	mock.Mock
}

func (m *MockLotRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Lot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.Lot), args.Error(1)
}

func (m *MockLotRepository) FindAll(ctx context.Context, filter stock.LotFilter) ([]stock.Lot, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Lot), args.Error(1)
}

func (m *MockLotRepository) LockAvailableByMaterials(ctx context.Context, materialIDs []uuid.UUID) ([]*stock.Lot, error) {
	args := m.Called(ctx, materialIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*stock.Lot), args.Error(1)
}

func (m *MockLotRepository) CreateBatch(ctx context.Context, lots []*stock.Lot) error {
	return m.Called(ctx, lots).Error(0)
}

func (m *MockLotRepository) SaveConsumption(ctx context.Context, lot *stock.Lot) error {
	return m.Called(ctx, lot).Error(0)
}

func (m *MockLotRepository) SumRemaining(ctx context.Context, materialIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	args := m.Called(ctx, materialIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]decimal.Decimal), args.Error(1)
}

// MockMovementRepository is a mock implementation of stock.MovementRepository
type MockMovementRepository struct {
	mock.Mock
}

func (m *MockMovementRepository) Append(ctx context.Context, movements ...*stock.Movement) error {
	return m.Called(ctx, movements).Error(0)
}

func (m *MockMovementRepository) FindAll(ctx context.Context, filter stock.MovementFilter) ([]stock.Movement, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]stock.Movement), args.Error(1)
}

func (m *MockMovementRepository) FindForReplay(ctx context.Context, materialID *uuid.UUID) ([]*stock.Movement, error) {
	args := m.Called(ctx, materialID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*stock.Movement), args.Error(1)
}

// MockWriteoffRepository is a mock implementation of stock.WriteoffRepository
type MockWriteoffRepository struct {
	mock.Mock
}

func (m *MockWriteoffRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.WriteoffDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.WriteoffDocument), args.Error(1)
}

func (m *MockWriteoffRepository) FindAll(ctx context.Context, filter stock.WriteoffFilter) ([]stock.WriteoffDocument, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]stock.WriteoffDocument), args.Get(1).(int64), args.Error(2)
}

func (m *MockWriteoffRepository) Create(ctx context.Context, doc *stock.WriteoffDocument) error {
	return m.Called(ctx, doc).Error(0)
}

// MockEventPublisher collects published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *MockEventPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *MockEventPublisher) GetEvents() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]shared.DomainEvent, len(p.events))
	copy(out, p.events)
	return out
}

// recordingMetrics counts business metric calls
type recordingMetrics struct {
	mu           sync.Mutex
	postedLots   []int
	writeoffs    []string
	insufficient int
	retries      []int
}

func (r *recordingMetrics) PurchasePosted(_ context.Context, lots int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.postedLots = append(r.postedLots, lots)
}

func (r *recordingMetrics) WriteoffCreated(_ context.Context, reason string, _ decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writeoffs = append(r.writeoffs, reason)
}

func (r *recordingMetrics) InsufficientStock(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insufficient++
}

func (r *recordingMetrics) ContentionRetry(_ context.Context, attempt int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries = append(r.retries, attempt)
}

// memoryIdempotencyStore is a map-backed shared.IdempotencyStore
type memoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]string
	closed  bool
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{entries: make(map[string]string)}
}

func (s *memoryIdempotencyStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false, nil
	}
	s.entries[key] = ""
	return true, nil
}

func (s *memoryIdempotencyStore) Complete(_ context.Context, key, result string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = result
	return nil
}

func (s *memoryIdempotencyStore) Lookup(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *memoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memoryIdempotencyStore) Close() error {
	s.closed = true
	return nil
}

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFilm(name string) *stock.Material {
	m, err := stock.NewMaterial(name, "film", stock.UOMSquareMeter, true)
	if err != nil {
		panic(err)
	}
	return m
}

func newLot(m *stock.Material, qtyIn, unitCost string, createdAt time.Time) *stock.Lot {
	return &stock.Lot{
		ID:         uuid.New(),
		MaterialID: m.ID,
		QtyIn:      dec(qtyIn),
		QtyOut:     decimal.Zero,
		UnitCost:   dec(unitCost),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
		Version:    1,
	}
}

func cloneLots(lots ...*stock.Lot) []*stock.Lot {
	out := make([]*stock.Lot, 0, len(lots))
	for _, l := range lots {
		c := *l
		out = append(out, &c)
	}
	return out
}

type repoSet struct {
	materials *MockMaterialRepository
	purchases *MockPurchaseRepository
	lots      *MockLotRepository
	movements *MockMovementRepository
	writeoffs *MockWriteoffRepository
}

func newRepoSet() repoSet {
	return repoSet{
		materials: new(MockMaterialRepository),
		purchases: new(MockPurchaseRepository),
		lots:      new(MockLotRepository),
		movements: new(MockMovementRepository),
		writeoffs: new(MockWriteoffRepository),
	}
}

func (r repoSet) scope() *NoOpTransactionScope {
	return NewNoOpTransactionScope(r.materials, r.purchases, r.lots, r.movements, r.writeoffs)
}
