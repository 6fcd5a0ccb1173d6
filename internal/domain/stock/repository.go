package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MaxMovementsPage caps movement listings
const MaxMovementsPage = 500

// MaterialFilter narrows material listings
type MaterialFilter struct {
	shared.Filter
	Category    string
	IncludeVoid bool
}

// LockStrength selects the row lock taken by LockByID
type LockStrength string

const (
	// LockShare blocks writers but not other share holders
	LockShare LockStrength = "SHARE"
	// LockUpdate blocks every other lock on the row
	LockUpdate LockStrength = "UPDATE"
)

// MaterialRepository persists materials and their properties
type MaterialRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Material, error)
	// LockByID reloads the material and holds a row lock until the
	// surrounding transaction ends, on stores that support row locks.
	LockByID(ctx context.Context, id uuid.UUID, strength LockStrength) (*Material, error)
	// FindByIDs returns the materials that exist, keyed by id
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Material, error)
	// FindByName matches the exact trimmed name, void or not
	FindByName(ctx context.Context, name string) (*Material, error)
	FindAll(ctx context.Context, filter MaterialFilter) ([]Material, int64, error)
	// FindWithMinStock returns active materials that carry a low-stock threshold
	FindWithMinStock(ctx context.Context) ([]Material, error)
	Save(ctx context.Context, m *Material) error
}

// PurchaseFilter narrows purchase document listings
type PurchaseFilter struct {
	shared.Filter
	Status   DocumentStatus
	Supplier string
}

// PurchaseRepository persists purchase documents with their lines
type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseDocument, error)
	FindAll(ctx context.Context, filter PurchaseFilter) ([]PurchaseDocument, int64, error)
	Create(ctx context.Context, doc *PurchaseDocument) error
	// TransitionStatus writes the document's new status only if the stored
	// status still equals from. A lost race returns ErrAlreadyFinalized.
	TransitionStatus(ctx context.Context, doc *PurchaseDocument, from DocumentStatus) error
	CountByStatus(ctx context.Context, status DocumentStatus) (int64, error)
	ExistsDocNo(ctx context.Context, supplier, docNo string) (bool, error)
	// HasDraftLines reports whether a DRAFT document has a line for the material
	HasDraftLines(ctx context.Context, materialID uuid.UUID) (bool, error)
}

// LotFilter narrows lot listings
type LotFilter struct {
	MaterialID    *uuid.UUID
	OnlyAvailable bool
}

// LotRepository persists lots. Lots are never deleted.
type LotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Lot, error)
	// FindAll returns lots in FIFO order
	FindAll(ctx context.Context, filter LotFilter) ([]Lot, error)
	// LockAvailableByMaterials loads lots with a remainder for the given
	// materials, acquiring row locks in ascending lot id order where the
	// store supports them.
	LockAvailableByMaterials(ctx context.Context, materialIDs []uuid.UUID) ([]*Lot, error)
	CreateBatch(ctx context.Context, lots []*Lot) error
	// SaveConsumption persists lot.QtyOut if lot.Version still matches the
	// stored row and bumps the version. A mismatch returns ErrContention.
	SaveConsumption(ctx context.Context, lot *Lot) error
	// SumRemaining returns on-hand per material; nil ids means all materials
	SumRemaining(ctx context.Context, materialIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// MovementFilter narrows ledger listings
type MovementFilter struct {
	MaterialID *uuid.UUID
	LotID      *uuid.UUID
	RefType    RefType
	RefID      *uuid.UUID
	Limit      int
}

// MovementRepository is the append-only ledger
type MovementRepository interface {
	Append(ctx context.Context, movements ...*Movement) error
	// FindAll returns movements newest first, capped at MaxMovementsPage
	FindAll(ctx context.Context, filter MovementFilter) ([]Movement, error)
	// FindForReplay returns every lot movement, oldest first
	FindForReplay(ctx context.Context, materialID *uuid.UUID) ([]*Movement, error)
}

// WriteoffFilter narrows write-off listings
type WriteoffFilter struct {
	shared.Filter
	Reason WriteoffReason
}

// WriteoffRepository persists write-off documents and their lines
type WriteoffRepository interface {
	// FindByID loads the document with lines and their lot allocations
	FindByID(ctx context.Context, id uuid.UUID) (*WriteoffDocument, error)
	FindAll(ctx context.Context, filter WriteoffFilter) ([]WriteoffDocument, int64, error)
	Create(ctx context.Context, doc *WriteoffDocument) error
}
