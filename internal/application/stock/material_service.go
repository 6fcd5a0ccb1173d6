package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/shared"
	"github.com/printshop/backend/internal/domain/stock"
)

// MaterialService manages the material catalogue used by purchases and write-offs
type MaterialService struct {
	materialRepo stock.MaterialRepository
	txScope      TransactionScope
	support
}

// NewMaterialService creates a new MaterialService
func NewMaterialService(materialRepo stock.MaterialRepository, txScope TransactionScope, opts ...Option) *MaterialService {
	return &MaterialService{
		materialRepo: materialRepo,
		txScope:      txScope,
		support:      newSupport(opts),
	}
}

// Create adds a material. Creating a material whose name matches a voided one
// brings the voided material back instead of duplicating it.
func (s *MaterialService) Create(ctx context.Context, in CreateMaterialInput) (*MaterialResponse, error) {
	lotTracked := true
	if in.IsLotTracked != nil {
		lotTracked = *in.IsLotTracked
	}

	m, err := stock.NewMaterial(in.Name, in.Category, in.BaseUOM, lotTracked)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.MaterialRepo().FindByName(ctx, m.Name)
		switch {
		case err == nil && !existing.IsVoid:
			return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Material %q already exists", m.Name))
		case err == nil:
			existing, err = repos.MaterialRepo().LockByID(ctx, existing.ID, stock.LockUpdate)
			if err != nil {
				return err
			}
			if err := checkFrozenFields(ctx, repos, existing, m.BaseUOM, lotTracked); err != nil {
				return err
			}
			existing.Reactivate()
			if err := existing.Update(m.Name, m.Category, m.BaseUOM, lotTracked); err != nil {
				return err
			}
			m = existing
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		for k, v := range in.Props {
			m.SetProp(k, v)
		}
		return repos.MaterialRepo().Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// GetByID returns one material
func (s *MaterialService) GetByID(ctx context.Context, id uuid.UUID) (*MaterialResponse, error) {
	m, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// List returns a page of materials
func (s *MaterialService) List(ctx context.Context, filter MaterialListFilter) ([]MaterialResponse, int64, error) {
	f := stock.MaterialFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			Search:   filter.Search,
			OrderBy:  filter.OrderBy,
			OrderDir: orDefault(filter.OrderDir, "asc"),
		},
		Category:    filter.Category,
		IncludeVoid: filter.IncludeVoid,
	}
	materials, total, err := s.materialRepo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	out := make([]MaterialResponse, 0, len(materials))
	for i := range materials {
		out = append(out, ToMaterialResponse(&materials[i]))
	}
	return out, total, nil
}

// Update changes a material. The base unit and lot tracking are frozen once
// lots or DRAFT purchase lines exist, since both hold quantities already
// converted to the base unit. The material row stays locked until the save so
// a concurrent purchase cannot add a line in between.
func (s *MaterialService) Update(ctx context.Context, id uuid.UUID, in UpdateMaterialInput) (*MaterialResponse, error) {
	var m *stock.Material
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		m, err = repos.MaterialRepo().LockByID(ctx, id, stock.LockUpdate)
		if err != nil {
			return err
		}
		if err := checkFrozenFields(ctx, repos, m, in.BaseUOM, in.IsLotTracked); err != nil {
			return err
		}

		if in.Name != m.Name {
			other, err := repos.MaterialRepo().FindByName(ctx, in.Name)
			if err == nil && other.ID != m.ID && !other.IsVoid {
				return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Material %q already exists", other.Name))
			}
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}

		if err := m.Update(in.Name, in.Category, in.BaseUOM, in.IsLotTracked); err != nil {
			return err
		}
		return repos.MaterialRepo().Save(ctx, m)
	})
	if err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// checkFrozenFields rejects a base unit or lot tracking change for a material
// that already has lots or DRAFT purchase lines
func checkFrozenFields(ctx context.Context, repos TransactionalRepositories, m *stock.Material, baseUOM string, lotTracked bool) error {
	if stock.NormalizeUOM(baseUOM) == m.BaseUOM && lotTracked == m.IsLotTracked {
		return nil
	}
	lots, err := repos.LotRepo().FindAll(ctx, stock.LotFilter{MaterialID: &m.ID})
	if err != nil {
		return err
	}
	if len(lots) > 0 {
		return stock.NewValidationError("material %s already has lots; base unit and lot tracking cannot change", m.Name)
	}
	drafts, err := repos.PurchaseRepo().HasDraftLines(ctx, m.ID)
	if err != nil {
		return err
	}
	if drafts {
		return stock.NewValidationError("material %s is on a draft purchase; base unit and lot tracking cannot change", m.Name)
	}
	return nil
}

// Void hides a material from new purchases. Remaining stock can still be written off.
func (s *MaterialService) Void(ctx context.Context, id uuid.UUID, reason string) (*MaterialResponse, error) {
	m, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.Void(reason); err != nil {
		return nil, err
	}
	if err := s.materialRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}

// SetProps merges properties; an empty value removes the key
func (s *MaterialService) SetProps(ctx context.Context, id uuid.UUID, props map[string]string) (*MaterialResponse, error) {
	m, err := s.materialRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for k, v := range props {
		m.SetProp(k, v)
	}
	if _, ok := props[stock.PropMinStockBase]; ok && m.Prop(stock.PropMinStockBase) != "" {
		if _, valid := m.MinStock(); !valid {
			return nil, stock.NewValidationError("%s must be a positive number", stock.PropMinStockBase)
		}
	}
	m.Touch(s.now())
	if err := s.materialRepo.Save(ctx, m); err != nil {
		return nil, err
	}
	resp := ToMaterialResponse(m)
	return &resp, nil
}
