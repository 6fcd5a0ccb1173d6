package stock

import (
	"strings"
	"time"

	"github.com/printshop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Well-known material property keys
const (
	PropWidthM         = "width_m"
	PropDefaultLengthM = "default_length_m"
	PropSheetsPerPack  = "sheets_per_pack"
	PropPacksPerBox    = "packs_per_box"
	PropMinStockBase   = "min_stock_base"
)

// Material is a stock item consumed by the print shop (film, paper, ink...)
type Material struct {
	shared.BaseEntity
	Name         string
	Category     string
	BaseUOM      string
	IsLotTracked bool
	IsVoid       bool
	VoidedAt     *time.Time
	VoidReason   string
	Props        map[string]string
}

// NewMaterial creates a new lot-tracked or non-stock material
func NewMaterial(name, category, baseUOM string, lotTracked bool) (*Material, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewValidationError("material name is required")
	}
	baseUOM = NormalizeUOM(baseUOM)
	if baseUOM == "" {
		return nil, NewValidationError("material base unit of measure is required")
	}
	return &Material{
		BaseEntity:   shared.NewBaseEntity(),
		Name:         name,
		Category:     strings.TrimSpace(category),
		BaseUOM:      baseUOM,
		IsLotTracked: lotTracked,
		Props:        make(map[string]string),
	}, nil
}

// Update changes descriptive attributes. The base UOM is part of the lot history
// and cannot change once stock exists, which the service checks.
func (m *Material) Update(name, category, baseUOM string, lotTracked bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("material name is required")
	}
	baseUOM = NormalizeUOM(baseUOM)
	if baseUOM == "" {
		return NewValidationError("material base unit of measure is required")
	}
	m.Name = name
	m.Category = strings.TrimSpace(category)
	m.BaseUOM = baseUOM
	m.IsLotTracked = lotTracked
	m.Touch(time.Now())
	return nil
}

// Void hides the material from new purchases
func (m *Material) Void(reason string) error {
	if m.IsVoid {
		return ErrAlreadyFinalized
	}
	now := time.Now()
	m.IsVoid = true
	m.VoidedAt = &now
	m.VoidReason = strings.TrimSpace(reason)
	m.Touch(now)
	return nil
}

// Reactivate brings a voided material back
func (m *Material) Reactivate() {
	m.IsVoid = false
	m.VoidedAt = nil
	m.VoidReason = ""
	m.Touch(time.Now())
}

// SetProp sets or clears (empty value) a property
func (m *Material) SetProp(key, value string) {
	if m.Props == nil {
		m.Props = make(map[string]string)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)
	if value == "" {
		delete(m.Props, key)
		return
	}
	m.Props[key] = value
}

// Prop returns a property value
func (m *Material) Prop(key string) string {
	return m.Props[key]
}

// DecimalProp parses a numeric property; missing or malformed values yield zero
func (m *Material) DecimalProp(key string) decimal.Decimal {
	raw := strings.ReplaceAll(m.Props[key], ",", ".")
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MinStock returns the low-stock threshold in base units, if configured
func (m *Material) MinStock() (decimal.Decimal, bool) {
	if _, ok := m.Props[PropMinStockBase]; !ok {
		return decimal.Zero, false
	}
	v := m.DecimalProp(PropMinStockBase)
	if v.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return v, true
}

// CanReceive checks the material may appear on a purchase line
func (m *Material) CanReceive() error {
	if m.IsVoid {
		return NewValidationError("material %s (%s) is void", m.Name, m.ID)
	}
	return nil
}
