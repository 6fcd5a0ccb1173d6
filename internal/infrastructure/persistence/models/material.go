package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/printshop/backend/internal/domain/stock"
)

// MaterialModel is the persistence model for the Material entity.
type MaterialModel struct {
	BaseModel
	Name         string              `gorm:"type:varchar(200);not null;index"`
	Category     string              `gorm:"type:varchar(100);not null;default:'';index"`
	BaseUOM      string              `gorm:"column:base_uom;type:varchar(20);not null"`
	IsLotTracked bool                `gorm:"not null"`
	IsVoid       bool                `gorm:"not null;default:false;index"`
	VoidedAt     *time.Time          `gorm:"default:null"`
	VoidReason   string              `gorm:"type:varchar(500);not null;default:''"`
	Props        []MaterialPropModel `gorm:"foreignKey:MaterialID;references:ID"`
}

// TableName returns the table name for GORM
func (MaterialModel) TableName() string {
	return "materials"
}

// MaterialPropModel stores one key/value property of a material.
type MaterialPropModel struct {
	MaterialID uuid.UUID `gorm:"type:uuid;primaryKey"`
	PropKey    string    `gorm:"type:varchar(64);primaryKey"`
	PropValue  string    `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (MaterialPropModel) TableName() string {
	return "material_props"
}

// ToDomain converts the persistence model to a domain Material.
func (m *MaterialModel) ToDomain() *stock.Material {
	props := make(map[string]string, len(m.Props))
	for _, p := range m.Props {
		props[p.PropKey] = p.PropValue
	}
	return &stock.Material{
		BaseEntity:   m.BaseModel.ToDomain(),
		Name:         m.Name,
		Category:     m.Category,
		BaseUOM:      m.BaseUOM,
		IsLotTracked: m.IsLotTracked,
		IsVoid:       m.IsVoid,
		VoidedAt:     m.VoidedAt,
		VoidReason:   m.VoidReason,
		Props:        props,
	}
}

// FromDomain populates the persistence model from a domain Material.
func (m *MaterialModel) FromDomain(mat *stock.Material) {
	m.FromDomainBaseEntity(mat.BaseEntity)
	m.Name = mat.Name
	m.Category = mat.Category
	m.BaseUOM = mat.BaseUOM
	m.IsLotTracked = mat.IsLotTracked
	m.IsVoid = mat.IsVoid
	m.VoidedAt = mat.VoidedAt
	m.VoidReason = mat.VoidReason

	keys := make([]string, 0, len(mat.Props))
	for k := range mat.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	m.Props = make([]MaterialPropModel, 0, len(keys))
	for _, k := range keys {
		m.Props = append(m.Props, MaterialPropModel{MaterialID: mat.ID, PropKey: k, PropValue: mat.Props[k]})
	}
}

// MaterialModelFromDomain creates a new persistence model from a domain Material.
func MaterialModelFromDomain(mat *stock.Material) *MaterialModel {
	m := &MaterialModel{}
	m.FromDomain(mat)
	return m
}
