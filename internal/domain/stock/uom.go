package stock

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Base units of measure with built-in conversion rules
const (
	UOMSquareMeter = "m2"
	UOMSheet       = "sheet"
	UOMMilliliter  = "ml"
	UOMGram        = "g"
	UOMPiece       = "pcs"
)

var uomAliases = map[string]string{
	"м2":      UOMSquareMeter,
	"рулон":   "roll",
	"м.п.":    "mp",
	"пог.м":   "mp",
	"pog":     "mp",
	"m":       "mp",
	"лист":    UOMSheet,
	"пачка":   "pack",
	"коробка": "box",
	"л":       "l",
	"мл":      UOMMilliliter,
	"кг":      "kg",
	"г":       UOMGram,
	"шт":      UOMPiece,
}

var thousand = decimal.NewFromInt(1000)

// NormalizeUOM lower-cases and maps unit aliases onto canonical names
func NormalizeUOM(uom string) string {
	u := strings.ToLower(strings.TrimSpace(uom))
	if canonical, ok := uomAliases[u]; ok {
		return canonical
	}
	return u
}

// Conversion describes how an input quantity was turned into base units
type Conversion struct {
	// RollLengthM overrides the material's default roll length for "roll" inputs
	RollLengthM decimal.Decimal
	// Factor is an explicit multiplier supplied by the caller
	Factor decimal.Decimal
}

// ConvertToBase converts qty expressed in uom into the material's base unit.
//
// An explicit positive factor always wins. Without one, same-unit input passes
// through and a small set of unit rules keyed by the material's base unit apply
// (rolls and running meters to m2, packs and boxes to sheets, l to ml, kg to g).
// Anything else is a validation error.
func ConvertToBase(m *Material, qty decimal.Decimal, uom string, conv Conversion) (decimal.Decimal, error) {
	if qty.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, NewValidationError("quantity must be greater than 0")
	}
	base, err := convert(m, qty, uom, conv)
	if err != nil {
		return decimal.Zero, err
	}
	if base.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, NewValidationError("converted quantity must be greater than 0")
	}
	return base.Round(QtyScale), nil
}

func convert(m *Material, qty decimal.Decimal, uom string, conv Conversion) (decimal.Decimal, error) {
	if conv.Factor.GreaterThan(decimal.Zero) {
		return qty.Mul(conv.Factor), nil
	}
	if conv.Factor.IsNegative() {
		return decimal.Zero, NewValidationError("uom_factor must be positive")
	}

	from := NormalizeUOM(uom)
	to := NormalizeUOM(m.BaseUOM)
	if from == "" || from == to {
		return qty, nil
	}

	switch to {
	case UOMSquareMeter:
		width := m.DecimalProp(PropWidthM)
		switch from {
		case "roll":
			length := conv.RollLengthM
			if length.LessThanOrEqual(decimal.Zero) {
				length = m.DecimalProp(PropDefaultLengthM)
			}
			if width.LessThanOrEqual(decimal.Zero) || length.LessThanOrEqual(decimal.Zero) {
				return decimal.Zero, NewValidationError("material %s needs %s and roll length to convert rolls to m2", m.Name, PropWidthM)
			}
			return qty.Mul(width).Mul(length), nil
		case "mp":
			if width.LessThanOrEqual(decimal.Zero) {
				return decimal.Zero, NewValidationError("material %s needs %s to convert running meters to m2", m.Name, PropWidthM)
			}
			return qty.Mul(width), nil
		}
	case UOMSheet:
		perPack := m.DecimalProp(PropSheetsPerPack)
		switch from {
		case "pack":
			if perPack.LessThanOrEqual(decimal.Zero) {
				return decimal.Zero, NewValidationError("material %s has no %s", m.Name, PropSheetsPerPack)
			}
			return qty.Mul(perPack), nil
		case "box":
			perBox := m.DecimalProp(PropPacksPerBox)
			if perPack.LessThanOrEqual(decimal.Zero) || perBox.LessThanOrEqual(decimal.Zero) {
				return decimal.Zero, NewValidationError("material %s needs %s and %s to convert boxes", m.Name, PropPacksPerBox, PropSheetsPerPack)
			}
			return qty.Mul(perBox).Mul(perPack), nil
		}
	case UOMMilliliter:
		if from == "l" {
			return qty.Mul(thousand), nil
		}
	case UOMGram:
		if from == "kg" {
			return qty.Mul(thousand), nil
		}
	}

	return decimal.Zero, NewValidationError("no conversion from %q to base unit %q for material %s; supply uom_factor", uom, m.BaseUOM, m.Name)
}
