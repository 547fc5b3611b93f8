package domain

import (
	"strings"
	"time"
)

type InventoryItem struct {
	ID            string    `json:"id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	StockQuantity float64   `json:"stock_quantity" validate:"gte=0"`
	Unit          Unit      `json:"unit" validate:"omitempty,oneof=g kg ml l pcs other"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NormalizeName is the join key between orders, recipes and inventory.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

type Unit string

const (
	UnitUnknown    Unit = ""
	UnitGram       Unit = "g"
	UnitKilogram   Unit = "kg"
	UnitMilliliter Unit = "ml"
	UnitLiter      Unit = "l"
	UnitPiece      Unit = "pcs"
	UnitOther      Unit = "other"
)

var unitAliases = map[string]Unit{
	"":            UnitUnknown,
	"g":           UnitGram,
	"gr":          UnitGram,
	"gram":        UnitGram,
	"grams":       UnitGram,
	"kg":          UnitKilogram,
	"kilo":        UnitKilogram,
	"kilogram":    UnitKilogram,
	"kilograms":   UnitKilogram,
	"ml":          UnitMilliliter,
	"milliliter":  UnitMilliliter,
	"milliliters": UnitMilliliter,
	"millilitre":  UnitMilliliter,
	"l":           UnitLiter,
	"lt":          UnitLiter,
	"liter":       UnitLiter,
	"liters":      UnitLiter,
	"litre":       UnitLiter,
	"pcs":         UnitPiece,
	"pc":          UnitPiece,
	"piece":       UnitPiece,
	"pieces":      UnitPiece,
}

// ParseUnit maps free-form unit strings onto the known set. Anything
// unrecognised becomes UnitOther.
func ParseUnit(s string) Unit {
	if u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return u
	}
	return UnitOther
}

// Canonical maps u through ParseUnit.
func (u Unit) Canonical() Unit {
	return ParseUnit(string(u))
}
