// Package quantity holds the rounding rules applied to stock arithmetic.
// Values go through shopspring/decimal so that repeated accumulation does not
// drift the way float64 sums do.
package quantity

import "github.com/shopspring/decimal"

const (
	// AggregatePlaces bounds drift while summing ingredient requirements.
	AggregatePlaces = 4
	// StockPlaces is the precision stored on inventory items.
	StockPlaces = 2
)

func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Add returns round(a+b) at the given precision.
func Add(a, b float64, places int32) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(places).InexactFloat64()
}

// Sub returns round(a-b) at the given precision.
func Sub(a, b float64, places int32) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(places).InexactFloat64()
}

func Mul(a, b float64) float64 {
	return decimal.NewFromFloat(a).Mul(decimal.NewFromFloat(b)).InexactFloat64()
}

// Scale multiplies or divides by a conversion factor without rounding.
func Scale(v, factor float64, divide bool) float64 {
	d := decimal.NewFromFloat(v)
	f := decimal.NewFromFloat(factor)
	if divide {
		return d.DivRound(f, 12).InexactFloat64()
	}
	return d.Mul(f).InexactFloat64()
}

// FloorZero clamps negative results to zero.
func FloorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Format renders v with exactly places decimals, used for fingerprints.
func Format(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}
