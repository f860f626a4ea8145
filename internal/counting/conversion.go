// internal/counting/conversion.go
package counting

import (
	"math"

	"github.com/shopspring/decimal"
)

// ToPackagingQuantity converts the quantity a user entered into whole packages.
//
// Quantities above MaxQuantity convert to 0, like any other invalid quantity.
// Quantities entered in the packaging unit, or for products without a usable
// conversion factor, are rounded. Quantities in any other unit are divided by
// the factor and never drop below one package.
func ToPackagingQuantity(row ProductCountRow) int64 {
	q := row.Quantity
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 || q > MaxQuantity {
		return 0
	}
	qty := decimal.NewFromFloat(q)

	p := row.Product
	if p == nil || p.ConversionFactor.Sign() <= 0 {
		return qty.Round(0).IntPart()
	}
	if p.PackagingUnitID != "" && row.MeasureUnitID == p.PackagingUnitID {
		return qty.Round(0).IntPart()
	}

	packages := qty.Div(p.ConversionFactor).Round(0).IntPart()
	if packages < 1 {
		return 1
	}
	return packages
}
