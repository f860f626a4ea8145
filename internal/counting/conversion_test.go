// internal/counting/conversion_test.go
package counting

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func boxOf(factor int64) *ProductSnapshot {
	return &ProductSnapshot{
		ID:               "P1",
		ConversionFactor: decimal.NewFromInt(factor),
		InventoryUnitID:  "U-inv",
		PackagingUnitID:  "U-pack",
	}
}

func TestToPackagingQuantity(t *testing.T) {
	tests := []struct {
		name string
		row  ProductCountRow
		want int64
	}{
		{
			name: "packaging unit keeps quantity",
			row:  ProductCountRow{MeasureUnitID: "U-pack", Quantity: 5, Product: boxOf(12)},
			want: 5,
		},
		{
			name: "inventory unit divides by factor",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: 30, Product: boxOf(12)},
			want: 3,
		},
		{
			name: "inventory unit never below one package",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: 2, Product: boxOf(12)},
			want: 1,
		},
		{
			name: "exact multiple",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: 48, Product: boxOf(12)},
			want: 4,
		},
		{
			name: "no product rounds",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: 2.5},
			want: 3,
		},
		{
			name: "zero factor rounds",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: 7.4, Product: boxOf(0)},
			want: 7,
		},
		{
			name: "fractional factor",
			row: ProductCountRow{MeasureUnitID: "U-inv", Quantity: 10, Product: &ProductSnapshot{
				ConversionFactor: decimal.RequireFromString("2.5"),
				PackagingUnitID:  "U-pack",
			}},
			want: 4,
		},
		{
			name: "packaging unit rounds half up",
			row:  ProductCountRow{MeasureUnitID: "U-pack", Quantity: 0.5, Product: boxOf(12)},
			want: 1,
		},
		{
			name: "zero quantity",
			row:  ProductCountRow{MeasureUnitID: "U-pack", Quantity: 0, Product: boxOf(12)},
			want: 0,
		},
		{
			name: "negative quantity",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: -4, Product: boxOf(12)},
			want: 0,
		},
		{
			name: "NaN quantity",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: math.NaN(), Product: boxOf(12)},
			want: 0,
		},
		{
			name: "infinite quantity",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: math.Inf(1), Product: boxOf(12)},
			want: 0,
		},
		{
			name: "packaging quantity above the ceiling",
			row:  ProductCountRow{MeasureUnitID: "U-pack", Quantity: 1e19, Product: boxOf(12)},
			want: 0,
		},
		{
			name: "inventory quantity above the ceiling",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: 1e30, Product: boxOf(12)},
			want: 0,
		},
		{
			name: "ceiling in packaging unit",
			row:  ProductCountRow{MeasureUnitID: "U-pack", Quantity: MaxQuantity, Product: boxOf(12)},
			want: int64(MaxQuantity),
		},
		{
			name: "ceiling in inventory unit",
			row:  ProductCountRow{MeasureUnitID: "U-inv", Quantity: MaxQuantity, Product: boxOf(1)},
			want: int64(MaxQuantity),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToPackagingQuantity(tt.row))
		})
	}
}

func TestToPackagingQuantityProperties(t *testing.T) {
	quantities := []float64{0.0001, 0.4, 1, 3.5, 11, 12, 13, 100, 1234.56, 987654321.5, MaxQuantity}
	factors := []int64{1, 2, 6, 12, 24, 100}

	for _, f := range factors {
		for _, q := range quantities {
			inv := ProductCountRow{MeasureUnitID: "U-inv", Quantity: q, Product: boxOf(f)}
			assert.GreaterOrEqual(t, ToPackagingQuantity(inv), int64(1), "q=%v f=%v", q, f)

			pack := ProductCountRow{MeasureUnitID: "U-pack", Quantity: q, Product: boxOf(f)}
			assert.Equal(t, int64(math.Round(q)), ToPackagingQuantity(pack), "q=%v f=%v", q, f)
		}
	}
}

func TestToPackagingQuantityNeverNegative(t *testing.T) {
	for _, q := range []float64{MaxQuantity + 1, 1e15, 1e19, 1e20, 1e30, math.MaxFloat64} {
		for _, unit := range []string{"U-inv", "U-pack"} {
			got := ToPackagingQuantity(ProductCountRow{MeasureUnitID: unit, Quantity: q, Product: boxOf(12)})
			assert.Zero(t, got, "q=%v unit=%s", q, unit)
		}
	}
}
