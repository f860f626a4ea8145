// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// conversion factors travel as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type Product struct {
	BaseModel
	Code             string          `json:"code" gorm:"uniqueIndex;size:50;not null"`
	Description      string          `json:"description" gorm:"size:255;not null"`
	ConversionFactor decimal.Decimal `json:"conversion_factor" gorm:"type:decimal(10,4);not null"`
	InventoryUnitID  uuid.UUID       `json:"inventory_unit_id" gorm:"type:uuid;not null;index"`
	PackagingUnitID  uuid.UUID       `json:"packaging_unit_id" gorm:"type:uuid;not null;index"`

	// Relationships
	InventoryUnit *MeasurementUnit `json:"inventory_unit,omitempty" gorm:"foreignKey:InventoryUnitID"`
	PackagingUnit *MeasurementUnit `json:"packaging_unit,omitempty" gorm:"foreignKey:PackagingUnitID"`
}

// TotalUnits expands a package count into inventory units.
func (p *Product) TotalUnits(packagingQuantity int64) int64 {
	return decimal.NewFromInt(packagingQuantity).Mul(p.ConversionFactor).Round(0).IntPart()
}
