// internal/models/inventory.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type InventorySession struct {
	BaseModel
	WarehouseID uuid.UUID  `json:"warehouse_id" gorm:"type:uuid;not null;uniqueIndex:idx_session_number,priority:1"`
	Month       time.Time  `json:"month" gorm:"not null;uniqueIndex:idx_session_number,priority:2"`
	CountNumber int        `json:"count_number" gorm:"not null;uniqueIndex:idx_session_number,priority:3"`
	CreatedByID uuid.UUID  `json:"created_by_id" gorm:"type:uuid;not null;index"`
	ClosedAt    *time.Time `json:"closed_at"`
	ReportKey   string     `json:"report_key,omitempty" gorm:"size:500"`

	// Relationships
	Warehouse *Warehouse `json:"-" gorm:"foreignKey:WarehouseID"`
	CreatedBy *User      `json:"-" gorm:"foreignKey:CreatedByID"`
}

func (s *InventorySession) IsClosed() bool {
	return s.ClosedAt != nil
}

func (s *InventorySession) Status() SessionStatus {
	if s.IsClosed() {
		return SessionStatusClosed
	}
	return SessionStatusOpen
}

// InventoryCount is one registration. Repeated registrations of a product
// within a session are separate rows.
type InventoryCount struct {
	BaseModel
	SessionID         uuid.UUID  `json:"session_id" gorm:"type:uuid;not null;index"`
	ProductID         uuid.UUID  `json:"product_id" gorm:"type:uuid;not null;index"`
	MeasureUnitID     *uuid.UUID `json:"measure_unit_id" gorm:"type:uuid"`
	PackagingQuantity int64      `json:"packaging_quantity" gorm:"not null"`
	TotalUnits        int64      `json:"total_units" gorm:"not null"`
	CreatedByID       *uuid.UUID `json:"created_by_id" gorm:"type:uuid"`

	// Relationships
	Session     *InventorySession `json:"-" gorm:"foreignKey:SessionID"`
	Product     *Product          `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	MeasureUnit *MeasurementUnit  `json:"measure_unit,omitempty" gorm:"foreignKey:MeasureUnitID"`
}
