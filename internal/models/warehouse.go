// internal/models/warehouse.go
package models

type Warehouse struct {
	BaseModel
	Code        string          `json:"code" gorm:"uniqueIndex;size:50;not null"`
	Description string          `json:"description" gorm:"size:255;not null"`
	Status      WarehouseStatus `json:"status" gorm:"type:varchar(20);default:'ACTIVE';index"`
}

type MeasurementUnit struct {
	BaseModel
	Name         string `json:"name" gorm:"size:100;not null"`
	Abbreviation string `json:"abbreviation" gorm:"uniqueIndex;size:20;not null"`
	IsActive     bool   `json:"is_active" gorm:"not null"`
}
