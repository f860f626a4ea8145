// internal/models/admin.go
package models

import (
	"github.com/google/uuid"
)

type FeatureFlag struct {
	BaseModel
	Key         string `json:"key" gorm:"uniqueIndex;size:100;not null"`
	Enabled     bool   `json:"enabled" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
}

const FlagInventoryDateRestriction = "ENABLE_INVENTORY_DATE_RESTRICTION"

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	RequestID    string     `json:"request_id" gorm:"size:64;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resource_id" gorm:"type:uuid;index"`
	Status       int        `json:"status"`
	NewValues    JSONB      `json:"new_values" gorm:"type:text"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
