// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// BeforeCreate assigns the id client side so both postgres and sqlite work
// without a database default.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// JSONB stores free-form values as JSON text
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	RoleAdmin            UserRole = "ADMIN"
	RoleWarehouseManager UserRole = "WAREHOUSE_MANAGER"
	RoleProcessLeader    UserRole = "PROCESS_LEADER"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleWarehouseManager, RoleProcessLeader:
		return true
	}
	return false
}

type WarehouseStatus string

const (
	WarehouseStatusActive      WarehouseStatus = "ACTIVE"
	WarehouseStatusInactive    WarehouseStatus = "INACTIVE"
	WarehouseStatusMaintenance WarehouseStatus = "MAINTENANCE"
	WarehouseStatusClosed      WarehouseStatus = "CLOSED"
)

type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "OPEN"
	SessionStatusClosed SessionStatus = "CLOSED"
)
