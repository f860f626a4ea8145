// internal/models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Identification string     `json:"identification" gorm:"size:50;not null"`
	Name           string     `json:"name" gorm:"size:255;not null"`
	Email          string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash   string     `json:"-" gorm:"size:255;not null"`
	Role           UserRole   `json:"role" gorm:"type:varchar(30);not null;index"`
	IsActive       bool       `json:"is_active" gorm:"not null"`
	LastLoginAt    *time.Time `json:"last_login_at"`

	// Relationships
	Warehouses []Warehouse `json:"warehouses" gorm:"many2many:user_warehouses;"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

func (u *User) WarehouseIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(u.Warehouses))
	for _, w := range u.Warehouses {
		ids = append(ids, w.ID)
	}
	return ids
}
