// internal/services/user_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/database"
	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/models"
	"github.com/javajoker/stockcount/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type CreateUserRequest struct {
	Identification string      `json:"identification" validate:"required,max=50"`
	Name           string      `json:"name" validate:"required,max=255"`
	Email          string      `json:"email" validate:"required,email"`
	Role           string      `json:"role" validate:"required,role"`
	Password       string      `json:"password" validate:"required,min=8"`
	Warehouses     []uuid.UUID `json:"warehouses"`
}

// UpdateUserRequest is a partial update: nil fields are left untouched.
type UpdateUserRequest struct {
	Identification *string      `json:"identification,omitempty" validate:"omitempty,max=50"`
	Name           *string      `json:"name,omitempty" validate:"omitempty,max=255"`
	Email          *string      `json:"email,omitempty" validate:"omitempty,email"`
	Role           *string      `json:"role,omitempty" validate:"omitempty,role"`
	Password       *string      `json:"password,omitempty" validate:"omitempty,min=8"`
	IsActive       *bool        `json:"is_active,omitempty"`
	Warehouses     *[]uuid.UUID `json:"warehouses,omitempty"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) ListUsers() ([]models.User, error) {
	users := []models.User{}
	if err := s.db.Preload("Warehouses").Order("name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *UserService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.Preload("Warehouses").Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeyUserNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

func (s *UserService) CreateUser(req *CreateUserRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	req.Identification = strings.TrimSpace(req.Identification)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	user := &models.User{
		Identification: req.Identification,
		Name:           req.Name,
		Email:          req.Email,
		Role:           models.UserRole(req.Role),
		IsActive:       true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.ensureEmailFree(tx, req.Email, uuid.Nil); err != nil {
			return err
		}

		warehouses, err := loadWarehouses(tx, req.Warehouses)
		if err != nil {
			return err
		}

		if err := tx.Omit("Warehouses").Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return badRequest(i18n.KeyUserEmailExists)
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		if len(warehouses) > 0 {
			if err := tx.Model(user).Association("Warehouses").Replace(warehouses); err != nil {
				return fmt.Errorf("failed to assign warehouses: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(user.ID)
}

func (s *UserService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest) (*models.User, error) {
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		req.Email = &email
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(i18n.KeyUserNotFound)
			}
			return fmt.Errorf("database error: %w", err)
		}

		if req.Email != nil && *req.Email != user.Email {
			if err := s.ensureEmailFree(tx, *req.Email, user.ID); err != nil {
				return err
			}
			user.Email = *req.Email
		}
		if req.Identification != nil {
			user.Identification = strings.TrimSpace(*req.Identification)
		}
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Role != nil {
			user.Role = models.UserRole(*req.Role)
		}
		if req.IsActive != nil {
			user.IsActive = *req.IsActive
		}
		if req.Password != nil {
			if err := user.SetPassword(*req.Password); err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
		}

		if err := tx.Omit("Warehouses").Save(&user).Error; err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		if req.Warehouses != nil {
			warehouses, err := loadWarehouses(tx, *req.Warehouses)
			if err != nil {
				return err
			}
			if err := tx.Model(&user).Association("Warehouses").Replace(warehouses); err != nil {
				return fmt.Errorf("failed to assign warehouses: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(userID)
}

func (s *UserService) ensureEmailFree(tx *gorm.DB, email string, exceptID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, exceptID).Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return badRequest(i18n.KeyUserEmailExists)
	}
	return nil
}

// loadWarehouses resolves every id or fails; duplicates collapse.
func loadWarehouses(tx *gorm.DB, ids []uuid.UUID) ([]models.Warehouse, error) {
	if len(ids) == 0 {
		return []models.Warehouse{}, nil
	}

	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}

	var warehouses []models.Warehouse
	if err := tx.Where("id IN ?", ids).Find(&warehouses).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if len(warehouses) != len(unique) {
		return nil, badRequest(i18n.KeyUserWarehouseNotFound)
	}
	return warehouses, nil
}
