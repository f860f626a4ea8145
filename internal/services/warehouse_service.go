// internal/services/warehouse_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/models"
	"github.com/javajoker/stockcount/internal/utils"
)

type WarehouseService struct {
	db *gorm.DB
}

type CreateWarehouseRequest struct {
	Code        string `json:"code" validate:"required,max=50"`
	Description string `json:"description" validate:"required,max=255"`
	Status      string `json:"status,omitempty" validate:"omitempty,warehouse_status"`
}

func NewWarehouseService(db *gorm.DB) *WarehouseService {
	return &WarehouseService{db: db}
}

// ListWarehouses returns every warehouse for admins and only the assigned
// ones for everybody else.
func (s *WarehouseService) ListWarehouses(p utils.Principal) ([]models.Warehouse, error) {
	warehouses := []models.Warehouse{}
	query := s.db.Order("code ASC")
	if !p.IsAdmin() {
		if len(p.Warehouses) == 0 {
			return warehouses, nil
		}
		query = query.Where("id IN ?", p.Warehouses)
	}
	if err := query.Find(&warehouses).Error; err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehouses, nil
}

func (s *WarehouseService) GetWarehouse(id uuid.UUID) (*models.Warehouse, error) {
	var warehouse models.Warehouse
	if err := s.db.Where("id = ?", id).First(&warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeyWarehouseNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &warehouse, nil
}

func (s *WarehouseService) CreateWarehouse(req *CreateWarehouseRequest) (*models.Warehouse, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Description = strings.TrimSpace(req.Description)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	warehouse := &models.Warehouse{
		Code:        req.Code,
		Description: req.Description,
		Status:      models.WarehouseStatusActive,
	}
	if req.Status != "" {
		warehouse.Status = models.WarehouseStatus(req.Status)
	}

	if err := s.db.Create(warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, badRequest(i18n.KeyWarehouseCodeExists)
		}
		return nil, fmt.Errorf("failed to create warehouse: %w", err)
	}
	return warehouse, nil
}
