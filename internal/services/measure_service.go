// internal/services/measure_service.go
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

type MeasureService struct {
	db *gorm.DB
}

type CreateMeasureUnitRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Abbreviation string `json:"abbreviation" validate:"required,abbreviation"`
}

type UpdateMeasureUnitRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Abbreviation *string `json:"abbreviation,omitempty" validate:"omitempty,abbreviation"`
}

func NewMeasureService(db *gorm.DB) *MeasureService {
	return &MeasureService{db: db}
}

func (s *MeasureService) ListUnits(activeOnly bool) ([]models.MeasurementUnit, error) {
	units := []models.MeasurementUnit{}
	query := s.db.Order("name ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&units).Error; err != nil {
		return nil, fmt.Errorf("failed to list measurement units: %w", err)
	}
	return units, nil
}

func (s *MeasureService) CreateUnit(req *CreateMeasureUnitRequest) (*models.MeasurementUnit, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Abbreviation = strings.ToUpper(strings.TrimSpace(req.Abbreviation))
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if err := s.ensureAbbreviationFree(req.Abbreviation, uuid.Nil); err != nil {
		return nil, err
	}

	unit := &models.MeasurementUnit{
		Name:         req.Name,
		Abbreviation: req.Abbreviation,
		IsActive:     true,
	}
	if err := s.db.Create(unit).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, badRequest(i18n.KeyMeasureAbbreviationExists)
		}
		return nil, fmt.Errorf("failed to create measurement unit: %w", err)
	}
	return unit, nil
}

func (s *MeasureService) UpdateUnit(id uuid.UUID, req *UpdateMeasureUnitRequest) (*models.MeasurementUnit, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		req.Name = &name
	}
	if req.Abbreviation != nil {
		abbreviation := strings.ToUpper(strings.TrimSpace(*req.Abbreviation))
		req.Abbreviation = &abbreviation
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	unit, err := s.getUnit(id)
	if err != nil {
		return nil, err
	}

	if req.Abbreviation != nil && *req.Abbreviation != unit.Abbreviation {
		if err := s.ensureAbbreviationFree(*req.Abbreviation, unit.ID); err != nil {
			return nil, err
		}
		unit.Abbreviation = *req.Abbreviation
	}
	if req.Name != nil {
		unit.Name = *req.Name
	}

	if err := s.db.Save(unit).Error; err != nil {
		return nil, fmt.Errorf("failed to update measurement unit: %w", err)
	}
	return unit, nil
}

// ToggleUnit flips is_active.
func (s *MeasureService) ToggleUnit(id uuid.UUID) (*models.MeasurementUnit, error) {
	unit, err := s.getUnit(id)
	if err != nil {
		return nil, err
	}
	unit.IsActive = !unit.IsActive
	if err := s.db.Model(unit).Update("is_active", unit.IsActive).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle measurement unit: %w", err)
	}
	return unit, nil
}

func (s *MeasureService) getUnit(id uuid.UUID) (*models.MeasurementUnit, error) {
	var unit models.MeasurementUnit
	if err := s.db.Where("id = ?", id).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeyMeasureNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &unit, nil
}

func (s *MeasureService) ensureAbbreviationFree(abbreviation string, exceptID uuid.UUID) error {
	var count int64
	if err := s.db.Model(&models.MeasurementUnit{}).
		Where("abbreviation = ? AND id <> ?", abbreviation, exceptID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return badRequest(i18n.KeyMeasureAbbreviationExists)
	}
	return nil
}
