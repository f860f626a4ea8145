// internal/services/feature_flag_service.go
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

type FeatureFlagService struct {
	db *gorm.DB
}

type CreateFeatureFlagRequest struct {
	Key         string `json:"key" validate:"required,max=100"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description"`
}

// UpdateFeatureFlagRequest cannot rename a flag.
type UpdateFeatureFlagRequest struct {
	Enabled     *bool   `json:"enabled,omitempty"`
	Description *string `json:"description,omitempty"`
}

func NewFeatureFlagService(db *gorm.DB) *FeatureFlagService {
	return &FeatureFlagService{db: db}
}

func (s *FeatureFlagService) ListFlags() ([]models.FeatureFlag, error) {
	flags := []models.FeatureFlag{}
	if err := s.db.Order("key ASC").Find(&flags).Error; err != nil {
		return nil, fmt.Errorf("failed to list feature flags: %w", err)
	}
	return flags, nil
}

func (s *FeatureFlagService) CreateFlag(req *CreateFeatureFlagRequest) (*models.FeatureFlag, error) {
	req.Key = strings.TrimSpace(req.Key)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	flag := &models.FeatureFlag{
		Key:         req.Key,
		Enabled:     req.Enabled,
		Description: req.Description,
	}
	if err := s.db.Create(flag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, badRequest(i18n.KeyFeatureFlagKeyExists)
		}
		return nil, fmt.Errorf("failed to create feature flag: %w", err)
	}
	return flag, nil
}

func (s *FeatureFlagService) UpdateFlag(id uuid.UUID, req *UpdateFeatureFlagRequest) (*models.FeatureFlag, error) {
	flag, err := s.getFlag(id)
	if err != nil {
		return nil, err
	}
	if req.Enabled != nil {
		flag.Enabled = *req.Enabled
	}
	if req.Description != nil {
		flag.Description = *req.Description
	}
	if err := s.db.Save(flag).Error; err != nil {
		return nil, fmt.Errorf("failed to update feature flag: %w", err)
	}
	return flag, nil
}

func (s *FeatureFlagService) ToggleFlag(id uuid.UUID) (*models.FeatureFlag, error) {
	flag, err := s.getFlag(id)
	if err != nil {
		return nil, err
	}
	flag.Enabled = !flag.Enabled
	if err := s.db.Model(flag).Update("enabled", flag.Enabled).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle feature flag: %w", err)
	}
	return flag, nil
}

// IsEnabled treats a missing flag as disabled.
func (s *FeatureFlagService) IsEnabled(key string) (bool, error) {
	var flag models.FeatureFlag
	if err := s.db.Where("key = ?", key).First(&flag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("database error: %w", err)
	}
	return flag.Enabled, nil
}

func (s *FeatureFlagService) getFlag(id uuid.UUID) (*models.FeatureFlag, error) {
	var flag models.FeatureFlag
	if err := s.db.Where("id = ?", id).First(&flag).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeyFeatureFlagNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &flag, nil
}
