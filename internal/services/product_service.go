// internal/services/product_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/models"
	"github.com/javajoker/stockcount/internal/utils"
)

type ProductService struct {
	db *gorm.DB
}

type CreateProductRequest struct {
	Code             string          `json:"code" validate:"required,max=50"`
	Description      string          `json:"description" validate:"required,max=255"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	InventoryUnitID  uuid.UUID       `json:"inventory_unit_id" validate:"required"`
	PackagingUnitID  uuid.UUID       `json:"packaging_unit_id" validate:"required"`
}

type ProductSearchParams struct {
	Search string
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) ListProducts(params ProductSearchParams) ([]models.Product, error) {
	products := []models.Product{}
	query := s.db.Order("code ASC")
	if search := strings.TrimSpace(params.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeyProductNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) CreateProduct(req *CreateProductRequest) (*models.Product, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Description = strings.TrimSpace(req.Description)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !req.ConversionFactor.IsPositive() {
		return nil, badRequest(i18n.KeyProductInvalidFactor)
	}

	for _, unitID := range []uuid.UUID{req.InventoryUnitID, req.PackagingUnitID} {
		var count int64
		if err := s.db.Model(&models.MeasurementUnit{}).Where("id = ?", unitID).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("database error: %w", err)
		}
		if count == 0 {
			return nil, notFound(i18n.KeyMeasureNotFound)
		}
	}

	product := &models.Product{
		Code:             req.Code,
		Description:      req.Description,
		ConversionFactor: req.ConversionFactor.Round(4),
		InventoryUnitID:  req.InventoryUnitID,
		PackagingUnitID:  req.PackagingUnitID,
	}
	if err := s.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, badRequest(i18n.KeyProductCodeExists)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}
