// internal/services/inventory_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/stockcount/internal/config"
	"github.com/javajoker/stockcount/internal/database"
	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/models"
	"github.com/javajoker/stockcount/internal/utils"
)

type InventoryService struct {
	db      *gorm.DB
	cfg     *config.Config
	flags   *FeatureFlagService
	storage *StorageService
	now     func() time.Time
}

type CreateSessionRequest struct {
	WarehouseID uuid.UUID `json:"warehouse_id" validate:"required"`
	Month       time.Time `json:"month"`
	// CreatedBy is accepted for compatibility; the session is always
	// recorded under the authenticated user.
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
}

type RegisterCountRequest struct {
	ProductID         uuid.UUID  `json:"product_id" validate:"required"`
	PackagingQuantity int64      `json:"packaging_quantity" validate:"gte=0,lte=1000000000"`
	MeasureUnitID     *uuid.UUID `json:"measure_unit_id,omitempty"`
}

type AddSessionProductsRequest struct {
	ProductIDs []uuid.UUID `json:"product_ids" validate:"required"`
}

type AddSessionProductsResponse struct {
	Added int `json:"added"`
}

type SessionProduct struct {
	ProductID   uuid.UUID `json:"product_id"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
}

type SessionFilter struct {
	WarehouseID *uuid.UUID
	Month       *time.Time
	Status      models.SessionStatus
}

type SessionSummary struct {
	ID                   uuid.UUID            `json:"id"`
	WarehouseID          uuid.UUID            `json:"warehouse_id"`
	WarehouseDescription string               `json:"warehouse_description"`
	Month                time.Time            `json:"month"`
	CountNumber          int                  `json:"count_number"`
	CreatedByID          uuid.UUID            `json:"created_by_id"`
	CreatedByName        string               `json:"created_by_name"`
	CreatedAt            time.Time            `json:"created_at"`
	ClosedAt             *time.Time           `json:"closed_at"`
	Status               models.SessionStatus `json:"status"`
	ProductsCount        int64                `json:"products_count"`
}

type CountProduct struct {
	ID               uuid.UUID       `json:"id"`
	Code             string          `json:"code"`
	Description      string          `json:"description"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

type CountMeasureUnit struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
}

type CountResponse struct {
	ID                uuid.UUID         `json:"id"`
	SessionID         uuid.UUID         `json:"session_id"`
	Product           CountProduct      `json:"product"`
	MeasureUnit       *CountMeasureUnit `json:"measure_unit"`
	PackagingQuantity int64             `json:"packaging_quantity"`
	TotalUnits        int64             `json:"total_units"`
	CreatedAt         time.Time         `json:"created_at"`
}

func NewInventoryService(db *gorm.DB, cfg *config.Config, flags *FeatureFlagService, storage *StorageService) *InventoryService {
	return &InventoryService{
		db:      db,
		cfg:     cfg,
		flags:   flags,
		storage: storage,
		now:     time.Now,
	}
}

// FirstOfMonth normalizes t to day 1, 00:00 UTC.
func FirstOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonthFilter accepts YYYY-MM or a full RFC 3339 timestamp.
func ParseMonthFilter(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return FirstOfMonth(t), nil
	}
	return time.Time{}, badRequest(i18n.KeySessionInvalidMonth)
}

func (s *InventoryService) CreateSession(p utils.Principal, req *CreateSessionRequest) (*SessionSummary, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if req.Month.IsZero() {
		return nil, badRequest(i18n.KeySessionInvalidMonth)
	}

	restricted, err := s.flags.IsEnabled(models.FlagInventoryDateRestriction)
	if err != nil {
		return nil, err
	}
	if restricted && s.now().UTC().Day() > s.cfg.Inventory.AllowedCreationDays {
		return nil, badRequest(i18n.KeySessionDateRestricted, s.cfg.Inventory.AllowedCreationDays)
	}

	if !p.CanAccessWarehouse(req.WarehouseID) {
		return nil, forbidden(i18n.KeyAuthWarehouseDenied)
	}

	var warehouse models.Warehouse
	if err := s.db.Where("id = ?", req.WarehouseID).First(&warehouse).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeyWarehouseNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	month := FirstOfMonth(req.Month)
	session := &models.InventorySession{
		WarehouseID: warehouse.ID,
		Month:       month,
		CreatedByID: p.UserID,
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.InventorySession{}).
			Where("warehouse_id = ? AND month = ?", warehouse.ID, month).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if existing >= int64(s.cfg.Inventory.MaxSessionsPerMonth) {
			return badRequest(i18n.KeySessionMaxPerMonth, s.cfg.Inventory.MaxSessionsPerMonth)
		}

		var lastNumber int
		if err := tx.Model(&models.InventorySession{}).
			Unscoped().
			Where("warehouse_id = ? AND month = ?", warehouse.ID, month).
			Select("COALESCE(MAX(count_number), 0)").
			Scan(&lastNumber).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		session.CountNumber = lastNumber + 1

		if err := tx.Create(session).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return newBusinessError(http.StatusConflict, i18n.KeySessionMaxPerMonth, s.cfg.Inventory.MaxSessionsPerMonth)
			}
			return fmt.Errorf("failed to create inventory session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"session_id":   session.ID,
		"warehouse_id": warehouse.ID,
		"month":        month.Format("2006-01"),
		"count_number": session.CountNumber,
	}).Info("Inventory session created")

	return s.GetSession(p, session.ID)
}

func (s *InventoryService) ListSessions(p utils.Principal, filter SessionFilter, page utils.PaginationParams) ([]SessionSummary, *utils.PaginationResult, error) {
	query := s.db.Model(&models.InventorySession{})

	if !p.IsAdmin() {
		if len(p.Warehouses) == 0 {
			result := utils.CreatePaginationResult(0, page)
			return []SessionSummary{}, &result, nil
		}
		query = query.Where("warehouse_id IN ?", p.Warehouses)
	}
	if filter.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.Month != nil {
		query = query.Where("month = ?", FirstOfMonth(*filter.Month))
	}
	switch filter.Status {
	case models.SessionStatusOpen:
		query = query.Where("closed_at IS NULL")
	case models.SessionStatusClosed:
		query = query.Where("closed_at IS NOT NULL")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count inventory sessions: %w", err)
	}

	var sessions []models.InventorySession
	if err := utils.ApplyPagination(query, page).
		Preload("Warehouse").
		Preload("CreatedBy").
		Order("month DESC, count_number DESC").
		Find(&sessions).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to list inventory sessions: %w", err)
	}

	summaries, err := s.summarize(sessions)
	if err != nil {
		return nil, nil, err
	}

	result := utils.CreatePaginationResult(total, page)
	return summaries, &result, nil
}

func (s *InventoryService) GetSession(p utils.Principal, sessionID uuid.UUID) (*SessionSummary, error) {
	session, err := s.loadSession(p, sessionID)
	if err != nil {
		return nil, err
	}
	summaries, err := s.summarize([]models.InventorySession{*session})
	if err != nil {
		return nil, err
	}
	return &summaries[0], nil
}

// CloseSession marks an open session closed and archives its count report.
// A failed archive is logged and does not reopen the session.
func (s *InventoryService) CloseSession(ctx context.Context, p utils.Principal, sessionID uuid.UUID) (*SessionSummary, error) {
	session, err := s.loadSession(p, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsClosed() {
		return nil, badRequest(i18n.KeySessionAlreadyClosed)
	}

	closedAt := s.now().UTC()
	res := s.db.Model(&models.InventorySession{}).
		Where("id = ? AND closed_at IS NULL", session.ID).
		Update("closed_at", closedAt)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to close inventory session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, badRequest(i18n.KeySessionAlreadyClosed)
	}
	session.ClosedAt = &closedAt

	if s.storage != nil {
		s.archiveReport(ctx, session)
	}

	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"closed_by":  p.UserID,
	}).Info("Inventory session closed")

	return s.GetSession(p, session.ID)
}

func (s *InventoryService) archiveReport(ctx context.Context, session *models.InventorySession) {
	counts, err := s.findCounts(session.ID)
	if err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).Error("Failed to load counts for report")
		return
	}
	key, err := s.storage.ArchiveSessionReport(ctx, session, counts)
	if err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).Error("Failed to archive inventory report")
		return
	}
	if err := s.db.Model(session).Update("report_key", key).Error; err != nil {
		logrus.WithError(err).WithField("session_id", session.ID).Warn("Failed to store report key")
	}
}

// SessionReportKey returns where the report of a closed session lives.
func (s *InventoryService) SessionReportKey(p utils.Principal, sessionID uuid.UUID) (string, error) {
	session, err := s.loadSession(p, sessionID)
	if err != nil {
		return "", err
	}
	if session.ReportKey == "" {
		return "", ErrReportNotFound
	}
	return session.ReportKey, nil
}

// RegisterCount stores one count entry. Registering a product again adds a
// new entry; nothing is overwritten.
func (s *InventoryService) RegisterCount(p utils.Principal, sessionID uuid.UUID, req *RegisterCountRequest) (*CountResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.loadSession(p, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsClosed() {
		return nil, badRequest(i18n.KeySessionClosed)
	}

	var product models.Product
	if err := s.db.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeyProductNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var unit *models.MeasurementUnit
	if req.MeasureUnitID != nil && *req.MeasureUnitID != uuid.Nil {
		unit = &models.MeasurementUnit{}
		if err := s.db.Where("id = ?", *req.MeasureUnitID).First(unit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound(i18n.KeyMeasureNotFound)
			}
			return nil, fmt.Errorf("database error: %w", err)
		}
	}

	createdBy := p.UserID
	count := &models.InventoryCount{
		SessionID:         session.ID,
		ProductID:         product.ID,
		PackagingQuantity: req.PackagingQuantity,
		TotalUnits:        product.TotalUnits(req.PackagingQuantity),
		CreatedByID:       &createdBy,
	}
	if unit != nil {
		count.MeasureUnitID = &unit.ID
	}

	if err := s.db.Omit("Session", "Product", "MeasureUnit").Create(count).Error; err != nil {
		return nil, fmt.Errorf("failed to register count: %w", err)
	}
	count.Product = &product
	count.MeasureUnit = unit

	logrus.WithFields(logrus.Fields{
		"session_id":         session.ID,
		"product_id":         product.ID,
		"packaging_quantity": count.PackagingQuantity,
		"total_units":        count.TotalUnits,
	}).Debug("Inventory count registered")

	response := toCountResponse(count)
	return &response, nil
}

func (s *InventoryService) ListCounts(p utils.Principal, sessionID uuid.UUID) ([]CountResponse, error) {
	session, err := s.loadSession(p, sessionID)
	if err != nil {
		return nil, err
	}

	counts, err := s.findCounts(session.ID)
	if err != nil {
		return nil, err
	}

	responses := make([]CountResponse, 0, len(counts))
	for i := range counts {
		responses = append(responses, toCountResponse(&counts[i]))
	}
	return responses, nil
}

// AddSessionProducts puts products on a session's list by storing a zero
// count for each product that has no count yet.
func (s *InventoryService) AddSessionProducts(p utils.Principal, sessionID uuid.UUID, req *AddSessionProductsRequest) (*AddSessionProductsResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.loadSession(p, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsClosed() {
		return nil, badRequest(i18n.KeySessionClosedProducts)
	}

	added := 0
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		seen := make(map[uuid.UUID]struct{}, len(req.ProductIDs))
		for _, productID := range req.ProductIDs {
			if _, dup := seen[productID]; dup {
				continue
			}
			seen[productID] = struct{}{}

			var existing int64
			if err := tx.Model(&models.InventoryCount{}).
				Where("session_id = ? AND product_id = ?", session.ID, productID).
				Count(&existing).Error; err != nil {
				return fmt.Errorf("database error: %w", err)
			}
			if existing > 0 {
				continue
			}

			var product models.Product
			if err := tx.Where("id = ?", productID).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return notFound(i18n.KeyProductNotFound)
				}
				return fmt.Errorf("database error: %w", err)
			}

			createdBy := p.UserID
			count := &models.InventoryCount{
				SessionID:   session.ID,
				ProductID:   product.ID,
				CreatedByID: &createdBy,
			}
			if err := tx.Omit("Session", "Product", "MeasureUnit").Create(count).Error; err != nil {
				return fmt.Errorf("failed to add product: %w", err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"session_id": session.ID,
		"added":      added,
	}).Debug("Products added to inventory session")
	return &AddSessionProductsResponse{Added: added}, nil
}

// ListSessionProducts lists the products that have at least one count in the
// session, in order of their first count.
func (s *InventoryService) ListSessionProducts(p utils.Principal, sessionID uuid.UUID) ([]SessionProduct, error) {
	session, err := s.loadSession(p, sessionID)
	if err != nil {
		return nil, err
	}

	counts, err := s.findCounts(session.ID)
	if err != nil {
		return nil, err
	}

	products := make([]SessionProduct, 0, len(counts))
	seen := make(map[uuid.UUID]struct{}, len(counts))
	for _, count := range counts {
		if _, dup := seen[count.ProductID]; dup {
			continue
		}
		seen[count.ProductID] = struct{}{}

		item := SessionProduct{ProductID: count.ProductID}
		if count.Product != nil {
			item.Code = count.Product.Code
			item.Description = count.Product.Description
		}
		products = append(products, item)
	}
	return products, nil
}

func (s *InventoryService) findCounts(sessionID uuid.UUID) ([]models.InventoryCount, error) {
	var counts []models.InventoryCount
	if err := s.db.Preload("Product").Preload("MeasureUnit").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to list counts: %w", err)
	}
	return counts, nil
}

// loadSession fetches a session the principal may act on.
func (s *InventoryService) loadSession(p utils.Principal, sessionID uuid.UUID) (*models.InventorySession, error) {
	var session models.InventorySession
	if err := s.db.Preload("Warehouse").Preload("CreatedBy").
		Where("id = ?", sessionID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(i18n.KeySessionNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !p.CanAccessWarehouse(session.WarehouseID) {
		return nil, forbidden(i18n.KeySessionNotAssigned)
	}
	return &session, nil
}

func (s *InventoryService) summarize(sessions []models.InventorySession) ([]SessionSummary, error) {
	summaries := make([]SessionSummary, 0, len(sessions))
	if len(sessions) == 0 {
		return summaries, nil
	}

	ids := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}

	var rows []struct {
		SessionID uuid.UUID
		Products  int64
	}
	if err := s.db.Model(&models.InventoryCount{}).
		Select("session_id, COUNT(DISTINCT product_id) AS products").
		Where("session_id IN ?", ids).
		Group("session_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count session products: %w", err)
	}
	products := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		products[row.SessionID] = row.Products
	}

	for _, session := range sessions {
		summary := SessionSummary{
			ID:            session.ID,
			WarehouseID:   session.WarehouseID,
			Month:         session.Month.UTC(),
			CountNumber:   session.CountNumber,
			CreatedByID:   session.CreatedByID,
			CreatedAt:     session.CreatedAt,
			ClosedAt:      session.ClosedAt,
			Status:        session.Status(),
			ProductsCount: products[session.ID],
		}
		if session.Warehouse != nil {
			summary.WarehouseDescription = session.Warehouse.Description
		}
		if session.CreatedBy != nil {
			summary.CreatedByName = session.CreatedBy.Name
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func toCountResponse(count *models.InventoryCount) CountResponse {
	response := CountResponse{
		ID:                count.ID,
		SessionID:         count.SessionID,
		PackagingQuantity: count.PackagingQuantity,
		TotalUnits:        count.TotalUnits,
		CreatedAt:         count.CreatedAt,
	}
	if count.Product != nil {
		response.Product = CountProduct{
			ID:               count.Product.ID,
			Code:             count.Product.Code,
			Description:      count.Product.Description,
			ConversionFactor: count.Product.ConversionFactor,
		}
	} else {
		response.Product.ID = count.ProductID
	}
	if count.MeasureUnit != nil {
		response.MeasureUnit = &CountMeasureUnit{
			ID:           count.MeasureUnit.ID,
			Name:         count.MeasureUnit.Name,
			Abbreviation: count.MeasureUnit.Abbreviation,
		}
	}
	return response
}
