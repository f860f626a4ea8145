// internal/handlers/inventory.go
package handlers

import (
	"errors"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/models"
	"github.com/javajoker/stockcount/internal/services"
	"github.com/javajoker/stockcount/internal/utils"
)

const reportURLExpiry = 15 * time.Minute

type InventoryHandler struct {
	inventoryService *services.InventoryService
	storageService   *services.StorageService
}

func NewInventoryHandler(inventoryService *services.InventoryService, storageService *services.StorageService) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		storageService:   storageService,
	}
}

// POST /inventory-sessions/
func (h *InventoryHandler) CreateSession(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req services.CreateSessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.inventoryService.CreateSession(p, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, session)
}

// GET /inventory-sessions/
func (h *InventoryHandler) ListSessions(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	lang := utils.GetLangFromContext(c)

	var filter services.SessionFilter
	if warehouseID := c.Query("warehouse_id"); warehouseID != "" {
		id, err := uuid.Parse(warehouseID)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "warehouse_id"))
			return
		}
		filter.WarehouseID = &id
	}
	if month := c.Query("month"); month != "" {
		m, err := services.ParseMonthFilter(month)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.Month = &m
	}
	switch strings.ToUpper(c.Query("status")) {
	case "":
	case string(models.SessionStatusOpen):
		filter.Status = models.SessionStatusOpen
	case string(models.SessionStatusClosed):
		filter.Status = models.SessionStatusClosed
	default:
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "status"))
		return
	}

	params := utils.GetPaginationParams(c)
	sessions, page, err := h.inventoryService.ListSessions(p, filter, params)
	if err != nil {
		respondError(c, err)
		return
	}

	if params.Enabled {
		utils.SetPaginationHeaders(c, *page)
	}
	utils.SuccessResponse(c, sessions)
}

// GET /inventory-sessions/:id
func (h *InventoryHandler) GetSession(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", i18n.KeySessionNotFound)
	if !ok {
		return
	}

	session, err := h.inventoryService.GetSession(p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, session)
}

// PUT /inventory-sessions/:id/close
func (h *InventoryHandler) CloseSession(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", i18n.KeySessionNotFound)
	if !ok {
		return
	}

	session, err := h.inventoryService.CloseSession(c.Request.Context(), p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, session)
}

// GET /inventory-sessions/:id/report
func (h *InventoryHandler) DownloadReport(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", i18n.KeySessionNotFound)
	if !ok {
		return
	}
	lang := utils.GetLangFromContext(c)

	key, err := h.inventoryService.SessionReportKey(p, id)
	if err == nil && h.storageService.Remote() {
		var url string
		if url, err = h.storageService.GeneratePresignedURL(key, reportURLExpiry); err == nil {
			c.Redirect(http.StatusTemporaryRedirect, url)
			return
		}
	} else if err == nil {
		var report io.ReadCloser
		report, err = h.storageService.OpenReport(c.Request.Context(), key)
		if err == nil {
			defer report.Close()
			c.DataFromReader(http.StatusOK, -1, "text/csv", report, map[string]string{
				"Content-Disposition": `attachment; filename="` + path.Base(key) + `"`,
			})
			return
		}
	}

	if errors.Is(err, services.ErrReportNotFound) {
		utils.NotFoundResponse(c, i18n.T(lang, i18n.KeySessionReportNotFound))
		return
	}
	respondError(c, err)
}

// POST /inventory-sessions/:id/counts
func (h *InventoryHandler) RegisterCount(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", i18n.KeySessionNotFound)
	if !ok {
		return
	}

	var req services.RegisterCountRequest
	if !bindJSON(c, &req) {
		return
	}

	count, err := h.inventoryService.RegisterCount(p, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, count)
}

// GET /inventory-sessions/:id/counts
func (h *InventoryHandler) ListCounts(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", i18n.KeySessionNotFound)
	if !ok {
		return
	}

	counts, err := h.inventoryService.ListCounts(p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, counts)
}

// POST /inventory-sessions/:id/products
func (h *InventoryHandler) AddSessionProducts(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", i18n.KeySessionNotFound)
	if !ok {
		return
	}

	var req services.AddSessionProductsRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.inventoryService.AddSessionProducts(p, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// GET /inventory-sessions/:id/products
func (h *InventoryHandler) ListSessionProducts(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	id, ok := uuidParam(c, "id", i18n.KeySessionNotFound)
	if !ok {
		return
	}

	products, err := h.inventoryService.ListSessionProducts(p, id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, products)
}
