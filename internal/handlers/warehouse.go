// internal/handlers/warehouse.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/stockcount/internal/services"
	"github.com/javajoker/stockcount/internal/utils"
)

type WarehouseHandler struct {
	warehouseService *services.WarehouseService
}

func NewWarehouseHandler(warehouseService *services.WarehouseService) *WarehouseHandler {
	return &WarehouseHandler{
		warehouseService: warehouseService,
	}
}

// GET /warehouses/
func (h *WarehouseHandler) ListWarehouses(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	warehouses, err := h.warehouseService.ListWarehouses(p)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, warehouses)
}

// POST /warehouses/
func (h *WarehouseHandler) CreateWarehouse(c *gin.Context) {
	var req services.CreateWarehouseRequest
	if !bindJSON(c, &req) {
		return
	}

	warehouse, err := h.warehouseService.CreateWarehouse(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, warehouse)
}
