// internal/handlers/measure.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/services"
	"github.com/javajoker/stockcount/internal/utils"
)

type MeasureHandler struct {
	measureService *services.MeasureService
}

func NewMeasureHandler(measureService *services.MeasureService) *MeasureHandler {
	return &MeasureHandler{
		measureService: measureService,
	}
}

// GET /measurement-units/
func (h *MeasureHandler) ListUnits(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))

	units, err := h.measureService.ListUnits(activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, units)
}

// POST /measurement-units/
func (h *MeasureHandler) CreateUnit(c *gin.Context) {
	var req services.CreateMeasureUnitRequest
	if !bindJSON(c, &req) {
		return
	}

	unit, err := h.measureService.CreateUnit(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, unit)
}

// PUT /measurement-units/:id
func (h *MeasureHandler) UpdateUnit(c *gin.Context) {
	id, ok := uuidParam(c, "id", i18n.KeyMeasureNotFound)
	if !ok {
		return
	}

	var req services.UpdateMeasureUnitRequest
	if !bindJSON(c, &req) {
		return
	}

	unit, err := h.measureService.UpdateUnit(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, unit)
}

// PATCH /measurement-units/:id/toggle
func (h *MeasureHandler) ToggleUnit(c *gin.Context) {
	id, ok := uuidParam(c, "id", i18n.KeyMeasureNotFound)
	if !ok {
		return
	}

	unit, err := h.measureService.ToggleUnit(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, unit)
}
