// internal/handlers/feature_flag.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/services"
	"github.com/javajoker/stockcount/internal/utils"
)

type FeatureFlagHandler struct {
	flagService *services.FeatureFlagService
}

func NewFeatureFlagHandler(flagService *services.FeatureFlagService) *FeatureFlagHandler {
	return &FeatureFlagHandler{
		flagService: flagService,
	}
}

// GET /feature-flags/
func (h *FeatureFlagHandler) ListFlags(c *gin.Context) {
	flags, err := h.flagService.ListFlags()
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, flags)
}

// POST /feature-flags/
func (h *FeatureFlagHandler) CreateFlag(c *gin.Context) {
	var req services.CreateFeatureFlagRequest
	if !bindJSON(c, &req) {
		return
	}

	flag, err := h.flagService.CreateFlag(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, flag)
}

// PUT /feature-flags/:id
func (h *FeatureFlagHandler) UpdateFlag(c *gin.Context) {
	id, ok := uuidParam(c, "id", i18n.KeyFeatureFlagNotFound)
	if !ok {
		return
	}

	var req services.UpdateFeatureFlagRequest
	if !bindJSON(c, &req) {
		return
	}

	flag, err := h.flagService.UpdateFlag(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, flag)
}

// PATCH /feature-flags/:id/toggle
func (h *FeatureFlagHandler) ToggleFlag(c *gin.Context) {
	id, ok := uuidParam(c, "id", i18n.KeyFeatureFlagNotFound)
	if !ok {
		return
	}

	flag, err := h.flagService.ToggleFlag(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, flag)
}
