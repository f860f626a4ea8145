// internal/handlers/helpers.go
package handlers

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/services"
	"github.com/javajoker/stockcount/internal/utils"
)

// bindJSON decodes and validates the body, writing the error response itself
// when it returns false.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		if errors.Is(err, io.EOF) {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "body"))
			return false
		}
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"))
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

// uuidParam parses a path parameter, answering 404 for malformed ids.
func uuidParam(c *gin.Context, name, notFoundKey string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.NotFoundResponse(c, i18n.T(utils.GetLangFromContext(c), notFoundKey))
		return uuid.Nil, false
	}
	return id, true
}

func principal(c *gin.Context) (utils.Principal, bool) {
	p, ok := utils.GetPrincipal(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
	}
	return p, ok
}

// respondError maps service errors onto the detail envelope.
func respondError(c *gin.Context, err error) {
	if be, ok := services.AsBusinessError(err); ok {
		utils.ErrorResponse(c, be.Status, be.Message(utils.GetLangFromContext(c)))
		return
	}

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	logrus.WithError(err).WithFields(logrus.Fields{
		"request_id": utils.GetRequestID(c),
		"path":       c.FullPath(),
	}).Error("Unhandled service error")
	utils.InternalErrorResponse(c, "")
}
