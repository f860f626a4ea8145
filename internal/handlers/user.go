// internal/handlers/user.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/stockcount/internal/i18n"
	"github.com/javajoker/stockcount/internal/services"
	"github.com/javajoker/stockcount/internal/utils"
)

type UserHandler struct {
	userService *services.UserService
	syncService *services.UserSyncService
}

func NewUserHandler(userService *services.UserService, syncService *services.UserSyncService) *UserHandler {
	return &UserHandler{
		userService: userService,
		syncService: syncService,
	}
}

// POST /users/sync
func (h *UserHandler) SyncUsers(c *gin.Context) {
	result, err := h.syncService.SyncUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

// GET /users/
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers()
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, users)
}

// GET /users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := uuidParam(c, "id", i18n.KeyUserNotFound)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}

// POST /users/
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.CreateUser(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, user)
}

// PUT /users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := uuidParam(c, "id", i18n.KeyUserNotFound)
	if !ok {
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, user)
}
