// internal/utils/context.go
package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Context keys set by the auth middleware.
const (
	ContextUserID     = "user_id"
	ContextRole       = "role"
	ContextWarehouses = "warehouses"
	ContextRequestID  = "request_id"
)

// Principal is the authenticated caller as described by the token.
type Principal struct {
	UserID     uuid.UUID
	Role       string
	Warehouses []uuid.UUID
}

func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}

// CanAccessWarehouse reports whether the caller may act on the warehouse.
// Admins may act on every warehouse.
func (p Principal) CanAccessWarehouse(id uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	for _, w := range p.Warehouses {
		if w == id {
			return true
		}
	}
	return false
}

func SetPrincipal(c *gin.Context, claims *JWTClaims) error {
	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return err
	}
	warehouses := make([]uuid.UUID, 0, len(claims.Warehouses))
	for _, w := range claims.Warehouses {
		id, err := uuid.Parse(w)
		if err != nil {
			return err
		}
		warehouses = append(warehouses, id)
	}
	c.Set(ContextUserID, userID.String())
	c.Set(ContextRole, claims.Role)
	c.Set(ContextWarehouses, warehouses)
	return nil
}

func GetPrincipal(c *gin.Context) (Principal, bool) {
	userID, ok := GetUserIDFromContext(c)
	if !ok {
		return Principal{}, false
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return Principal{}, false
	}
	role, _ := GetRoleFromContext(c)
	var warehouses []uuid.UUID
	if v, exists := c.Get(ContextWarehouses); exists {
		warehouses, _ = v.([]uuid.UUID)
	}
	return Principal{UserID: id, Role: role, Warehouses: warehouses}, true
}

func GetUserIDFromContext(c *gin.Context) (string, bool) {
	if userID, exists := c.Get(ContextUserID); exists {
		if userIDStr, ok := userID.(string); ok {
			return userIDStr, true
		}
	}
	return "", false
}

func GetRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get(ContextRole); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestID)
}
