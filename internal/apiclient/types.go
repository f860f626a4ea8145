// internal/apiclient/types.go
package apiclient

import (
	"time"

	"github.com/shopspring/decimal"
)

// Credentials are passed explicitly on every call that needs authentication.
type Credentials struct {
	Token  string
	UserID string
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Warehouse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type User struct {
	ID             string      `json:"id"`
	Identification string      `json:"identification"`
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Role           string      `json:"role"`
	IsActive       bool        `json:"is_active"`
	Warehouses     []Warehouse `json:"warehouses"`
}

type MeasureUnit struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	IsActive     bool   `json:"is_active"`
}

type Product struct {
	ID               string          `json:"id"`
	Code             string          `json:"code"`
	Description      string          `json:"description"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
	InventoryUnitID  string          `json:"inventory_unit_id"`
	PackagingUnitID  string          `json:"packaging_unit_id"`
}

// POST /inventory-sessions/
type CreateSessionRequest struct {
	WarehouseID string `json:"warehouse_id"`
	Month       string `json:"month"`
	CreatedBy   string `json:"created_by"`
}

type Session struct {
	ID                   string     `json:"id"`
	WarehouseID          string     `json:"warehouse_id"`
	WarehouseDescription string     `json:"warehouse_description,omitempty"`
	Month                time.Time  `json:"month"`
	CountNumber          int        `json:"count_number"`
	CreatedByID          string     `json:"created_by_id"`
	CreatedByName        string     `json:"created_by_name,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	ClosedAt             *time.Time `json:"closed_at"`
	Status               string     `json:"status"`
	ProductsCount        int64      `json:"products_count"`
}

// POST /inventory-sessions/{id}/counts
type RegisterCountRequest struct {
	ProductID         string `json:"product_id"`
	PackagingQuantity int64  `json:"packaging_quantity"`
	MeasureUnitID     string `json:"measure_unit_id,omitempty"`
}

type ProductSummary struct {
	ID               string          `json:"id"`
	Code             string          `json:"code"`
	Description      string          `json:"description"`
	ConversionFactor decimal.Decimal `json:"conversion_factor"`
}

type MeasureUnitSummary struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
}

// Count is one entry of GET /inventory-sessions/{id}/counts and the body
// returned by a successful registration.
type Count struct {
	Product           ProductSummary      `json:"product"`
	MeasureUnit       *MeasureUnitSummary `json:"measure_unit"`
	PackagingQuantity int64               `json:"packaging_quantity"`
	TotalUnits        int64               `json:"total_units"`
	CreatedAt         time.Time           `json:"created_at"`
}

type AddSessionProductsRequest struct {
	ProductIDs []string `json:"product_ids"`
}

type AddSessionProductsResponse struct {
	Added int `json:"added"`
}

type SessionProduct struct {
	ProductID   string `json:"product_id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}
