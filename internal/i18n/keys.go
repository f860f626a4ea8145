// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyValidationInvalid = "validation.invalid"
	KeyInternalError     = "error.internal"
	KeyRateLimited       = "error.rate_limited"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthInactive           = "auth.inactive"
	KeyAuthForbidden          = "auth.forbidden"
	KeyAuthWarehouseDenied    = "auth.warehouse_denied"

	// Users
	KeyUserNotFound          = "user.not_found"
	KeyUserEmailExists       = "user.email_exists"
	KeyUserInvalidRole       = "user.invalid_role"
	KeyUserWarehouseNotFound = "user.warehouse_not_found"
	KeyUserSyncFailed        = "user.sync_failed"

	// Warehouses
	KeyWarehouseNotFound   = "warehouse.not_found"
	KeyWarehouseCodeExists = "warehouse.code_exists"

	// Measurement units
	KeyMeasureNotFound           = "measure.not_found"
	KeyMeasureAbbreviationExists = "measure.abbreviation_exists"

	// Products
	KeyProductNotFound      = "product.not_found"
	KeyProductCodeExists    = "product.code_exists"
	KeyProductInvalidFactor = "product.invalid_factor"

	// Feature flags
	KeyFeatureFlagNotFound  = "feature_flag.not_found"
	KeyFeatureFlagKeyExists = "feature_flag.key_exists"

	// Inventory sessions
	KeySessionNotFound       = "session.not_found"
	KeySessionDateRestricted = "session.date_restricted"
	KeySessionMaxPerMonth    = "session.max_per_month"
	KeySessionAlreadyClosed  = "session.already_closed"
	KeySessionClosed         = "session.closed"
	KeySessionNotAssigned    = "session.not_assigned"
	KeySessionInvalidMonth   = "session.invalid_month"
	KeySessionReportNotFound = "session.report_not_found"
	KeySessionClosedProducts = "session.closed_products"
)
