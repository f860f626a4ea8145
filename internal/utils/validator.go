// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

var abbreviationPattern = regexp.MustCompile(`^[A-Za-z0-9.\-/]{1,20}$`)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterValidation("role", validateRole)
	validate.RegisterValidation("abbreviation", validateAbbreviation)
	validate.RegisterValidation("warehouse_status", validateWarehouseStatus)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ADMIN", "WAREHOUSE_MANAGER", "PROCESS_LEADER":
		return true
	}
	return false
}

func validateWarehouseStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ACTIVE", "INACTIVE", "MAINTENANCE", "CLOSED":
		return true
	}
	return false
}

func validateAbbreviation(fl validator.FieldLevel) bool {
	return abbreviationPattern.MatchString(strings.TrimSpace(fl.Field().String()))
}

// ValidationError mirrors one entry of a `detail` list: where, what and why.
type ValidationError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Loc:  []string{"body", e.Field()},
				Msg:  getValidationMessage(e),
				Type: "value_error." + e.Tag(),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "uuid", "uuid4":
		return e.Field() + " must be a valid UUID"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "role":
		return "Invalid role"
	case "warehouse_status":
		return "Invalid warehouse status"
	case "abbreviation":
		return "Abbreviation must be 1-20 letters, digits, '.', '-' or '/'"
	default:
		return e.Field() + " is invalid"
	}
}
