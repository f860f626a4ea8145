// internal/utils/validator_test.go
package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unitForm struct {
	Name         string `json:"name" validate:"required"`
	Abbreviation string `json:"abbreviation" validate:"required,abbreviation"`
	Role         string `json:"role,omitempty" validate:"omitempty,role"`
	Quantity     int64  `json:"quantity" validate:"gte=0"`
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&unitForm{Abbreviation: "b@d", Role: "OWNER", Quantity: -1})
	require.Error(t, err)

	errs := GetValidationErrors(err)
	require.Len(t, errs, 4)

	assert.Equal(t, ValidationError{Loc: []string{"body", "name"}, Msg: "name is required", Type: "value_error.required"}, errs[0])
	assert.Equal(t, []string{"body", "abbreviation"}, errs[1].Loc)
	assert.Equal(t, "value_error.abbreviation", errs[1].Type)
	assert.Equal(t, "Invalid role", errs[2].Msg)
	assert.Equal(t, "quantity must be greater than or equal to 0", errs[3].Msg)
}

func TestValidStructHasNoErrors(t *testing.T) {
	err := ValidateStruct(&unitForm{Name: "Box", Abbreviation: "BOX-12", Role: "PROCESS_LEADER"})
	assert.NoError(t, err)
	assert.Empty(t, GetValidationErrors(err))
	assert.Empty(t, GetValidationErrors(errors.New("not a validation error")))
}
