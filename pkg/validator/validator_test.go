package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type grantPayload struct {
	UserID    string `json:"user_id" validate:"required"`
	RoleID    string `json:"role_id" validate:"required"`
	ExpiresAt string `json:"expires_at" validate:"omitempty"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&grantPayload{RoleID: "r1"})
	require.Error(t, err)

	ve, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, ve, 1)
	require.Equal(t, "user_id", ve[0].Field)
	require.Equal(t, "required", ve[0].Tag)
}

func TestValidateStructPassesValidPayload(t *testing.T) {
	require.NoError(t, ValidateStruct(&grantPayload{UserID: "u1", RoleID: "r1"}))
}
