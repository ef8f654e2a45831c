package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithInternalKeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrUnavailable.WithInternal(cause)

	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "connection refused")
}

func TestFromErrorPassesThroughAppErrors(t *testing.T) {
	wrapped := fmt.Errorf("grant role: %w", ErrNotFound)

	appErr := FromError(wrapped)
	require.Equal(t, ErrNotFound.Code, appErr.Code)
	require.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, appErr.Code)
	require.Equal(t, http.StatusInternalServerError, appErr.StatusCode)
}

func TestNewConflict(t *testing.T) {
	err := NewConflict("permission name already exists")
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, http.StatusConflict, err.StatusCode)
	require.Equal(t, "permission name already exists", err.Message)
}
