package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/database/testutil"
	"github.com/eduleads/authcore/internal/models"
)

type testDeps struct {
	db *gorm.DB
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t)
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
		IsActive: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedPermission(t *testing.T, db *gorm.DB, name string) *models.Permission {
	t.Helper()
	perm := &models.Permission{Name: name}
	require.NoError(t, db.Create(perm).Error)
	return perm
}

func seedRole(t *testing.T, db *gorm.DB, name string, perms ...*models.Permission) *models.Role {
	t.Helper()
	role := &models.Role{Name: name}
	for _, perm := range perms {
		role.Permissions = append(role.Permissions, *perm)
	}
	require.NoError(t, db.Create(role).Error)
	return role
}
