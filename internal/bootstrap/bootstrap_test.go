package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eduleads/authcore/internal/database/testutil"
	"github.com/eduleads/authcore/internal/models"
	"github.com/eduleads/authcore/pkg/crypto"
)

func TestEnsureDefaultsSeedsEverything(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	require.NoError(t, EnsureDefaults(context.Background(), db, Config{}))

	var permCount int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&permCount).Error)
	require.EqualValues(t, len(seedPermissions), permCount)

	var roles []models.Role
	require.NoError(t, db.Preload("Permissions").Order("name ASC").Find(&roles).Error)
	require.Len(t, roles, 3)

	byName := make(map[string]models.Role, len(roles))
	for _, role := range roles {
		require.True(t, role.IsSystem, "seed role %s must be protected", role.Name)
		byName[role.Name] = role
	}

	require.Len(t, byName["admin"].Permissions, len(seedPermissions))
	moderatorRole := byName["moderator"]
	require.ElementsMatch(t,
		[]string{"read_users", "write_users", "read_posts", "write_posts", "read_admin"},
		moderatorRole.PermissionNames())
	userRole := byName["user"]
	require.ElementsMatch(t,
		[]string{"read_users", "read_posts"},
		userRole.PermissionNames())

	var admin models.User
	require.NoError(t, db.First(&admin, "username = ?", "admin").Error)
	require.True(t, admin.IsRoot)
	require.True(t, admin.IsActive)
	require.True(t, crypto.VerifyPassword(admin.Password, "admin123"))

	var assignment models.RoleAssignment
	require.NoError(t, db.First(&assignment,
		"user_id = ? AND role_id = ?", admin.ID, byName["admin"].ID).Error)
	require.Nil(t, assignment.ExpiresAt, "admin grant must be permanent")
	require.Equal(t, admin.ID, assignment.GrantedBy)
}

func TestEnsureDefaultsIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	require.NoError(t, EnsureDefaults(context.Background(), db, Config{}))
	require.NoError(t, EnsureDefaults(context.Background(), db, Config{}))

	var permCount, roleCount, userCount, assignmentCount int64
	require.NoError(t, db.Model(&models.Permission{}).Count(&permCount).Error)
	require.NoError(t, db.Model(&models.Role{}).Count(&roleCount).Error)
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.RoleAssignment{}).Count(&assignmentCount).Error)

	require.EqualValues(t, len(seedPermissions), permCount)
	require.EqualValues(t, 3, roleCount)
	require.EqualValues(t, 1, userCount)
	require.EqualValues(t, 1, assignmentCount)
}

func TestEnsureDefaultsKeepsCustomisations(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	require.NoError(t, EnsureDefaults(context.Background(), db, Config{}))

	// Operator narrows the user role after the first run.
	var userRole models.Role
	require.NoError(t, db.Preload("Permissions").First(&userRole, "name = ?", "user").Error)
	var readPosts models.Permission
	require.NoError(t, db.First(&readPosts, "name = ?", "read_posts").Error)
	require.NoError(t, db.Model(&userRole).Association("Permissions").Delete(&readPosts))

	require.NoError(t, EnsureDefaults(context.Background(), db, Config{}))

	require.NoError(t, db.Preload("Permissions").First(&userRole, "name = ?", "user").Error)
	require.ElementsMatch(t, []string{"read_users"}, userRole.PermissionNames())
}

func TestEnsureDefaultsCustomAdminCredentials(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	cfg := Config{
		AdminUsername: "root",
		AdminEmail:    "root@corp.example",
		AdminPassword: "s3cret-pass",
	}
	require.NoError(t, EnsureDefaults(context.Background(), db, cfg))

	var admin models.User
	require.NoError(t, db.First(&admin, "username = ?", "root").Error)
	require.Equal(t, "root@corp.example", admin.Email)
	require.True(t, crypto.VerifyPassword(admin.Password, "s3cret-pass"))
}
