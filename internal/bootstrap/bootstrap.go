package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/models"
	"github.com/eduleads/authcore/pkg/crypto"
	"github.com/eduleads/authcore/pkg/logger"
)

// Config carries the default administrator credentials used on first run.
type Config struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.AdminUsername) == "" {
		c.AdminUsername = "admin"
	}
	if strings.TrimSpace(c.AdminEmail) == "" {
		c.AdminEmail = "admin@example.com"
	}
	if c.AdminPassword == "" {
		c.AdminPassword = "admin123"
	}
	return c
}

type seedPermission struct {
	name        string
	description string
}

var seedPermissions = []seedPermission{
	{"read_users", "Read user information"},
	{"write_users", "Create and update users"},
	{"delete_users", "Delete users"},
	{"read_posts", "Read posts"},
	{"write_posts", "Create and update posts"},
	{"delete_posts", "Delete posts"},
	{"manage_roles", "Manage user roles and permissions"},
	{"read_admin", "Access admin dashboard"},
}

type seedRole struct {
	name        string
	description string
	permissions []string
}

var seedRoles = []seedRole{
	{
		name:        "admin",
		description: "Full system administrator with all permissions",
		permissions: []string{
			"read_users", "write_users", "delete_users",
			"read_posts", "write_posts", "delete_posts",
			"manage_roles", "read_admin",
		},
	},
	{
		name:        "moderator",
		description: "Moderator with limited administrative permissions",
		permissions: []string{
			"read_users", "write_users",
			"read_posts", "write_posts",
			"read_admin",
		},
	},
	{
		name:        "user",
		description: "Standard user with read access",
		permissions: []string{"read_users", "read_posts"},
	},
}

// EnsureDefaults idempotently seeds the default permissions, the three
// system roles, and the administrator principal with a permanent admin
// grant. Existing rows are matched by name and left untouched, so edits
// made after the first run survive restarts. Concurrent startups are
// serialized by the uniqueness constraints on names.
func EnsureDefaults(ctx context.Context, db *gorm.DB, cfg Config) error {
	if db == nil {
		return errors.New("bootstrap: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.withDefaults()

	log := logger.WithModule("bootstrap")

	perms, err := ensurePermissions(ctx, db, log)
	if err != nil {
		return err
	}

	roles, err := ensureRoles(ctx, db, perms, log)
	if err != nil {
		return err
	}

	adminRole, ok := roles["admin"]
	if !ok {
		return errors.New("bootstrap: admin role missing after seeding")
	}

	return ensureAdminUser(ctx, db, cfg, adminRole, log)
}

func ensurePermissions(ctx context.Context, db *gorm.DB, log *zap.Logger) (map[string]*models.Permission, error) {
	out := make(map[string]*models.Permission, len(seedPermissions))

	for _, seed := range seedPermissions {
		perm := &models.Permission{Name: seed.name, Description: seed.description}

		err := db.WithContext(ctx).Where("name = ?", seed.name).First(perm).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if createErr := db.WithContext(ctx).Create(perm).Error; createErr != nil {
				// A concurrent bootstrap may have won the race; re-read by name.
				if readErr := db.WithContext(ctx).Where("name = ?", seed.name).First(perm).Error; readErr != nil {
					return nil, fmt.Errorf("bootstrap: seed permission %q: %w", seed.name, createErr)
				}
			} else {
				log.Info("seeded permission", zap.String("name", seed.name))
			}
		case err != nil:
			return nil, fmt.Errorf("bootstrap: load permission %q: %w", seed.name, err)
		}

		out[seed.name] = perm
	}

	return out, nil
}

func ensureRoles(ctx context.Context, db *gorm.DB, perms map[string]*models.Permission, log *zap.Logger) (map[string]*models.Role, error) {
	out := make(map[string]*models.Role, len(seedRoles))

	for _, seed := range seedRoles {
		role := &models.Role{}

		err := db.WithContext(ctx).Where("name = ?", seed.name).First(role).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			role.Name = seed.name
			role.Description = seed.description
			role.IsSystem = true
			for _, permName := range seed.permissions {
				perm, ok := perms[permName]
				if !ok {
					return nil, fmt.Errorf("bootstrap: role %q references unknown permission %q", seed.name, permName)
				}
				role.Permissions = append(role.Permissions, *perm)
			}

			if createErr := db.WithContext(ctx).Create(role).Error; createErr != nil {
				if readErr := db.WithContext(ctx).Where("name = ?", seed.name).First(role).Error; readErr != nil {
					return nil, fmt.Errorf("bootstrap: seed role %q: %w", seed.name, createErr)
				}
			} else {
				log.Info("seeded role",
					zap.String("name", seed.name),
					zap.Int("permissions", len(role.Permissions)))
			}
		case err != nil:
			return nil, fmt.Errorf("bootstrap: load role %q: %w", seed.name, err)
		}

		out[seed.name] = role
	}

	return out, nil
}

func ensureAdminUser(ctx context.Context, db *gorm.DB, cfg Config, adminRole *models.Role, log *zap.Logger) error {
	var admin models.User

	err := db.WithContext(ctx).Where("username = ?", cfg.AdminUsername).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, hashErr := crypto.HashPassword(cfg.AdminPassword)
		if hashErr != nil {
			return fmt.Errorf("bootstrap: hash admin password: %w", hashErr)
		}

		admin = models.User{
			Username: cfg.AdminUsername,
			Email:    cfg.AdminEmail,
			Password: hashed,
			IsActive: true,
			IsRoot:   true,
		}
		if createErr := db.WithContext(ctx).Create(&admin).Error; createErr != nil {
			if readErr := db.WithContext(ctx).Where("username = ?", cfg.AdminUsername).First(&admin).Error; readErr != nil {
				return fmt.Errorf("bootstrap: create admin user: %w", createErr)
			}
		} else {
			log.Warn("created default administrator, change the initial password",
				zap.String("username", admin.Username))
		}
	case err != nil:
		return fmt.Errorf("bootstrap: load admin user: %w", err)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.RoleAssignment{}).
		Where("user_id = ? AND role_id = ?", admin.ID, adminRole.ID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("bootstrap: check admin grant: %w", err)
	}
	if count > 0 {
		return nil
	}

	assignment := models.RoleAssignment{
		UserID:    admin.ID,
		RoleID:    adminRole.ID,
		GrantedBy: admin.ID,
		GrantedAt: time.Now().UTC(),
		ExpiresAt: nil,
	}
	if err := db.WithContext(ctx).Create(&assignment).Error; err != nil {
		var recheck int64
		if countErr := db.WithContext(ctx).Model(&models.RoleAssignment{}).
			Where("user_id = ? AND role_id = ?", admin.ID, adminRole.ID).
			Count(&recheck).Error; countErr == nil && recheck > 0 {
			return nil
		}
		return fmt.Errorf("bootstrap: grant admin role: %w", err)
	}

	log.Info("granted admin role to administrator", zap.String("username", admin.Username))
	return nil
}
