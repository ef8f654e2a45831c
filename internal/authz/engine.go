package authz

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/models"
	apperrors "github.com/eduleads/authcore/pkg/errors"
)

// Engine answers authorization questions for a principal by resolving the
// principal's active role assignments and expanding them into permissions.
//
// Denial is always reported as a plain false. The only error an evaluation
// surfaces is a wrapped ErrUnavailable when the backing store cannot be
// read, which callers must treat as deny.
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

// Option customises engine construction.
type Option func(*Engine)

// WithClock overrides the time source used to evaluate assignment expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an authorization engine backed by the provided database.
func NewEngine(db *gorm.DB, opts ...Option) (*Engine, error) {
	if db == nil {
		return nil, errors.New("authz: db is required")
	}
	e := &Engine{db: db, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// HasPermission reports whether the user currently holds the named
// permission through any active role. Unknown users, inactive users and
// unknown permission names all evaluate to false.
func (e *Engine) HasPermission(ctx context.Context, userID, permissionName string) (bool, error) {
	permissionName = strings.TrimSpace(permissionName)
	if permissionName == "" {
		return false, nil
	}

	roles, ok, err := e.activeRolesFor(ctx, userID)
	if err != nil || !ok {
		return false, err
	}

	for _, role := range roles {
		for _, perm := range role.Permissions {
			if perm.Name == permissionName {
				return true, nil
			}
		}
	}
	return false, nil
}

// HasRole reports whether the user currently holds an active assignment of
// the named role.
func (e *Engine) HasRole(ctx context.Context, userID, roleName string) (bool, error) {
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return false, nil
	}

	roles, ok, err := e.activeRolesFor(ctx, userID)
	if err != nil || !ok {
		return false, err
	}

	for _, role := range roles {
		if role.Name == roleName {
			return true, nil
		}
	}
	return false, nil
}

// HasAnyRole reports whether the user holds at least one of the named
// roles. An empty role list evaluates to false.
func (e *Engine) HasAnyRole(ctx context.Context, userID string, roleNames ...string) (bool, error) {
	if len(roleNames) == 0 {
		return false, nil
	}

	roles, ok, err := e.activeRolesFor(ctx, userID)
	if err != nil || !ok {
		return false, err
	}

	held := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		held[role.Name] = struct{}{}
	}
	for _, name := range roleNames {
		if _, found := held[strings.TrimSpace(name)]; found {
			return true, nil
		}
	}
	return false, nil
}

// ActiveRoles returns the roles the user holds through unexpired
// assignments, with their permission sets loaded.
func (e *Engine) ActiveRoles(ctx context.Context, userID string) ([]models.Role, error) {
	roles, _, err := e.activeRolesFor(ctx, userID)
	return roles, err
}

// PermissionNames returns the sorted union of permission names granted to
// the user across all active roles.
func (e *Engine) PermissionNames(ctx context.Context, userID string) ([]string, error) {
	roles, ok, err := e.activeRolesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, role := range roles {
		for _, perm := range role.Permissions {
			if _, dup := seen[perm.Name]; dup {
				continue
			}
			seen[perm.Name] = struct{}{}
			names = append(names, perm.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// activeRolesFor loads the user's unexpired role assignments. The second
// return value is false when the user is unknown or inactive, which every
// decision primitive treats as deny.
func (e *Engine) activeRolesFor(ctx context.Context, userID string) ([]models.Role, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, nil
	}

	var user models.User
	err := e.db.WithContext(ctx).
		Select("id", "is_active").
		First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.ErrUnavailable.WithInternal(err)
	}
	if !user.IsActive {
		return nil, false, nil
	}

	now := e.now().UTC()

	var roles []models.Role
	err = e.db.WithContext(ctx).
		Joins("JOIN role_assignments ON role_assignments.role_id = roles.id").
		Where("role_assignments.user_id = ?", userID).
		Where("role_assignments.expires_at IS NULL OR role_assignments.expires_at > ?", now).
		Preload("Permissions").
		Find(&roles).Error
	if err != nil {
		return nil, false, apperrors.ErrUnavailable.WithInternal(err)
	}

	return roles, true, nil
}
