package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/models"
	apperrors "github.com/eduleads/authcore/pkg/errors"
)

var (
	// ErrRoleNotFound indicates the requested role does not exist.
	ErrRoleNotFound = apperrors.NewNotFound("Role not found")
	// ErrRoleNameTaken indicates a create or rename collided with an existing name.
	ErrRoleNameTaken = apperrors.NewConflict("Role name already exists")
	// ErrSystemRoleImmutable prevents destructive operations on seeded roles.
	ErrSystemRoleImmutable = apperrors.New("ROLE_IMMUTABLE", "System roles cannot be deleted or renamed", http.StatusForbidden)
)

// RoleService manages roles and their permission sets.
type RoleService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewRoleService constructs a RoleService using the provided database handle.
func NewRoleService(db *gorm.DB, audit *AuditService) (*RoleService, error) {
	if db == nil {
		return nil, errors.New("role service: db is required")
	}
	return &RoleService{db: db, auditService: audit}, nil
}

// CreateRoleInput describes the payload accepted by Create.
type CreateRoleInput struct {
	Name          string
	Description   string
	PermissionIDs []string
	IsSystem      bool
}

// UpdateRoleInput describes mutable fields on a role.
type UpdateRoleInput struct {
	Name        string
	Description string
}

// Create registers a new role. Every referenced permission id must exist.
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("role name is required")
	}

	role := &models.Role{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		IsSystem:    input.IsSystem,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms, err := loadPermissions(tx, normaliseIDs(input.PermissionIDs))
		if err != nil {
			return err
		}
		role.Permissions = perms

		if err := tx.Create(role).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrRoleNameTaken
			}
			return fmt.Errorf("role service: create role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.create",
		Resource: role.ID,
		Result:   "success",
		Metadata: map[string]any{
			"name":           role.Name,
			"is_system":      role.IsSystem,
			"permission_ids": role.PermissionIDs(),
		},
	})

	return role, nil
}

// GetByID loads a role with its permission set.
func (s *RoleService) GetByID(ctx context.Context, id string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}
	return &role, nil
}

// List returns all roles with their permission sets, ordered by creation date.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	ctx = ensureContext(ctx)

	var roles []models.Role
	if err := s.db.WithContext(ctx).Preload("Permissions").Order("created_at ASC").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("role service: list roles: %w", err)
	}
	return roles, nil
}

// Update modifies role metadata. System roles cannot be renamed.
func (s *RoleService) Update(ctx context.Context, roleID string, input UpdateRoleInput) (*models.Role, error) {
	ctx = ensureContext(ctx)

	var role models.Role
	if err := s.db.WithContext(ctx).First(&role, "id = ?", roleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("role service: load role: %w", err)
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(input.Name); name != "" && name != role.Name {
		if role.IsSystem {
			return nil, ErrSystemRoleImmutable
		}
		updates["name"] = name
	}
	if desc := strings.TrimSpace(input.Description); desc != role.Description {
		updates["description"] = desc
	}

	if len(updates) == 0 {
		return &role, nil
	}

	if err := s.db.WithContext(ctx).Model(&role).Updates(updates).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrRoleNameTaken
		}
		return nil, fmt.Errorf("role service: update role: %w", err)
	}

	if err := s.db.WithContext(ctx).Preload("Permissions").First(&role, "id = ?", roleID).Error; err != nil {
		return nil, fmt.Errorf("role service: reload role: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.update",
		Resource: role.ID,
		Result:   "success",
		Metadata: updates,
	})

	return &role, nil
}

// AssignPermissions adds the given permissions to the role's set. The
// operation is a set union: permissions already present are left alone.
func (s *RoleService) AssignPermissions(ctx context.Context, roleID string, permissionIDs []string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	ids := normaliseIDs(permissionIDs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("role service: load role: %w", err)
		}

		perms, err := loadPermissions(tx, ids)
		if err != nil {
			return err
		}
		if len(perms) == 0 {
			return nil
		}

		pointers := make([]*models.Permission, len(perms))
		for i := range perms {
			pointers[i] = &perms[i]
		}
		if err := tx.Model(&role).Association("Permissions").Append(pointers); err != nil {
			return fmt.Errorf("role service: assign permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.assign_permissions",
		Resource: roleID,
		Result:   "success",
		Metadata: map[string]any{"permission_ids": ids},
	})

	return s.GetByID(ctx, roleID)
}

// RemovePermissions drops the given permissions from the role's set. The
// operation is a set difference: ids not present are ignored.
func (s *RoleService) RemovePermissions(ctx context.Context, roleID string, permissionIDs []string) (*models.Role, error) {
	ctx = ensureContext(ctx)

	ids := normaliseIDs(permissionIDs)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("role service: load role: %w", err)
		}

		if len(ids) == 0 {
			return nil
		}

		var perms []models.Permission
		if err := tx.Where("id IN ?", ids).Find(&perms).Error; err != nil {
			return fmt.Errorf("role service: load permissions: %w", err)
		}
		if len(perms) == 0 {
			return nil
		}

		pointers := make([]*models.Permission, len(perms))
		for i := range perms {
			pointers[i] = &perms[i]
		}
		if err := tx.Model(&role).Association("Permissions").Delete(pointers); err != nil {
			return fmt.Errorf("role service: remove permissions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.remove_permissions",
		Resource: roleID,
		Result:   "success",
		Metadata: map[string]any{"permission_ids": ids},
	})

	return s.GetByID(ctx, roleID)
}

// Delete removes a non-system role along with its permission bindings and
// any assignments that reference it.
func (s *RoleService) Delete(ctx context.Context, roleID string) error {
	ctx = ensureContext(ctx)

	var name string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role models.Role
		if err := tx.First(&role, "id = ?", roleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoleNotFound
			}
			return fmt.Errorf("role service: load role: %w", err)
		}

		if role.IsSystem {
			return ErrSystemRoleImmutable
		}

		if err := tx.Model(&role).Association("Permissions").Clear(); err != nil {
			return fmt.Errorf("role service: clear role permissions: %w", err)
		}
		if err := tx.Where("role_id = ?", role.ID).Delete(&models.RoleAssignment{}).Error; err != nil {
			return fmt.Errorf("role service: clear role assignments: %w", err)
		}
		if err := tx.Delete(&role).Error; err != nil {
			return fmt.Errorf("role service: delete role: %w", err)
		}

		name = role.Name
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "role.delete",
		Resource: roleID,
		Result:   "success",
		Metadata: map[string]any{"name": name},
	})

	return nil
}

// loadPermissions fetches the permissions for the supplied ids and fails
// with ErrPermissionNotFound when any id is unknown.
func loadPermissions(tx *gorm.DB, ids []string) ([]models.Permission, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var perms []models.Permission
	if err := tx.Where("id IN ?", ids).Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("role service: load permissions: %w", err)
	}
	if len(perms) != len(ids) {
		return nil, ErrPermissionNotFound
	}
	return perms, nil
}
