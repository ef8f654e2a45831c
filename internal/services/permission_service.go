package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/models"
	apperrors "github.com/eduleads/authcore/pkg/errors"
)

var (
	// ErrPermissionNotFound indicates the requested permission does not exist.
	ErrPermissionNotFound = apperrors.NewNotFound("Permission not found")
	// ErrPermissionNameTaken indicates a create collided with an existing name.
	ErrPermissionNameTaken = apperrors.NewConflict("Permission name already exists")
	// ErrPermissionInUse prevents deleting a permission still referenced by a role.
	ErrPermissionInUse = apperrors.NewConflict("Permission is still assigned to one or more roles")
)

// PermissionService manages the registry of named capabilities.
type PermissionService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewPermissionService constructs a PermissionService using the provided database handle.
func NewPermissionService(db *gorm.DB, audit *AuditService) (*PermissionService, error) {
	if db == nil {
		return nil, errors.New("permission service: db is required")
	}
	return &PermissionService{db: db, auditService: audit}, nil
}

// CreatePermissionInput describes the payload accepted by Create.
type CreatePermissionInput struct {
	Name        string
	Description string
}

// Create registers a new permission. The name is the stable key and must
// be unique.
func (s *PermissionService) Create(ctx context.Context, input CreatePermissionInput) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewBadRequest("permission name is required")
	}

	perm := &models.Permission{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
	}

	if err := s.db.WithContext(ctx).Create(perm).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrPermissionNameTaken
		}
		return nil, fmt.Errorf("permission service: create permission: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "permission.create",
		Resource: perm.ID,
		Result:   "success",
		Metadata: map[string]any{"name": perm.Name},
	})

	return perm, nil
}

// GetByID loads a single permission.
func (s *PermissionService) GetByID(ctx context.Context, id string) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	var perm models.Permission
	if err := s.db.WithContext(ctx).First(&perm, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("permission service: load permission: %w", err)
	}
	return &perm, nil
}

// List returns all permissions ordered by name.
func (s *PermissionService) List(ctx context.Context) ([]models.Permission, error) {
	ctx = ensureContext(ctx)

	var perms []models.Permission
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("permission service: list permissions: %w", err)
	}
	return perms, nil
}

// UpdateDescription changes the human-readable description. The name is
// immutable: roles bind to permissions by id and guards refer to them by
// name, so renaming is a delete followed by a create.
func (s *PermissionService) UpdateDescription(ctx context.Context, id, description string) (*models.Permission, error) {
	ctx = ensureContext(ctx)

	var perm models.Permission
	if err := s.db.WithContext(ctx).First(&perm, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("permission service: load permission: %w", err)
	}

	description = strings.TrimSpace(description)
	if description == perm.Description {
		return &perm, nil
	}

	if err := s.db.WithContext(ctx).Model(&perm).Update("description", description).Error; err != nil {
		return nil, fmt.Errorf("permission service: update permission: %w", err)
	}
	perm.Description = description

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "permission.update",
		Resource: perm.ID,
		Result:   "success",
		Metadata: map[string]any{"name": perm.Name},
	})

	return &perm, nil
}

// Delete removes a permission that no role references. Deleting a
// permission still bound to a role is rejected rather than cascaded, so a
// role's capability set never shrinks as a side effect.
func (s *PermissionService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var name string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var perm models.Permission
		if err := tx.First(&perm, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPermissionNotFound
			}
			return fmt.Errorf("permission service: load permission: %w", err)
		}

		refs := tx.Model(&perm).Association("Roles").Count()
		if refs > 0 {
			return ErrPermissionInUse
		}

		if err := tx.Delete(&perm).Error; err != nil {
			return fmt.Errorf("permission service: delete permission: %w", err)
		}

		name = perm.Name
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "permission.delete",
		Resource: id,
		Result:   "success",
		Metadata: map[string]any{"name": name},
	})

	return nil
}
