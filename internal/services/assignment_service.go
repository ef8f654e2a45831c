package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eduleads/authcore/internal/models"
	apperrors "github.com/eduleads/authcore/pkg/errors"
)

// ErrAssignmentExpiryInPast rejects grants that would be born expired.
var ErrAssignmentExpiryInPast = apperrors.NewBadRequest("expires_at must be in the future")

// AssignmentService manages user-role bindings and their expiry.
type AssignmentService struct {
	db           *gorm.DB
	auditService *AuditService
	now          func() time.Time
}

// AssignmentOption customises service construction.
type AssignmentOption func(*AssignmentService)

// WithAssignmentClock overrides the time source used for grant timestamps
// and expiry validation.
func WithAssignmentClock(now func() time.Time) AssignmentOption {
	return func(s *AssignmentService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewAssignmentService constructs an AssignmentService using the provided database handle.
func NewAssignmentService(db *gorm.DB, audit *AuditService, opts ...AssignmentOption) (*AssignmentService, error) {
	if db == nil {
		return nil, errors.New("assignment service: db is required")
	}
	s := &AssignmentService{db: db, auditService: audit, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GrantInput describes the payload accepted by Grant.
type GrantInput struct {
	UserID    string
	RoleID    string
	GrantedBy string
	ExpiresAt *time.Time
}

// Grant binds a role to a user. Regranting an existing binding refreshes
// its provenance and expiry rather than inserting a duplicate row, so at
// most one assignment exists per (user, role) pair.
func (s *AssignmentService) Grant(ctx context.Context, input GrantInput) (*models.RoleAssignment, error) {
	ctx = ensureContext(ctx)

	userID := strings.TrimSpace(input.UserID)
	roleID := strings.TrimSpace(input.RoleID)
	if userID == "" || roleID == "" {
		return nil, apperrors.NewBadRequest("user_id and role_id are required")
	}

	now := s.now().UTC()
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, ErrAssignmentExpiryInPast
	}

	var assignment models.RoleAssignment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return fmt.Errorf("assignment service: check user: %w", err)
		}
		if count == 0 {
			return ErrUserNotFound
		}

		if err := tx.Model(&models.Role{}).Where("id = ?", roleID).Count(&count).Error; err != nil {
			return fmt.Errorf("assignment service: check role: %w", err)
		}
		if count == 0 {
			return ErrRoleNotFound
		}

		assignment = models.RoleAssignment{
			UserID:    userID,
			RoleID:    roleID,
			GrantedBy: strings.TrimSpace(input.GrantedBy),
			GrantedAt: now,
			ExpiresAt: input.ExpiresAt,
		}

		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "role_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"granted_by": assignment.GrantedBy,
				"granted_at": assignment.GrantedAt,
				"expires_at": assignment.ExpiresAt,
				"updated_at": now,
			}),
		}).Create(&assignment).Error; err != nil {
			return fmt.Errorf("assignment service: grant role: %w", err)
		}

		return tx.Where("user_id = ? AND role_id = ?", userID, roleID).First(&assignment).Error
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Action:   "assignment.grant",
		Resource: assignment.ID,
		Result:   "success",
		Metadata: map[string]any{
			"user_id":    userID,
			"role_id":    roleID,
			"granted_by": assignment.GrantedBy,
			"expires_at": assignment.ExpiresAt,
		},
	})

	return &assignment, nil
}

// Revoke removes the binding between a user and a role. Revoking a binding
// that does not exist is not an error.
func (s *AssignmentService) Revoke(ctx context.Context, userID, roleID string) error {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	roleID = strings.TrimSpace(roleID)
	if userID == "" || roleID == "" {
		return apperrors.NewBadRequest("user_id and role_id are required")
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&models.RoleAssignment{})
	if result.Error != nil {
		return fmt.Errorf("assignment service: revoke role: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		recordAudit(s.auditService, ctx, AuditEntry{
			Action:   "assignment.revoke",
			Resource: roleID,
			Result:   "success",
			Metadata: map[string]any{
				"user_id": userID,
				"role_id": roleID,
			},
		})
	}

	return nil
}

// ListActive returns the user's unexpired assignments evaluated against
// the supplied instant, with their roles and permission sets loaded.
func (s *AssignmentService) ListActive(ctx context.Context, userID string, now time.Time) ([]models.RoleAssignment, error) {
	ctx = ensureContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.NewBadRequest("user_id is required")
	}

	var assignments []models.RoleAssignment
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("expires_at IS NULL OR expires_at > ?", now.UTC()).
		Preload("Role.Permissions").
		Order("granted_at ASC").
		Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("assignment service: list active assignments: %w", err)
	}

	return assignments, nil
}

// PruneExpired deletes assignments whose expiry passed more than the
// supplied grace window ago. Recently expired rows are kept for operator
// inspection.
func (s *AssignmentService) PruneExpired(ctx context.Context, grace time.Duration) (int64, error) {
	ctx = ensureContext(ctx)

	if grace < 0 {
		grace = 0
	}
	cutoff := s.now().UTC().Add(-grace)

	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at < ?", cutoff).
		Delete(&models.RoleAssignment{})
	if result.Error != nil {
		return 0, fmt.Errorf("assignment service: prune expired assignments: %w", result.Error)
	}
	return result.RowsAffected, nil
}
