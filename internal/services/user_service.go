package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/models"
	"github.com/eduleads/authcore/pkg/crypto"
	apperrors "github.com/eduleads/authcore/pkg/errors"
)

var (
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.NewNotFound("User not found")
	// ErrUserNameTaken indicates a create collided with an existing username or email.
	ErrUserNameTaken = apperrors.NewConflict("Username or email already exists")
	// ErrRootUserProtected prevents deleting or deactivating the bootstrap administrator.
	ErrRootUserProtected = apperrors.New("ROOT_USER_PROTECTED", "The bootstrap administrator cannot be deleted or deactivated", http.StatusForbidden)
)

// UserService manages principals.
type UserService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewUserService constructs a UserService using the provided database handle.
func NewUserService(db *gorm.DB, audit *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, auditService: audit}, nil
}

// CreateUserInput describes the payload accepted by Create.
type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

// UpdateUserInput describes mutable fields on a user.
type UpdateUserInput struct {
	Email string
}

// ListUsersOptions controls pagination and filtering for user queries.
type ListUsersOptions struct {
	Page     int
	PageSize int
	Search   string
	Active   *bool
}

// Create registers a new principal with a hashed credential.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if username == "" || email == "" {
		return nil, apperrors.NewBadRequest("username and email are required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.NewBadRequest("password must be at least 8 characters")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hashed,
		IsActive: true,
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUserNameTaken
		}
		return nil, fmt.Errorf("user service: create user: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Username: user.Username,
		Action:   "user.create",
		Resource: user.ID,
		Result:   "success",
	})

	return user, nil
}

// GetByID loads a single user.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// GetByUsername loads a single user by their unique username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}

// List returns paginated users ordered by creation time.
func (s *UserService) List(ctx context.Context, opts ListUsersOptions) ([]models.User, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.User{})
	if search := strings.TrimSpace(opts.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", like, like)
	}
	if opts.Active != nil {
		query = query.Where("is_active = ?", *opts.Active)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: count users: %w", err)
	}

	var users []models.User
	if err := query.
		Order("created_at ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("user service: list users: %w", err)
	}

	return users, total, nil
}

// Update modifies user metadata.
func (s *UserService) Update(ctx context.Context, id string, input UpdateUserInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" || email == user.Email {
		return user, nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("email", email).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrUserNameTaken
		}
		return nil, fmt.Errorf("user service: update user: %w", err)
	}
	user.Email = email

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Username: user.Username,
		Action:   "user.update",
		Resource: user.ID,
		Result:   "success",
	})

	return user, nil
}

// SetActive toggles the user's active flag. Inactive users keep their
// assignments but fail every authorization check.
func (s *UserService) SetActive(ctx context.Context, id string, active bool) error {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if user.IsRoot && !active {
		return ErrRootUserProtected
	}
	if user.IsActive == active {
		return nil
	}

	if err := s.db.WithContext(ctx).Model(user).Update("is_active", active).Error; err != nil {
		return fmt.Errorf("user service: set active: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Username: user.Username,
		Action:   "user.set_active",
		Resource: user.ID,
		Result:   "success",
		Metadata: map[string]any{"active": active},
	})

	return nil
}

// ChangePassword replaces the user's credential.
func (s *UserService) ChangePassword(ctx context.Context, id, newPassword string) error {
	ctx = ensureContext(ctx)

	if len(newPassword) < 8 {
		return apperrors.NewBadRequest("password must be at least 8 characters")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("user service: hash password: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("user service: change password: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Username: user.Username,
		Action:   "user.change_password",
		Resource: user.ID,
		Result:   "success",
	})

	return nil
}

// Delete removes a user along with their assignments.
func (s *UserService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	var username string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("user service: load user: %w", err)
		}

		if user.IsRoot {
			return ErrRootUserProtected
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RoleAssignment{}).Error; err != nil {
			return fmt.Errorf("user service: clear assignments: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("user service: delete user: %w", err)
		}

		username = user.Username
		return nil
	})
	if err != nil {
		return err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		Username: username,
		Action:   "user.delete",
		Resource: id,
		Result:   "success",
	})

	return nil
}

// Authenticate verifies a username/password pair and records the login
// time. Invalid credentials and inactive accounts produce the same error
// so callers cannot probe which usernames exist.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "username = ?", strings.TrimSpace(username)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !user.IsActive {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !crypto.VerifyPassword(user.Password, password) {
		recordAudit(s.auditService, ctx, AuditEntry{
			UserID:   &user.ID,
			Username: user.Username,
			Action:   "auth.login",
			Resource: user.ID,
			Result:   "failure",
		})
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}
	user.LastLoginAt = &now

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &user.ID,
		Username: user.Username,
		Action:   "auth.login",
		Resource: user.ID,
		Result:   "success",
	})

	return &user, nil
}
