package handlers

import (
	"time"

	"github.com/eduleads/authcore/internal/models"
)

type permissionView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type roleView struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	IsSystem      bool     `json:"is_system"`
	PermissionIDs []string `json:"permission_ids"`
}

type assignmentView struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	RoleID    string     `json:"role_id"`
	RoleName  string     `json:"role_name,omitempty"`
	GrantedBy string     `json:"granted_by"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type userView struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	IsRoot      bool       `json:"is_root"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toPermissionView(p *models.Permission) permissionView {
	return permissionView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func toRoleView(r *models.Role) roleView {
	view := roleView{
		ID:            r.ID,
		Name:          r.Name,
		Description:   r.Description,
		IsSystem:      r.IsSystem,
		PermissionIDs: r.PermissionIDs(),
	}
	if view.PermissionIDs == nil {
		view.PermissionIDs = []string{}
	}
	return view
}

func toAssignmentView(a *models.RoleAssignment) assignmentView {
	view := assignmentView{
		ID:        a.ID,
		UserID:    a.UserID,
		RoleID:    a.RoleID,
		GrantedBy: a.GrantedBy,
		GrantedAt: a.GrantedAt,
		ExpiresAt: a.ExpiresAt,
	}
	if a.Role != nil {
		view.RoleName = a.Role.Name
	}
	return view
}

func toUserView(u *models.User) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsRoot:      u.IsRoot,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
