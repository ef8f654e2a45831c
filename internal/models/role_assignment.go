package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoleAssignment binds a role to a user, optionally until expires_at.
// The (user_id, role_id) pair is unique: regranting refreshes the
// existing row rather than adding a duplicate. Expired rows are never
// removed by the grant/revoke paths; every read filters them out.
type RoleAssignment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_user_role;index" json:"user_id"`
	RoleID string `gorm:"type:uuid;not null;uniqueIndex:idx_assignments_user_role;index" json:"role_id"`

	GrantedBy string     `gorm:"type:uuid" json:"granted_by"`
	GrantedAt time.Time  `gorm:"not null" json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures a UUID is present before persisting.
func (a *RoleAssignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// ActiveAt reports whether the assignment is in force at the supplied
// instant. A nil expiry means the grant is permanent.
func (a *RoleAssignment) ActiveAt(now time.Time) bool {
	return a.ExpiresAt == nil || a.ExpiresAt.After(now)
}
