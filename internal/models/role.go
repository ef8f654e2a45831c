package models

// Role bundles permissions under a name. System roles are seeded at
// bootstrap and protected from deletion and renaming.
type Role struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `gorm:"default:false" json:"is_system"`

	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions,omitempty"`
}

// PermissionIDs returns the ids of the loaded permission set.
func (r *Role) PermissionIDs() []string {
	ids := make([]string, 0, len(r.Permissions))
	for _, perm := range r.Permissions {
		ids = append(ids, perm.ID)
	}
	return ids
}

// PermissionNames returns the names of the loaded permission set.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, perm := range r.Permissions {
		names = append(names, perm.Name)
	}
	return names
}
