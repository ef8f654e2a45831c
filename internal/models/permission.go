package models

// Permission is an atomic named capability. The name is the stable key
// route guards refer to; renaming is delete+create because roles bind to
// permissions by id.
type Permission struct {
	BaseModel

	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description"`

	Roles []Role `gorm:"many2many:role_permissions;" json:"roles,omitempty"`
}
