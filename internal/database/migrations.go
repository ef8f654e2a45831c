package database

import (
	"gorm.io/gorm"

	"github.com/eduleads/authcore/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
// Default permissions, roles, and the admin principal are seeded
// separately by the bootstrap package.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RoleAssignment{},
		&models.AuditLog{},
	)
}
