package database

import (
	"gorm.io/gorm"

	"github.com/noah-isme/preparai-api/internal/models"
)

// Migrate creates or updates the essay assessment tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Theme{},
		&models.Essay{},
		&models.EssayCompetency{},
		&models.EssayAssessment{},
	)
}
