package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/preparai-api/internal/models"
)

// ThemeRepository exposes persistence helpers for essay themes.
type ThemeRepository interface {
	Create(ctx context.Context, theme *models.Theme) error
	GetByID(ctx context.Context, id uint) (models.Theme, error)
	EnsurePlaceholder(ctx context.Context, id uint, title string) error
}

// NewThemeRepository constructs a theme repository.
func NewThemeRepository(db *gorm.DB) ThemeRepository {
	return &themeRepository{db: db}
}

type themeRepository struct {
	db *gorm.DB
}

func (r *themeRepository) Create(ctx context.Context, theme *models.Theme) error {
	return r.db.WithContext(ctx).Create(theme).Error
}

func (r *themeRepository) GetByID(ctx context.Context, id uint) (models.Theme, error) {
	var theme models.Theme
	if err := r.db.WithContext(ctx).First(&theme, id).Error; err != nil {
		return models.Theme{}, err
	}
	return theme, nil
}

// EnsurePlaceholder seeds the placeholder theme referenced by essays without a theme.
func (r *themeRepository) EnsurePlaceholder(ctx context.Context, id uint, title string) error {
	db := r.db.WithContext(ctx)
	placeholder := models.Theme{ID: id, Title: title}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&placeholder).Error; err != nil {
		return err
	}

	// An explicit id does not advance the postgres sequence; realign it so generated themes
	// never collide with the placeholder.
	if db.Dialector.Name() == "postgres" {
		return db.Exec("SELECT setval(pg_get_serial_sequence('themes', 'id'), GREATEST((SELECT MAX(id) FROM themes), 1))").Error
	}
	return nil
}
