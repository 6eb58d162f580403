package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/preparai-api/internal/models"
)

func TestThemeRepositoryEnsurePlaceholderIsIdempotent(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewThemeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsurePlaceholder(ctx, 1, "Tema Livre / Não informado"))
	require.NoError(t, repo.EnsurePlaceholder(ctx, 1, "Tema Livre / Não informado"))

	var count int64
	require.NoError(t, db.Model(&models.Theme{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	theme, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Tema Livre / Não informado", theme.Title)
	require.False(t, theme.GeneratedByAI)
}

func TestThemeRepositoryCreateAndLookup(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewThemeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.EnsurePlaceholder(ctx, 1, "Tema Livre / Não informado"))

	theme := &models.Theme{Title: "Desafios da mobilidade urbana", SupportText: "Texto I", GeneratedByAI: true}
	require.NoError(t, repo.Create(ctx, theme))
	require.Greater(t, theme.ID, uint(1))

	stored, err := repo.GetByID(ctx, theme.ID)
	require.NoError(t, err)
	require.Equal(t, "Desafios da mobilidade urbana", stored.Title)
	require.True(t, stored.GeneratedByAI)

	_, err = repo.GetByID(ctx, 9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
