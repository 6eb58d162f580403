package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/preparai-api/internal/database"
	"github.com/noah-isme/preparai-api/internal/models"
)

func setupEssayTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func competencyRows(scores ...int) []models.EssayCompetency {
	rows := make([]models.EssayCompetency, len(scores))
	for i, score := range scores {
		rows[i] = models.EssayCompetency{Competency: i + 1, Score: score}
	}
	return rows
}

func TestEssayRepositorySaveGradingCreatesAllRows(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)

	essay := &models.Essay{StudentID: 7, ThemeID: 1, Modality: models.EssayModalityText, RawContent: "texto", TranscribedText: "texto", SubmittedAt: time.Now()}
	assessment := &models.EssayAssessment{TotalScore: 450, Classification: "TANGENTE", Observations: "NOTA REBAIXADA.", Detail: datatypes.JSON(`{"notas":{}}`)}

	err := repo.SaveGrading(context.Background(), essay, competencyRows(150, 40, 40, 180, 40), assessment)
	require.NoError(t, err)
	require.NotZero(t, essay.ID)
	require.Equal(t, essay.ID, assessment.EssayID)

	stored, err := repo.GetByID(context.Background(), essay.ID)
	require.NoError(t, err)
	require.True(t, stored.IsGraded())
	require.Len(t, stored.Competencies, 5)
	for i, competency := range stored.Competencies {
		require.Equal(t, i+1, competency.Competency)
	}
	require.Equal(t, 150, stored.Competencies[0].Score)
	require.Equal(t, 40, stored.Competencies[4].Score)
	require.Equal(t, 450, stored.Assessment.TotalScore)
}

func TestEssayRepositorySaveGradingUpsertsOnRegrade(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	essay := &models.Essay{StudentID: 7, ThemeID: 1, Modality: models.EssayModalityText, RawContent: "texto", SubmittedAt: time.Now()}
	require.NoError(t, repo.SaveGrading(ctx, essay, competencyRows(100, 100, 100, 100, 100), &models.EssayAssessment{TotalScore: 500, Classification: "OK"}))

	regraded := &models.Essay{ID: essay.ID, TranscribedText: "texto revisto"}
	require.NoError(t, repo.SaveGrading(ctx, regraded, competencyRows(0, 0, 0, 0, 0), &models.EssayAssessment{TotalScore: 0, Classification: "FUGA", Observations: "REDAÇÃO ZERADA."}))

	var assessments int64
	require.NoError(t, db.Model(&models.EssayAssessment{}).Where("essay_id = ?", essay.ID).Count(&assessments).Error)
	require.Equal(t, int64(1), assessments)

	var competencies int64
	require.NoError(t, db.Model(&models.EssayCompetency{}).Where("essay_id = ?", essay.ID).Count(&competencies).Error)
	require.Equal(t, int64(5), competencies)

	stored, err := repo.GetByID(ctx, essay.ID)
	require.NoError(t, err)
	require.Equal(t, 0, stored.Assessment.TotalScore)
	require.Equal(t, "FUGA", stored.Assessment.Classification)
	require.Equal(t, "texto revisto", stored.TranscribedText)
	for _, competency := range stored.Competencies {
		require.Zero(t, competency.Score)
	}
}

func TestEssayRepositorySaveGradingRollsBackOnFailure(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)

	failure := errors.New("assessment write failed")
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_assessment", func(tx *gorm.DB) {
		if tx.Statement.Table == "essay_assessments" {
			_ = tx.AddError(failure)
		}
	}))

	essay := &models.Essay{StudentID: 9, ThemeID: 1, Modality: models.EssayModalityText, RawContent: "texto", SubmittedAt: time.Now()}
	err := repo.SaveGrading(context.Background(), essay, competencyRows(120, 120, 120, 120, 120), &models.EssayAssessment{TotalScore: 600})
	require.ErrorIs(t, err, failure)

	var essays, competencies, assessments int64
	require.NoError(t, db.Model(&models.Essay{}).Count(&essays).Error)
	require.NoError(t, db.Model(&models.EssayCompetency{}).Count(&competencies).Error)
	require.NoError(t, db.Model(&models.EssayAssessment{}).Count(&assessments).Error)
	require.Zero(t, essays)
	require.Zero(t, competencies)
	require.Zero(t, assessments)
}

func TestEssayRepositorySaveGradingMissingEssay(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)

	err := repo.SaveGrading(context.Background(), &models.Essay{ID: 404}, competencyRows(1, 1, 1, 1, 1), &models.EssayAssessment{TotalScore: 5})
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestEssayRepositoryListGradedByStudent(t *testing.T) {
	db := setupEssayTestDB(t)
	repo := NewEssayRepository(db)
	ctx := context.Background()

	theme := models.Theme{Title: "A importância da preservação da Amazônia"}
	require.NoError(t, db.Create(&theme).Error)

	older := &models.Essay{StudentID: 3, ThemeID: theme.ID, Modality: models.EssayModalityText, RawContent: "a", SubmittedAt: time.Now().Add(-2 * time.Hour)}
	newer := &models.Essay{StudentID: 3, ThemeID: 999, Modality: models.EssayModalityText, RawContent: "b", SubmittedAt: time.Now().Add(-1 * time.Hour)}
	other := &models.Essay{StudentID: 4, ThemeID: theme.ID, Modality: models.EssayModalityText, RawContent: "c", SubmittedAt: time.Now()}
	require.NoError(t, repo.SaveGrading(ctx, older, competencyRows(100, 100, 100, 100, 100), &models.EssayAssessment{TotalScore: 500}))
	require.NoError(t, repo.SaveGrading(ctx, newer, competencyRows(200, 200, 200, 200, 200), &models.EssayAssessment{TotalScore: 1000}))
	require.NoError(t, repo.SaveGrading(ctx, other, competencyRows(0, 0, 0, 0, 0), &models.EssayAssessment{TotalScore: 0}))

	ungraded := models.Essay{StudentID: 3, ThemeID: theme.ID, Modality: models.EssayModalityText, RawContent: "d", SubmittedAt: time.Now()}
	require.NoError(t, db.Create(&ungraded).Error)

	rows, err := repo.ListGradedByStudent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, newer.ID, rows[0].EssayID, "expected newest essay first")
	require.Equal(t, 1000, rows[0].TotalScore)
	require.Nil(t, rows[0].ThemeTitle)
	require.NotNil(t, rows[1].ThemeTitle)
	require.Equal(t, theme.Title, *rows[1].ThemeTitle)
}
