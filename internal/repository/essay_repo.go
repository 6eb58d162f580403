package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/preparai-api/internal/models"
)

// EssayHistoryRow is a graded essay summary used by the history listing.
type EssayHistoryRow struct {
	EssayID     uint
	TotalScore  int
	SubmittedAt time.Time
	ThemeTitle  *string
}

// EssayRepository defines data operations for essays and their grades.
type EssayRepository interface {
	SaveGrading(ctx context.Context, essay *models.Essay, competencies []models.EssayCompetency, assessment *models.EssayAssessment) error
	GetByID(ctx context.Context, id uint) (models.Essay, error)
	ListGradedByStudent(ctx context.Context, studentID uint) ([]EssayHistoryRow, error)
}

type essayRepository struct {
	db *gorm.DB
}

// NewEssayRepository instantiates the repository.
func NewEssayRepository(db *gorm.DB) EssayRepository {
	return &essayRepository{db: db}
}

// SaveGrading writes the essay, its competency rows and its final assessment in one
// transaction. The essay is created when it has no id yet; competency rows and the assessment
// are upserted so grading the same essay again updates the existing rows.
func (r *essayRepository) SaveGrading(ctx context.Context, essay *models.Essay, competencies []models.EssayCompetency, assessment *models.EssayAssessment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if essay.ID == 0 {
			if err := tx.Omit(clause.Associations).Create(essay).Error; err != nil {
				return fmt.Errorf("create essay: %w", err)
			}
		} else {
			result := tx.Model(&models.Essay{ID: essay.ID}).Updates(map[string]interface{}{
				"transcribed_text": essay.TranscribedText,
			})
			if result.Error != nil {
				return fmt.Errorf("update essay: %w", result.Error)
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		rows := make([]models.EssayCompetency, len(competencies))
		for i, competency := range competencies {
			competency.ID = 0
			competency.EssayID = essay.ID
			rows[i] = competency
		}
		if len(rows) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "essay_id"}, {Name: "competency"}},
				DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
			}).Create(&rows).Error
			if err != nil {
				return fmt.Errorf("upsert competencies: %w", err)
			}
		}

		assessment.EssayID = essay.ID
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "essay_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_score", "classification", "observations", "detail", "updated_at"}),
		}).Create(assessment).Error
		if err != nil {
			return fmt.Errorf("upsert assessment: %w", err)
		}

		return nil
	})
}

func (r *essayRepository) GetByID(ctx context.Context, id uint) (models.Essay, error) {
	var essay models.Essay
	err := r.db.WithContext(ctx).
		Preload("Competencies", func(db *gorm.DB) *gorm.DB {
			return db.Order("competency ASC")
		}).
		Preload("Assessment").
		First(&essay, id).Error
	if err != nil {
		return models.Essay{}, err
	}
	return essay, nil
}

func (r *essayRepository) ListGradedByStudent(ctx context.Context, studentID uint) ([]EssayHistoryRow, error) {
	var rows []EssayHistoryRow
	err := r.db.WithContext(ctx).
		Table("essays AS e").
		Select("e.id AS essay_id, a.total_score AS total_score, e.submitted_at AS submitted_at, t.title AS theme_title").
		Joins("JOIN essay_assessments a ON a.essay_id = e.id").
		Joins("LEFT JOIN themes t ON t.id = e.theme_id").
		Where("e.student_id = ?", studentID).
		Order("e.submitted_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
