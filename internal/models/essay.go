package models

import (
	"time"

	"gorm.io/datatypes"
)

// Essay modalities.
const (
	EssayModalityText  = "text"
	EssayModalityImage = "image"
)

// Essay is a single graded submission. ThemeID intentionally carries no foreign key so a
// caller-supplied id is kept even when the theme does not exist.
type Essay struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	StudentID       uint              `gorm:"not null;index" json:"student_id"`
	ThemeID         uint              `gorm:"not null;index" json:"theme_id"`
	Modality        string            `gorm:"size:16;not null" json:"modality"`
	RawContent      string            `gorm:"type:text" json:"raw_content"`
	ImageURL        string            `gorm:"size:512" json:"image_url"`
	TranscribedText string            `gorm:"type:text" json:"transcribed_text"`
	SubmittedAt     time.Time         `gorm:"not null" json:"submitted_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Competencies    []EssayCompetency `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"competencies"`
	Assessment      *EssayAssessment  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"assessment"`
}

// EssayCompetency stores one competency score. Every graded essay has exactly five rows.
type EssayCompetency struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EssayID    uint      `gorm:"not null;uniqueIndex:idx_essay_competency" json:"essay_id"`
	Competency int       `gorm:"not null;uniqueIndex:idx_essay_competency" json:"competency"`
	Score      int       `gorm:"not null;default:0" json:"score"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EssayAssessment is the final grade of an essay, unique per essay.
type EssayAssessment struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	EssayID        uint           `gorm:"not null;uniqueIndex" json:"essay_id"`
	TotalScore     int            `gorm:"not null" json:"total_score"`
	Classification string         `gorm:"size:16" json:"classification"`
	Observations   string         `gorm:"type:text" json:"observations"`
	Detail         datatypes.JSON `json:"detail"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsGraded reports whether the essay has a final assessment loaded.
func (e Essay) IsGraded() bool {
	return e.Assessment != nil
}
