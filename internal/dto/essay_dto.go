package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ThemeRef is a loosely typed theme identifier. Clients send it as a number, a numeric
// string, free text or not at all; resolution happens server side.
type ThemeRef string

// UnmarshalJSON accepts JSON numbers, strings and null.
func (r *ThemeRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = ""
		return nil
	}

	if trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(trimmed, &value); err != nil {
			return err
		}
		*r = ThemeRef(strings.TrimSpace(value))
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return fmt.Errorf("theme_id must be a number or string: %w", err)
	}
	*r = ThemeRef(number.String())
	return nil
}

// EssaySubmitRequest is the payload for grading a new essay. Either Text or Image must be set.
// Image is a data URI or bare base64 of the scanned page.
type EssaySubmitRequest struct {
	StudentID uint     `json:"student_id"`
	ThemeID   ThemeRef `json:"theme_id"`
	Text      string   `json:"text" validate:"max=20000"`
	Image     string   `json:"image"`
}

// ThemeResponse describes an essay theme.
type ThemeResponse struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	SupportText   string `json:"support_text"`
	GeneratedByAI bool   `json:"generated_by_ai"`
}

// EssayGradeResponse is returned after an essay has been graded and stored.
type EssayGradeResponse struct {
	ID                 uint              `json:"id"`
	ThemeID            uint              `json:"theme_id"`
	ThemeTitle         string            `json:"theme_title"`
	Classification     string            `json:"classification"`
	TotalScore         int               `json:"total_score"`
	Scores             map[string]int    `json:"scores"`
	GeneralComment     string            `json:"general_comment"`
	CompetencyComments map[string]string `json:"competency_comments"`
	Transcript         string            `json:"transcript"`
	ImageURL           string            `json:"image_url,omitempty"`
}

// EssayDetailResponse is the full read model of a stored essay.
type EssayDetailResponse struct {
	ID                 uint              `json:"id"`
	StudentID          uint              `json:"student_id"`
	ThemeID            uint              `json:"theme_id"`
	ThemeTitle         string            `json:"theme_title"`
	Modality           string            `json:"modality"`
	Text               string            `json:"text"`
	ImageURL           string            `json:"image_url,omitempty"`
	SubmittedAt        time.Time         `json:"submitted_at"`
	Graded             bool              `json:"graded"`
	Classification     string            `json:"classification,omitempty"`
	TotalScore         int               `json:"total_score"`
	Scores             map[string]int    `json:"scores"`
	GeneralComment     string            `json:"general_comment"`
	CompetencyComments map[string]string `json:"competency_comments"`
}

// EssayHistoryItem summarises one graded essay in a student's history.
type EssayHistoryItem struct {
	EssayID     uint      `json:"essay_id"`
	Title       string    `json:"title"`
	TotalScore  int       `json:"total_score"`
	SubmittedAt time.Time `json:"submitted_at"`
}
