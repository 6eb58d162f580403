package models

import "time"

// Theme is an essay prompt students write against. Themes are immutable once created.
type Theme struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"type:text;not null" json:"title"`
	SupportText   string    `gorm:"type:text" json:"support_text"`
	GeneratedByAI bool      `gorm:"not null;default:false" json:"generated_by_ai"`
	CreatedAt     time.Time `json:"created_at"`
}
