package models

import "time"

// Submission is one developer's application record. It is written exactly once;
// there is no update or resubmission path.
type Submission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName        string    `gorm:"size:255;not null" json:"full_name"`
	Phone           string    `gorm:"size:64" json:"phone"`
	Location        string    `gorm:"size:255" json:"location"`
	Email           string    `gorm:"size:255;not null" json:"email"`
	Hobby           string    `gorm:"type:text" json:"hobby"`
	ProfileImageURL string    `gorm:"size:512" json:"profile_image_url"`
	SourceCodeURL   string    `gorm:"size:512" json:"source_code_url"`
	CreatedAt       time.Time `json:"created_at"`
}
