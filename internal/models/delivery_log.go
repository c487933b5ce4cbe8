package models

import (
	"time"

	"gorm.io/datatypes"
)

// DeliveryLog captures a best-effort record of each outbound mail attempt.
type DeliveryLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID uint              `gorm:"index;not null" json:"submission_id"`
	Recipient    string            `gorm:"size:255;not null" json:"recipient"`
	Subject      string            `gorm:"size:255;not null" json:"subject"`
	Status       string            `gorm:"size:32;not null" json:"status"`
	Detail       datatypes.JSONMap `gorm:"type:json" json:"detail"`
	CreatedAt    time.Time         `json:"created_at"`
}

const (
	// DeliveryStatusSent marks a dispatch the mail endpoint acknowledged.
	DeliveryStatusSent = "sent"
	// DeliveryStatusFailed marks a dispatch that errored; the decision stands regardless.
	DeliveryStatusFailed = "failed"
)
