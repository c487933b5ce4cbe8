package models

import "time"

// Evaluation records an evaluator's decision and feedback for a submission.
// At most one row exists per submission; writes replace the previous row.
type Evaluation struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"uniqueIndex;not null" json:"submission_id"`
	EvaluatorID  uint       `gorm:"not null" json:"evaluator_id"`
	Decision     string     `gorm:"size:32" json:"decision"`
	Feedback     string     `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

const (
	// DecisionAccepted marks an accepted application.
	DecisionAccepted = "accepted"
	// DecisionRejected marks a rejected application.
	DecisionRejected = "rejected"
)

// IsDecided reports whether the evaluation carries a terminal decision.
func (e Evaluation) IsDecided() bool {
	return e.Decision == DecisionAccepted || e.Decision == DecisionRejected
}
