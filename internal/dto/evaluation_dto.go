package dto

import (
	"time"

	"github.com/moondev/applicant-portal-api/internal/models"
)

// EvaluationUpsertRequest records or revises a decision for a submission.
type EvaluationUpsertRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted rejected"`
	Feedback string `json:"feedback"`
}

// EvaluationResponse is the API projection of an evaluation row.
type EvaluationResponse struct {
	SubmissionID uint      `json:"submission_id"`
	EvaluatorID  uint      `json:"evaluator_id"`
	Decision     string    `json:"decision"`
	Feedback     string    `json:"feedback"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EvaluationEvent is pushed over the live channel whenever an evaluation row
// for the watched submission is created or updated.
type EvaluationEvent struct {
	Type       string             `json:"type"`
	Evaluation EvaluationResponse `json:"evaluation"`
	SentAt     time.Time          `json:"sent_at"`
}

const (
	// EventTypeSnapshot marks the initial state read delivered on subscribe.
	EventTypeSnapshot = "snapshot"
	// EventTypeUpdate marks a live row change.
	EventTypeUpdate = "update"
)

// NewEvaluationResponse maps a model to its API projection.
func NewEvaluationResponse(evaluation models.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		SubmissionID: evaluation.SubmissionID,
		EvaluatorID:  evaluation.EvaluatorID,
		Decision:     evaluation.Decision,
		Feedback:     evaluation.Feedback,
		UpdatedAt:    evaluation.UpdatedAt,
	}
}

// ReviewDetailResponse backs the evaluator detail view: the submission plus
// any prior evaluation to pre-populate the editor.
type ReviewDetailResponse struct {
	Submission SubmissionResponse  `json:"submission"`
	Evaluation *EvaluationResponse `json:"evaluation,omitempty"`
}
