package dto

import (
	"time"

	"github.com/moondev/applicant-portal-api/internal/models"
)

// SubmissionCreateRequest carries the application form fields. The two file
// parts travel alongside as multipart attachments.
type SubmissionCreateRequest struct {
	FullName string `json:"full_name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"required,max=64"`
	Location string `json:"location" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Hobby    string `json:"hobby" validate:"required"`
}

// SubmissionResponse is the API projection of a submission record.
type SubmissionResponse struct {
	ID              uint      `json:"id"`
	UserID          uint      `json:"user_id"`
	FullName        string    `json:"full_name"`
	Phone           string    `json:"phone"`
	Location        string    `json:"location"`
	Email           string    `json:"email"`
	Hobby           string    `json:"hobby"`
	ProfileImageURL string    `json:"profile_image_url"`
	SourceCodeURL   string    `json:"source_code_url"`
	CreatedAt       time.Time `json:"created_at"`
}

// SubmissionStatusResponse pairs a submission with its evaluation snapshot for
// the developer view. Evaluation is nil while the review is pending.
type SubmissionStatusResponse struct {
	Submission SubmissionResponse  `json:"submission"`
	Evaluation *EvaluationResponse `json:"evaluation,omitempty"`
}

// NewSubmissionResponse maps a model to its API projection.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              submission.ID,
		UserID:          submission.UserID,
		FullName:        submission.FullName,
		Phone:           submission.Phone,
		Location:        submission.Location,
		Email:           submission.Email,
		Hobby:           submission.Hobby,
		ProfileImageURL: submission.ProfileImageURL,
		SourceCodeURL:   submission.SourceCodeURL,
		CreatedAt:       submission.CreatedAt,
	}
}

// NewSubmissionResponseSlice maps a slice of models preserving order.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, NewSubmissionResponse(submission))
	}
	return responses
}
