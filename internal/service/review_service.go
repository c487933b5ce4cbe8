package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/moondev/applicant-portal-api/internal/dto"
	"github.com/moondev/applicant-portal-api/internal/models"
	"github.com/moondev/applicant-portal-api/internal/observability"
	"github.com/moondev/applicant-portal-api/internal/repository"
)

// ErrSubmissionNotFound indicates a submission could not be located.
var ErrSubmissionNotFound = errors.New("submission not found")

const (
	subjectAccepted = "Welcome to MoonDev!"
	subjectRejected = "MoonDev Application Result"
)

// ReviewService drives the evaluator workflow: listing submissions, opening
// one for review and recording a decision.
type ReviewService interface {
	List(ctx context.Context) ([]dto.SubmissionResponse, error)
	Detail(ctx context.Context, submissionID uint) (dto.ReviewDetailResponse, error)
	Decide(ctx context.Context, submissionID, evaluatorID uint, payload dto.EvaluationUpsertRequest) (dto.EvaluationResponse, error)
}

type reviewService struct {
	submissions  repository.SubmissionRepository
	evaluations  repository.EvaluationRepository
	deliveryLogs repository.DeliveryLogRepository
	stream       EvaluationStream
	mailer       MailDelivery
	validator    *validator.Validate
	sanitizer    *bluemonday.Policy
	logger       zerolog.Logger
	tracer       trace.Tracer
	mailTimeout  time.Duration
}

// NewReviewService constructs a ReviewService instance.
func NewReviewService(submissions repository.SubmissionRepository, evaluations repository.EvaluationRepository, deliveryLogs repository.DeliveryLogRepository, stream EvaluationStream, mailer MailDelivery, validate *validator.Validate, logger zerolog.Logger) ReviewService {
	return &reviewService{
		submissions:  submissions,
		evaluations:  evaluations,
		deliveryLogs: deliveryLogs,
		stream:       stream,
		mailer:       mailer,
		validator:    validate,
		sanitizer:    bluemonday.StrictPolicy(),
		logger:       logger.With().Str("component", "review_service").Logger(),
		tracer:       otel.Tracer("github.com/moondev/applicant-portal-api/internal/service/review"),
		mailTimeout:  15 * time.Second,
	}
}

func (s *reviewService) List(ctx context.Context) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *reviewService) Detail(ctx context.Context, submissionID uint) (dto.ReviewDetailResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.ReviewDetailResponse{}, err
	}

	response := dto.ReviewDetailResponse{Submission: dto.NewSubmissionResponse(submission)}

	evaluation, err := s.evaluations.GetBySubmissionID(ctx, submissionID)
	if err == nil {
		projected := dto.NewEvaluationResponse(evaluation)
		response.Evaluation = &projected
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ReviewDetailResponse{}, err
	}

	return response, nil
}

// Decide upserts the evaluation keyed by submission id, pushes the new row to
// watchers and fires the mail dispatch. The write is final once the upsert
// succeeds; dispatch failure never surfaces to the evaluator.
func (s *reviewService) Decide(ctx context.Context, submissionID, evaluatorID uint, payload dto.EvaluationUpsertRequest) (dto.EvaluationResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.decide")
	span.SetAttributes(
		attribute.Int64("review.submission_id", int64(submissionID)),
		attribute.Int64("review.evaluator_id", int64(evaluatorID)),
	)
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.EvaluationResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "submission_not_found")
			return dto.EvaluationResponse{}, ErrSubmissionNotFound
		}
		span.RecordError(err)
		return dto.EvaluationResponse{}, err
	}

	evaluation := models.Evaluation{
		SubmissionID: submissionID,
		EvaluatorID:  evaluatorID,
		Decision:     payload.Decision,
		Feedback:     strings.TrimSpace(s.sanitizer.Sanitize(payload.Feedback)),
	}

	if err := s.evaluations.Upsert(ctx, &evaluation); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert_failed")
		return dto.EvaluationResponse{}, err
	}

	response := dto.NewEvaluationResponse(evaluation)
	observability.DecisionsRecorded().WithLabelValues(response.Decision).Inc()
	s.stream.Publish(ctx, response)

	s.logger.Info().
		Uint("submission_id", submissionID).
		Uint("evaluator_id", evaluatorID).
		Str("decision", response.Decision).
		Msg("decision recorded")

	// Fire and forget: the decision stands whatever happens to the mail.
	go s.dispatchMail(submission, response)

	span.SetAttributes(attribute.String("review.decision", response.Decision))

	return response, nil
}

func (s *reviewService) dispatchMail(submission models.Submission, evaluation dto.EvaluationResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), s.mailTimeout)
	defer cancel()

	message := composeDecisionMail(submission, evaluation)

	status := models.DeliveryStatusSent
	detail := datatypes.JSONMap{"subject": message.Subject}

	if err := s.mailer.Deliver(ctx, message); err != nil {
		status = models.DeliveryStatusFailed
		detail["error"] = err.Error()
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("mail dispatch failed")
	}

	observability.MailDispatches().WithLabelValues(status).Inc()

	log := models.DeliveryLog{
		SubmissionID: submission.ID,
		Recipient:    message.To,
		Subject:      message.Subject,
		Status:       status,
		Detail:       detail,
	}
	if err := s.deliveryLogs.Create(ctx, &log); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to record delivery log")
	}
}

func composeDecisionMail(submission models.Submission, evaluation dto.EvaluationResponse) MailMessage {
	if evaluation.Decision == models.DecisionAccepted {
		return MailMessage{
			To:      submission.Email,
			Subject: subjectAccepted,
			Message: fmt.Sprintf("Congratulations %s!\n\nYou have been accepted to MoonDev.\n\nEvaluator feedback: %s", submission.FullName, evaluation.Feedback),
		}
	}

	return MailMessage{
		To:      submission.Email,
		Subject: subjectRejected,
		Message: fmt.Sprintf("Hello %s,\n\nThank you for your application.\nUnfortunately, you were not selected.\n\nEvaluator feedback: %s", submission.FullName, evaluation.Feedback),
	}
}
