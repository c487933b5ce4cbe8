package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/moondev/applicant-portal-api/internal/dto"
	"github.com/moondev/applicant-portal-api/internal/models"
	"github.com/moondev/applicant-portal-api/internal/observability"
	"github.com/moondev/applicant-portal-api/internal/repository"
	"github.com/moondev/applicant-portal-api/pkg/avatar"
)

var (
	// ErrNoSubmission indicates the developer has not submitted yet.
	ErrNoSubmission = errors.New("no submission found")
	// ErrSubmissionExists indicates a submission already exists for the account.
	ErrSubmissionExists = errors.New("submission already exists for this account")
	// ErrAvatarRequired indicates no profile picture was attached.
	ErrAvatarRequired = errors.New("profile picture is required")
	// ErrArchiveRequired indicates no source archive was attached.
	ErrArchiveRequired = errors.New("source code zip file is required")
	// ErrArchiveNotZip indicates the archive filename lacks the .zip suffix.
	ErrArchiveNotZip = errors.New("file must be .zip")
	// ErrArchiveTooLarge indicates the archive exceeds the configured cap.
	ErrArchiveTooLarge = errors.New("archive exceeds maximum allowed size")
	// ErrAvatarNotImage indicates the avatar could not be treated as an image.
	ErrAvatarNotImage = errors.New("profile picture is not a decodable image")
	// ErrImageUploadFailed indicates the avatar upload step failed.
	ErrImageUploadFailed = errors.New("image upload failed")
	// ErrArchiveUploadFailed indicates the archive upload step failed.
	ErrArchiveUploadFailed = errors.New("zip upload failed")
	// ErrSubmissionSaveFailed indicates the record insert step failed.
	ErrSubmissionSaveFailed = errors.New("failed to save submission")
)

// FileStorage abstracts the object storage destination.
type FileStorage interface {
	Upload(ctx context.Context, folder, name string, reader io.Reader) (string, error)
}

// SubmissionService orchestrates the developer submission workflow.
type SubmissionService interface {
	Status(ctx context.Context, userID uint) (dto.SubmissionStatusResponse, error)
	Create(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest, avatarFile, archiveFile *multipart.FileHeader) (dto.SubmissionResponse, error)
}

// StorageFolders names the two logical buckets artifacts land in.
type StorageFolders struct {
	Avatars    string
	SourceCode string
}

type submissionService struct {
	submissions    repository.SubmissionRepository
	evaluations    repository.EvaluationRepository
	storage        FileStorage
	folders        StorageFolders
	validator      *validator.Validate
	sanitizer      *bluemonday.Policy
	logger         zerolog.Logger
	tracer         trace.Tracer
	maxArchiveSize int64
	now            func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(submissions repository.SubmissionRepository, evaluations repository.EvaluationRepository, storage FileStorage, folders StorageFolders, validate *validator.Validate, maxArchiveSizeMB int, logger zerolog.Logger) SubmissionService {
	if maxArchiveSizeMB <= 0 {
		maxArchiveSizeMB = 25
	}
	return &submissionService{
		submissions:    submissions,
		evaluations:    evaluations,
		storage:        storage,
		folders:        folders,
		validator:      validate,
		sanitizer:      bluemonday.StrictPolicy(),
		logger:         logger.With().Str("component", "submission_service").Logger(),
		tracer:         otel.Tracer("github.com/moondev/applicant-portal-api/internal/service/submission"),
		maxArchiveSize: int64(maxArchiveSizeMB) * 1024 * 1024,
		now:            time.Now,
	}
}

// Status returns the developer's submission with its evaluation snapshot.
// ErrNoSubmission maps to the "no submission" state in the client.
func (s *submissionService) Status(ctx context.Context, userID uint) (dto.SubmissionStatusResponse, error) {
	submission, err := s.submissions.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionStatusResponse{}, ErrNoSubmission
		}
		return dto.SubmissionStatusResponse{}, err
	}

	response := dto.SubmissionStatusResponse{Submission: dto.NewSubmissionResponse(submission)}

	evaluation, err := s.evaluations.GetBySubmissionID(ctx, submission.ID)
	if err == nil {
		// A row without a decision is still pending from the applicant's
		// point of view, so the snapshot omits it.
		if evaluation.IsDecided() {
			projected := dto.NewEvaluationResponse(evaluation)
			response.Evaluation = &projected
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionStatusResponse{}, err
	}

	return response, nil
}

func (s *submissionService) Create(ctx context.Context, userID uint, payload dto.SubmissionCreateRequest, avatarFile, archiveFile *multipart.FileHeader) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.create")
	span.SetAttributes(attribute.Int64("submission.user_id", int64(userID)))
	defer span.End()

	if err := s.validator.Struct(payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	if avatarFile == nil {
		return dto.SubmissionResponse{}, ErrAvatarRequired
	}
	if archiveFile == nil {
		return dto.SubmissionResponse{}, ErrArchiveRequired
	}
	if !strings.HasSuffix(strings.ToLower(archiveFile.Filename), ".zip") {
		return dto.SubmissionResponse{}, ErrArchiveNotZip
	}
	if archiveFile.Size > s.maxArchiveSize {
		return dto.SubmissionResponse{}, ErrArchiveTooLarge
	}

	if _, err := s.submissions.GetByUserID(ctx, userID); err == nil {
		span.SetStatus(codes.Error, "duplicate_submission")
		return dto.SubmissionResponse{}, ErrSubmissionExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		span.RecordError(err)
		return dto.SubmissionResponse{}, err
	}

	normalized, err := s.normalizeAvatar(avatarFile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "avatar_rejected")
		return dto.SubmissionResponse{}, err
	}
	span.SetAttributes(
		attribute.Int("submission.avatar_bytes", len(normalized.Data)),
		attribute.Int("submission.avatar_quality", normalized.Quality),
	)

	stamp := s.now().UnixMilli()

	avatarPath := fmt.Sprintf("%d-%d.jpg", userID, stamp)
	avatarURL, err := s.storage.Upload(ctx, s.folders.Avatars, avatarPath, bytes.NewReader(normalized.Data))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "avatar_upload_failed")
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrImageUploadFailed, err)
	}

	archiveReader, err := archiveFile.Open()
	if err != nil {
		span.RecordError(err)
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrArchiveUploadFailed, err)
	}
	defer archiveReader.Close()

	archivePath := fmt.Sprintf("%d-%d.zip", userID, stamp)
	archiveURL, err := s.storage.Upload(ctx, s.folders.SourceCode, archivePath, archiveReader)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive_upload_failed")
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrArchiveUploadFailed, err)
	}

	submission := models.Submission{
		UserID:          userID,
		FullName:        strings.TrimSpace(payload.FullName),
		Phone:           strings.TrimSpace(payload.Phone),
		Location:        strings.TrimSpace(payload.Location),
		Email:           strings.ToLower(strings.TrimSpace(payload.Email)),
		Hobby:           strings.TrimSpace(s.sanitizer.Sanitize(payload.Hobby)),
		ProfileImageURL: avatarURL,
		SourceCodeURL:   archiveURL,
	}

	// Uploaded artifacts are not rolled back when the insert fails; orphaned
	// blobs are an accepted inconsistency.
	if err := s.submissions.Create(ctx, &submission); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record_save_failed")
		return dto.SubmissionResponse{}, fmt.Errorf("%w: %v", ErrSubmissionSaveFailed, err)
	}

	observability.SubmissionsCreated().Inc()
	s.logger.Info().Uint("submission_id", submission.ID).Uint("user_id", userID).Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) normalizeAvatar(file *multipart.FileHeader) (avatar.Result, error) {
	reader, err := file.Open()
	if err != nil {
		return avatar.Result{}, fmt.Errorf("failed to open avatar: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return avatar.Result{}, fmt.Errorf("failed to read avatar: %w", err)
	}

	if mime := mimetype.Detect(data); !strings.HasPrefix(mime.String(), "image/") {
		return avatar.Result{}, fmt.Errorf("%w: detected %s", ErrAvatarNotImage, mime.String())
	}

	result, err := avatar.Normalize(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, avatar.ErrUndecodable) {
			return avatar.Result{}, fmt.Errorf("%w: %v", ErrAvatarNotImage, err)
		}
		return avatar.Result{}, err
	}

	if !result.WithinBudget() {
		s.logger.Warn().Int("bytes", len(result.Data)).Int("quality", result.Quality).Msg("avatar over size budget at quality floor")
	}

	return result, nil
}
