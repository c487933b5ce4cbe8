package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moondev/applicant-portal-api/internal/models"
)

// EvaluationRepository defines data operations for evaluations. Writes are
// upserts keyed by submission id; the last write wins.
type EvaluationRepository interface {
	GetBySubmissionID(ctx context.Context, submissionID uint) (models.Evaluation, error)
	Upsert(ctx context.Context, evaluation *models.Evaluation) error
}

type evaluationRepository struct {
	db *gorm.DB
}

// NewEvaluationRepository instantiates the repository.
func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

func (r *evaluationRepository) GetBySubmissionID(ctx context.Context, submissionID uint) (models.Evaluation, error) {
	var evaluation models.Evaluation
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		First(&evaluation).Error; err != nil {
		return models.Evaluation{}, err
	}

	return evaluation, nil
}

func (r *evaluationRepository) Upsert(ctx context.Context, evaluation *models.Evaluation) error {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "submission_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"evaluator_id", "decision", "feedback", "updated_at"}),
		}).
		Create(evaluation).Error; err != nil {
		return err
	}

	// Reload so callers observe the surviving row rather than the insert attempt.
	return r.db.WithContext(ctx).
		Where("submission_id = ?", evaluation.SubmissionID).
		First(evaluation).Error
}
