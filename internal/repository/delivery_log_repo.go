package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/moondev/applicant-portal-api/internal/models"
)

// DeliveryLogRepository records outbound mail attempts.
type DeliveryLogRepository interface {
	Create(ctx context.Context, log *models.DeliveryLog) error
	ListBySubmissionID(ctx context.Context, submissionID uint) ([]models.DeliveryLog, error)
}

type deliveryLogRepository struct {
	db *gorm.DB
}

// NewDeliveryLogRepository instantiates the repository.
func NewDeliveryLogRepository(db *gorm.DB) DeliveryLogRepository {
	return &deliveryLogRepository{db: db}
}

func (r *deliveryLogRepository) Create(ctx context.Context, log *models.DeliveryLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *deliveryLogRepository) ListBySubmissionID(ctx context.Context, submissionID uint) ([]models.DeliveryLog, error) {
	var logs []models.DeliveryLog
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, err
	}

	return logs, nil
}
