package service

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/moondev/applicant-portal-api/internal/dto"
	"github.com/moondev/applicant-portal-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type submissionRepoStub struct {
	mu        sync.Mutex
	byID      map[uint]models.Submission
	byUser    map[uint]models.Submission
	createErr error
	nextID    uint
}

func newSubmissionRepoStub() *submissionRepoStub {
	return &submissionRepoStub{
		byID:   make(map[uint]models.Submission),
		byUser: make(map[uint]models.Submission),
		nextID: 1,
	}
}

func (s *submissionRepoStub) add(submission models.Submission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission.ID == 0 {
		submission.ID = s.nextID
		s.nextID++
	}
	s.byID[submission.ID] = submission
	s.byUser[submission.UserID] = submission
}

func (s *submissionRepoStub) List(ctx context.Context) ([]models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	submissions := make([]models.Submission, 0, len(s.byID))
	for _, submission := range s.byID {
		submissions = append(submissions, submission)
	}
	return submissions, nil
}

func (s *submissionRepoStub) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission, ok := s.byID[id]; ok {
		return submission, nil
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (s *submissionRepoStub) GetByUserID(ctx context.Context, userID uint) (models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if submission, ok := s.byUser[userID]; ok {
		return submission, nil
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (s *submissionRepoStub) Create(ctx context.Context, submission *models.Submission) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.mu.Lock()
	submission.ID = s.nextID
	s.nextID++
	submission.CreatedAt = time.Now()
	s.byID[submission.ID] = *submission
	s.byUser[submission.UserID] = *submission
	s.mu.Unlock()
	return nil
}

type evaluationRepoStub struct {
	mu          sync.Mutex
	evaluations map[uint]models.Evaluation
	getErr      error
	upsertErr   error
	onGet       func()
	nextID      uint
}

func newEvaluationRepoStub() *evaluationRepoStub {
	return &evaluationRepoStub{
		evaluations: make(map[uint]models.Evaluation),
		nextID:      1,
	}
}

func (s *evaluationRepoStub) GetBySubmissionID(ctx context.Context, submissionID uint) (models.Evaluation, error) {
	if s.onGet != nil {
		s.onGet()
	}
	if s.getErr != nil {
		return models.Evaluation{}, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if evaluation, ok := s.evaluations[submissionID]; ok {
		return evaluation, nil
	}
	return models.Evaluation{}, gorm.ErrRecordNotFound
}

func (s *evaluationRepoStub) Upsert(ctx context.Context, evaluation *models.Evaluation) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.evaluations[evaluation.SubmissionID]; ok {
		evaluation.ID = existing.ID
		evaluation.CreatedAt = existing.CreatedAt
	} else {
		evaluation.ID = s.nextID
		s.nextID++
		evaluation.CreatedAt = time.Now()
	}
	evaluation.UpdatedAt = time.Now()
	s.evaluations[evaluation.SubmissionID] = *evaluation
	return nil
}

type deliveryLogStub struct {
	mu       sync.Mutex
	logs     []models.DeliveryLog
	recorded chan models.DeliveryLog
}

func newDeliveryLogStub() *deliveryLogStub {
	return &deliveryLogStub{recorded: make(chan models.DeliveryLog, 8)}
}

func (s *deliveryLogStub) Create(ctx context.Context, log *models.DeliveryLog) error {
	s.mu.Lock()
	s.logs = append(s.logs, *log)
	s.mu.Unlock()
	s.recorded <- *log
	return nil
}

func (s *deliveryLogStub) ListBySubmissionID(ctx context.Context, submissionID uint) ([]models.DeliveryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs := make([]models.DeliveryLog, 0, len(s.logs))
	for _, log := range s.logs {
		if log.SubmissionID == submissionID {
			logs = append(logs, log)
		}
	}
	return logs, nil
}

type mailerStub struct {
	err       error
	delivered chan MailMessage
}

func newMailerStub(err error) *mailerStub {
	return &mailerStub{err: err, delivered: make(chan MailMessage, 8)}
}

func (m *mailerStub) Deliver(ctx context.Context, message MailMessage) error {
	m.delivered <- message
	return m.err
}

type streamStub struct {
	mu        sync.Mutex
	published []dto.EvaluationResponse
}

func (s *streamStub) Publish(ctx context.Context, evaluation dto.EvaluationResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published = append(s.published, evaluation)
}

func (s *streamStub) Watch(ctx context.Context, submissionID uint) (<-chan dto.EvaluationEvent, func()) {
	events := make(chan dto.EvaluationEvent)
	return events, func() {}
}

func (s *streamStub) Start(ctx context.Context) {}

func (s *streamStub) publishedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}
