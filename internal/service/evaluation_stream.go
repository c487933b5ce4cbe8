package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/moondev/applicant-portal-api/internal/dto"
	"github.com/moondev/applicant-portal-api/internal/observability"
	"github.com/moondev/applicant-portal-api/internal/repository"
)

const watcherBufferSize = 16

// EvaluationStream carries a submission's lifecycle from pending to decided.
// Watchers receive one stream per submission id fed by two producers: an
// initial snapshot read and live row-change events. A pushed update always
// wins over a stale snapshot.
type EvaluationStream interface {
	Publish(ctx context.Context, evaluation dto.EvaluationResponse)
	Watch(ctx context.Context, submissionID uint) (<-chan dto.EvaluationEvent, func())
	Start(ctx context.Context)
}

type evaluationStream struct {
	evaluations repository.EvaluationRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *evaluationBroker
	nodeID      string
}

type evaluationWireEvent struct {
	Source     string                 `json:"source"`
	Evaluation dto.EvaluationResponse `json:"evaluation"`
	SentAt     time.Time              `json:"sent_at"`
}

type evaluationBroker struct {
	mu       sync.RWMutex
	watchers map[uint]map[chan dto.EvaluationResponse]struct{}
}

// NewEvaluationStream constructs the stream. Redis and NATS clients are
// optional; when present they replicate evaluation events across nodes.
func NewEvaluationStream(evaluations repository.EvaluationRepository, redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EvaluationStream {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":evaluations"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".evaluations"
	}

	return &evaluationStream{
		evaluations: evaluations,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "evaluation_stream").Logger(),
		broker: &evaluationBroker{
			watchers: make(map[uint]map[chan dto.EvaluationResponse]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

// Start launches the cross-node bridge consumers, when configured.
func (s *evaluationStream) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// Publish fans an evaluation row out to local watchers and the node bridge.
func (s *evaluationStream) Publish(ctx context.Context, evaluation dto.EvaluationResponse) {
	s.broker.broadcast(evaluation.SubmissionID, evaluation)

	if err := s.publishBridge(ctx, evaluation); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", evaluation.SubmissionID).Msg("failed to publish evaluation event to bridge")
	}
}

// Watch subscribes to a submission's evaluation changes. Subscription is
// established before the snapshot read so no write can fall between the two;
// the snapshot is suppressed when a live event is already queued ahead of it.
// The returned cleanup must be called when the watcher goes away; there is no
// automatic reconnect for the caller's transport.
func (s *evaluationStream) Watch(ctx context.Context, submissionID uint) (<-chan dto.EvaluationEvent, func()) {
	live := make(chan dto.EvaluationResponse, watcherBufferSize)
	s.broker.subscribe(submissionID, live)
	observability.StreamClientsActive().Inc()

	out := make(chan dto.EvaluationEvent, watcherBufferSize)

	go func() {
		defer close(out)

		snapshot, err := s.evaluations.GetBySubmissionID(ctx, submissionID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("evaluation snapshot read failed")
		}

		// Prefer a live event that raced ahead of the snapshot read.
		select {
		case evaluation, ok := <-live:
			if !ok {
				return
			}
			if !emit(ctx, out, dto.EvaluationEvent{Type: dto.EventTypeUpdate, Evaluation: evaluation, SentAt: time.Now().UTC()}) {
				return
			}
		default:
			if err == nil {
				if !emit(ctx, out, dto.EvaluationEvent{Type: dto.EventTypeSnapshot, Evaluation: dto.NewEvaluationResponse(snapshot), SentAt: time.Now().UTC()}) {
					return
				}
			}
		}

		for {
			select {
			case evaluation, ok := <-live:
				if !ok {
					return
				}
				if !emit(ctx, out, dto.EvaluationEvent{Type: dto.EventTypeUpdate, Evaluation: evaluation, SentAt: time.Now().UTC()}) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	cleanup := func() {
		s.broker.unsubscribe(submissionID, live)
		observability.StreamClientsActive().Dec()
	}

	return out, cleanup
}

func emit(ctx context.Context, out chan dto.EvaluationEvent, event dto.EvaluationEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *evaluationStream) publishBridge(ctx context.Context, evaluation dto.EvaluationResponse) error {
	if (s.redis == nil || s.redisStream == "") && (s.nats == nil || s.natsSubject == "") {
		return nil
	}

	event := evaluationWireEvent{
		Source:     s.nodeID,
		Evaluation: evaluation,
		SentAt:     time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *evaluationStream) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("evaluation redis subscription closed")
			return
		}
		s.handleBridgeEvent([]byte(msg.Payload))
	}
}

func (s *evaluationStream) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "portal-evaluations", func(msg *nats.Msg) {
		s.handleBridgeEvent(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats evaluations subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain evaluation nats subscription")
		}
	}()
}

func (s *evaluationStream) handleBridgeEvent(payload []byte) {
	var event evaluationWireEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		s.logger.Warn().Err(err).Msg("invalid evaluation event payload")
		return
	}

	if event.Source == s.nodeID {
		return
	}

	s.broker.broadcast(event.Evaluation.SubmissionID, event.Evaluation)
}

func (b *evaluationBroker) subscribe(submissionID uint, ch chan dto.EvaluationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.watchers[submissionID]; !exists {
		b.watchers[submissionID] = make(map[chan dto.EvaluationResponse]struct{})
	}
	b.watchers[submissionID][ch] = struct{}{}
}

func (b *evaluationBroker) unsubscribe(submissionID uint, ch chan dto.EvaluationResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if watchers, ok := b.watchers[submissionID]; ok {
		delete(watchers, ch)
		close(ch)
		if len(watchers) == 0 {
			delete(b.watchers, submissionID)
		}
	}
}

func (b *evaluationBroker) broadcast(submissionID uint, evaluation dto.EvaluationResponse) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.watchers[submissionID] {
		select {
		case ch <- evaluation:
		default:
		}
	}
}
