package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/idp-session-api/internal/models"
	"github.com/noah-isme/idp-session-api/pkg/jobs"
)

type auditStore interface {
	Insert(ctx context.Context, event *models.AuditEvent) error
}

// AuditService writes lifecycle audit events through a background worker
// queue. Emission never blocks a caller and never fails a caller: a full
// buffer drops the event and bumps a counter, nothing more.
type AuditService struct {
	queue   *jobs.Queue
	store   auditStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewAuditService constructs the audit emitter and its worker queue.
func NewAuditService(store auditStore, metrics *MetricsService, logger *zap.Logger, workers, bufferSize int) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AuditService{store: store, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("audit", s.handle, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: bufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Emit queues one audit event. Missing ID and timestamp are filled in here
// so callers only describe what happened.
func (s *AuditService) Emit(event models.AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = models.SeverityInfo
	}

	err := s.queue.TryEnqueue(jobs.Job{ID: event.ID, Type: event.EventType, Payload: event})
	if err != nil {
		s.metrics.RecordAuditDropped()
		s.logger.Warn("audit event dropped",
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.AuditEvent)
	if !ok {
		s.logger.Error("unexpected audit payload type", zap.String("job_id", job.ID))
		return nil
	}
	return s.store.Insert(ctx, &event)
}
