package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/idp-session-api/internal/dto"
	"github.com/noah-isme/idp-session-api/internal/models"
	"github.com/noah-isme/idp-session-api/internal/repository"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
	"github.com/noah-isme/idp-session-api/pkg/token"
)

type rotationSessionRepository interface {
	FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Session, error)
	Rotate(ctx context.Context, sessionID, expectedHash, newHash string, rotatedAt, slidingExpiry time.Time) (bool, error)
	Revoke(ctx context.Context, sessionID string, reason models.RevocationReason, at time.Time) (bool, error)
	MarkReuseDetected(ctx context.Context, sessionID string, at time.Time) error
}

type rotationReplayCache interface {
	PutReplay(ctx context.Context, supersededHash string, payload repository.ReplayPayload, ttl time.Duration) error
	GetReplay(ctx context.Context, supersededHash string) (*repository.ReplayPayload, error)
}

type auditEmitter interface {
	Emit(event models.AuditEvent)
}

// RotationConfig defines timing parameters for refresh token rotation.
type RotationConfig struct {
	SlidingWindow time.Duration
	ReuseLeeway   time.Duration
}

// RotationService implements refresh token rotation with reuse detection.
// Every presented secret lands in exactly one of four outcomes: a fresh
// rotation, a served retry, a rejected retry, or a reuse incident that
// kills the session.
type RotationService struct {
	sessions rotationSessionRepository
	replays  rotationReplayCache
	audit    auditEmitter
	metrics  *MetricsService
	logger   *zap.Logger
	config   RotationConfig
	now      func() time.Time
}

// NewRotationService constructs a RotationService instance.
func NewRotationService(sessions rotationSessionRepository, replays rotationReplayCache, audit auditEmitter, metrics *MetricsService, logger *zap.Logger, config RotationConfig) *RotationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RotationService{
		sessions: sessions,
		replays:  replays,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// Rotate handles one refresh secret presentation for the given grant.
func (s *RotationService) Rotate(ctx context.Context, authorizationID string, req dto.RotateRequest) (*dto.RotateResponse, error) {
	session, err := s.sessions.FindByAuthorizationID(ctx, authorizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSessionNotFound, "unknown authorization")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if session.Revoked() {
		return nil, appErrors.Clone(appErrors.ErrSessionRevoked, "session has been revoked")
	}

	now := s.now()
	if now.After(session.AbsoluteExpiry) || now.After(session.SlidingExpiry) {
		if _, err := s.sessions.Revoke(ctx, session.ID, models.ReasonExpired, now); err != nil {
			s.logger.Warn("failed to mark expired session revoked", zap.String("session_id", session.ID), zap.Error(err))
		}
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "session has expired")
	}

	if token.Equal(req.RefreshToken, session.Salt, session.CurrentTokenHash) {
		resp, won, err := s.rotate(ctx, session, req, now)
		if err != nil {
			return nil, err
		}
		if won {
			return resp, nil
		}
		// Lost the race against a concurrent rotation. Re-read and let the
		// presented secret take the superseded-hash path below.
		session, err = s.sessions.FindByAuthorizationID(ctx, authorizationID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload session")
		}
		if session.Revoked() {
			return nil, appErrors.Clone(appErrors.ErrSessionRevoked, "session has been revoked")
		}
	}

	if session.PreviousTokenHash != nil && token.Equal(req.RefreshToken, session.Salt, *session.PreviousTokenHash) {
		if session.WithinLeeway(now, s.config.ReuseLeeway) {
			return s.serveRetry(ctx, session, req)
		}
	}

	return nil, s.reuseDetected(ctx, session, req, now)
}

// rotate performs the conditional chain advance. The second return value is
// false when a concurrent rotation moved the chain first.
func (s *RotationService) rotate(ctx context.Context, session *models.Session, req dto.RotateRequest, now time.Time) (*dto.RotateResponse, bool, error) {
	secret, err := token.NewSecret()
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate refresh secret")
	}
	newHash := token.Hash(secret, session.Salt)

	slidingExpiry := now.Add(s.config.SlidingWindow)
	if slidingExpiry.After(session.AbsoluteExpiry) {
		slidingExpiry = session.AbsoluteExpiry
	}

	won, err := s.sessions.Rotate(ctx, session.ID, session.CurrentTokenHash, newHash, now, slidingExpiry)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to rotate session")
	}
	if !won {
		return nil, false, nil
	}

	payload := repository.ReplayPayload{RefreshToken: secret, SlidingExpiry: slidingExpiry}
	if err := s.replays.PutReplay(ctx, session.CurrentTokenHash, payload, s.config.ReuseLeeway); err != nil {
		s.logger.Warn("failed to park rotation outcome for retry window", zap.String("session_id", session.ID), zap.Error(err))
	}

	s.emitRotated(session, req, slidingExpiry)
	if slidingExpiry.After(session.SlidingExpiry) {
		s.emitSlidingExtended(session, req, slidingExpiry)
	}
	if s.metrics != nil {
		s.metrics.RecordRotation("rotated")
	}

	return &dto.RotateResponse{
		RefreshToken:   secret,
		SlidingExpiry:  slidingExpiry,
		AbsoluteExpiry: session.AbsoluteExpiry,
		Retry:          false,
	}, true, nil
}

// serveRetry answers a benign retry with the same secret the original
// rotation issued. The secret only lives in the replay cache; once evicted
// the retry cannot be honored, but the session stays alive.
func (s *RotationService) serveRetry(ctx context.Context, session *models.Session, req dto.RotateRequest) (*dto.RotateResponse, error) {
	supersededHash := token.Hash(req.RefreshToken, session.Salt)
	payload, err := s.replays.GetReplay(ctx, supersededHash)
	if err != nil {
		if appErrors.Is(err, appErrors.ErrCacheMiss) {
			if s.metrics != nil {
				s.metrics.RecordRotation("retry_not_servable")
			}
			return nil, appErrors.Clone(appErrors.ErrRetryNotServable, "retry window active but original outcome is gone")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read retry outcome")
	}

	if s.metrics != nil {
		s.metrics.RecordRotation("retry_served")
	}
	return &dto.RotateResponse{
		RefreshToken:   payload.RefreshToken,
		SlidingExpiry:  payload.SlidingExpiry,
		AbsoluteExpiry: session.AbsoluteExpiry,
		Retry:          true,
	}, nil
}

// reuseDetected treats the presentation as token theft: the session is
// revoked immediately and a critical audit event goes out.
func (s *RotationService) reuseDetected(ctx context.Context, session *models.Session, req dto.RotateRequest, now time.Time) error {
	if err := s.sessions.MarkReuseDetected(ctx, session.ID, now); err != nil {
		s.logger.Error("failed to record reuse incident", zap.String("session_id", session.ID), zap.Error(err))
	}

	details, _ := json.Marshal(map[string]string{
		"sessionId": session.ID,
		"clientId":  session.ClientID,
	})
	s.audit.Emit(models.AuditEvent{
		EventType:       models.AuditRefreshTokenReuseDetected,
		Severity:        models.SeverityCritical,
		UserID:          &session.UserID,
		AuthorizationID: &session.AuthorizationID,
		Details:         details,
		IPAddress:       req.IPAddress,
		UserAgent:       req.UserAgent,
	})
	if s.metrics != nil {
		s.metrics.RecordRotation("reuse_detected")
		s.metrics.RecordReuseIncident()
	}

	s.logger.Warn("refresh token reuse detected",
		zap.String("session_id", session.ID),
		zap.String("authorization_id", session.AuthorizationID),
		zap.String("ip", req.IPAddress),
	)
	return appErrors.Clone(appErrors.ErrReuseDetected, "refresh token reuse detected; session revoked")
}

func (s *RotationService) emitSlidingExtended(session *models.Session, req dto.RotateRequest, slidingExpiry time.Time) {
	details, _ := json.Marshal(map[string]interface{}{
		"sessionId":  session.ID,
		"from":       session.SlidingExpiry,
		"to":         slidingExpiry,
		"extensions": session.SlidingExtensions + 1,
	})
	s.audit.Emit(models.AuditEvent{
		EventType:       models.AuditSlidingExpirationExtended,
		Severity:        models.SeverityInfo,
		UserID:          &session.UserID,
		AuthorizationID: &session.AuthorizationID,
		Details:         details,
		IPAddress:       req.IPAddress,
		UserAgent:       req.UserAgent,
	})
}

func (s *RotationService) emitRotated(session *models.Session, req dto.RotateRequest, slidingExpiry time.Time) {
	details, _ := json.Marshal(map[string]interface{}{
		"sessionId":     session.ID,
		"clientId":      session.ClientID,
		"slidingExpiry": slidingExpiry,
	})
	s.audit.Emit(models.AuditEvent{
		EventType:       models.AuditRefreshTokenRotated,
		Severity:        models.SeverityInfo,
		UserID:          &session.UserID,
		AuthorizationID: &session.AuthorizationID,
		Details:         details,
		IPAddress:       req.IPAddress,
		UserAgent:       req.UserAgent,
	})
}
