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
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
)

type revocationSessionRepository interface {
	FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Session, error)
	Revoke(ctx context.Context, sessionID string, reason models.RevocationReason, at time.Time) (bool, error)
	ListActiveByUser(ctx context.Context, userID string) ([]models.Session, error)
}

type personDirectory interface {
	FindPerson(ctx context.Context, id string) (*models.Person, error)
	ListAccountsByPerson(ctx context.Context, personID string) ([]models.Account, error)
}

// RevocationService terminates sessions at three granularities: one
// session, every session of a user, and the full cascade across every
// account a person owns. The cascade is best effort; one failed session
// never aborts the rest.
type RevocationService struct {
	sessions revocationSessionRepository
	accounts personDirectory
	audit    auditEmitter
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time
}

// NewRevocationService constructs a RevocationService instance.
func NewRevocationService(sessions revocationSessionRepository, accounts personDirectory, audit auditEmitter, metrics *MetricsService, logger *zap.Logger) *RevocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RevocationService{
		sessions: sessions,
		accounts: accounts,
		audit:    audit,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// RevokeSession terminates one session. When ownerID is non-empty the
// session must belong to that user. Revoking an already revoked session is
// a no-op, not an error.
func (s *RevocationService) RevokeSession(ctx context.Context, ownerID, authorizationID string, reason models.RevocationReason) error {
	session, err := s.sessions.FindByAuthorizationID(ctx, authorizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrSessionNotFound, "unknown authorization")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if ownerID != "" && session.UserID != ownerID {
		return appErrors.Clone(appErrors.ErrNotOwner, "session belongs to another user")
	}

	revoked, err := s.sessions.Revoke(ctx, session.ID, reason, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke session")
	}
	if revoked {
		s.emitRevoked(session, reason)
	}
	return nil
}

// RevokeAllForUser terminates every active session of one user and returns
// how many were revoked.
func (s *RevocationService) RevokeAllForUser(ctx context.Context, userID string, reason models.RevocationReason) (int, error) {
	sessions, err := s.sessions.ListActiveByUser(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	revoked := 0
	for i := range sessions {
		session := &sessions[i]
		ok, err := s.sessions.Revoke(ctx, session.ID, reason, s.now())
		if err != nil {
			s.logger.Error("failed to revoke session in cascade",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			revoked++
			s.emitRevoked(session, reason)
		}
	}
	return revoked, nil
}

// RevokeAllForPerson cascades a person-level termination through every
// account the person owns. Inactive accounts are visited too; a dormant
// account can still hold live sessions.
func (s *RevocationService) RevokeAllForPerson(ctx context.Context, personID string, reason models.RevocationReason) (*dto.RevokeForPersonResponse, error) {
	if _, err := s.accounts.FindPerson(ctx, personID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown person")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load person")
	}
	if reason == "" {
		reason = models.ReasonPersonTerminated
	}

	accounts, err := s.accounts.ListAccountsByPerson(ctx, personID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}

	result := &dto.RevokeForPersonResponse{}
	for _, account := range accounts {
		result.AccountsVisited++
		sessions, err := s.sessions.ListActiveByUser(ctx, account.ID)
		if err != nil {
			result.Failures++
			s.logger.Error("failed to list sessions for account in cascade",
				zap.String("account_id", account.ID),
				zap.Error(err),
			)
			continue
		}
		for i := range sessions {
			session := &sessions[i]
			ok, err := s.sessions.Revoke(ctx, session.ID, reason, s.now())
			if err != nil {
				result.Failures++
				s.logger.Error("failed to revoke session in cascade",
					zap.String("session_id", session.ID),
					zap.Error(err),
				)
				continue
			}
			if ok {
				result.SessionsRevoked++
				s.emitRevoked(session, reason)
			}
		}
	}

	s.logger.Info("person revocation cascade finished",
		zap.String("person_id", personID),
		zap.Int("accounts", result.AccountsVisited),
		zap.Int("revoked", result.SessionsRevoked),
		zap.Int("failures", result.Failures),
	)
	return result, nil
}

func (s *RevocationService) emitRevoked(session *models.Session, reason models.RevocationReason) {
	details, _ := json.Marshal(map[string]string{
		"sessionId": session.ID,
		"clientId":  session.ClientID,
		"reason":    string(reason),
	})
	s.audit.Emit(models.AuditEvent{
		EventType:       models.AuditSessionRevoked,
		Severity:        models.SeverityInfo,
		UserID:          &session.UserID,
		AuthorizationID: &session.AuthorizationID,
		Details:         details,
	})
	if s.metrics != nil {
		s.metrics.RecordRevocation(string(reason))
	}
}
