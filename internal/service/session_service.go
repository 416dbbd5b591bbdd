package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/idp-session-api/internal/dto"
	"github.com/noah-isme/idp-session-api/internal/models"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
	"github.com/noah-isme/idp-session-api/pkg/token"
)

type sessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Session, error)
	ListByUser(ctx context.Context, userID string) ([]models.Session, error)
	UpdateActiveRole(ctx context.Context, sessionID, roleID string, at time.Time) (bool, error)
}

type roleDirectory interface {
	FindRole(ctx context.Context, id string) (*models.Role, error)
	FindAccount(ctx context.Context, id string) (*models.Account, error)
}

// SessionConfig defines lifetime parameters for new sessions.
type SessionConfig struct {
	AbsoluteTTL   time.Duration
	SlidingWindow time.Duration
}

// SessionService manages shadow session records: registration when the
// OAuth engine issues a grant, admin listing, and pre-use role switching.
type SessionService struct {
	sessions  sessionRepository
	accounts  roleDirectory
	validator *validator.Validate
	logger    *zap.Logger
	config    SessionConfig
	now       func() time.Time
}

// NewSessionService constructs a SessionService instance.
func NewSessionService(sessions sessionRepository, accounts roleDirectory, logger *zap.Logger, config SessionConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:  sessions,
		accounts:  accounts,
		validator: validator.New(),
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Create registers a shadow session for a freshly issued grant. The initial
// refresh secret is hashed with a per-session salt; the raw value is never
// stored.
func (s *SessionService) Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	account, err := s.accounts.FindAccount(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load account")
	}
	if !account.Active {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is inactive")
	}

	if _, err := s.accounts.FindRole(ctx, req.RoleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown role")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	salt, err := token.NewSalt()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate salt")
	}

	now := s.now()
	session := &models.Session{
		ID:               uuid.NewString(),
		UserID:           req.UserID,
		AuthorizationID:  req.AuthorizationID,
		ClientID:         req.ClientID,
		ClientName:       req.ClientName,
		Salt:             salt,
		CurrentTokenHash: token.Hash(req.RefreshToken, salt),
		AbsoluteExpiry:   now.Add(s.config.AbsoluteTTL),
		SlidingExpiry:    minTime(now.Add(s.config.SlidingWindow), now.Add(s.config.AbsoluteTTL)),
		ActiveRoleID:     req.RoleID,
		CreatedAt:        now,
		LastActivityAt:   now,
		DeviceInfo:       req.DeviceInfo,
		IPAddress:        req.IPAddress,
		UserAgent:        req.UserAgent,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	return &dto.CreateSessionResponse{
		SessionID:       session.ID,
		AuthorizationID: session.AuthorizationID,
		AbsoluteExpiry:  session.AbsoluteExpiry,
		SlidingExpiry:   session.SlidingExpiry,
	}, nil
}

// ListByUser returns admin-facing summaries of a user's sessions.
func (s *SessionService) ListByUser(ctx context.Context, userID string) ([]dto.SessionSummary, error) {
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}

	now := s.now()
	summaries := make([]dto.SessionSummary, 0, len(sessions))
	for i := range sessions {
		summaries = append(summaries, toSummary(&sessions[i], now))
	}
	return summaries, nil
}

// SwitchRole rebinds an unused session to another role. After the first
// rotation the binding is immutable and callers get a conflict.
func (s *SessionService) SwitchRole(ctx context.Context, authorizationID, roleID string) error {
	session, err := s.sessions.FindByAuthorizationID(ctx, authorizationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrSessionNotFound, "unknown authorization")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.Revoked() {
		return appErrors.Clone(appErrors.ErrSessionRevoked, "session has been revoked")
	}

	if _, err := s.accounts.FindRole(ctx, roleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "unknown role")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	ok, err := s.sessions.UpdateActiveRole(ctx, session.ID, roleID, s.now())
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to switch role")
	}
	if !ok {
		return appErrors.Clone(appErrors.ErrRoleSwitchConflict, "session already used; start a new grant to change role")
	}
	return nil
}

func toSummary(session *models.Session, now time.Time) dto.SessionSummary {
	summary := dto.SessionSummary{
		SessionID:         session.ID,
		AuthorizationID:   session.AuthorizationID,
		ClientID:          session.ClientID,
		ClientName:        session.ClientName,
		Status:            session.Status(now),
		ActiveRoleID:      session.ActiveRoleID,
		CreatedAt:         session.CreatedAt,
		LastActivityAt:    session.LastActivityAt,
		AbsoluteExpiry:    session.AbsoluteExpiry,
		SlidingExpiry:     session.SlidingExpiry,
		SlidingExtensions: session.SlidingExtensions,
		RevokedAt:         session.RevokedAt,
		DeviceInfo:        session.DeviceInfo,
		IPAddress:         session.IPAddress,
	}
	if session.RevocationReason != nil {
		reason := string(*session.RevocationReason)
		summary.RevocationReason = &reason
	}
	return summary
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
