package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/noah-isme/idp-session-api/internal/dto"
	"github.com/noah-isme/idp-session-api/internal/models"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
)

type claimsSessionRepository interface {
	FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Session, error)
}

type claimsRoleDirectory interface {
	FindRole(ctx context.Context, id string) (*models.Role, error)
}

type claimsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ClaimsConfig defines token validation and caching parameters.
type ClaimsConfig struct {
	Secret             string
	Issuer             string
	Audience           []string
	PermissionCacheTTL time.Duration
}

type cachedRole struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// ClaimsService assembles the claim set for an active session and
// validates access tokens presented on the admin surface. A session carries
// exactly one active role; claims never merge permissions across roles.
type ClaimsService struct {
	sessions claimsSessionRepository
	roles    claimsRoleDirectory
	cache    claimsCache
	metrics  *MetricsService
	logger   *zap.Logger
	config   ClaimsConfig
	now      func() time.Time
}

// NewClaimsService constructs a ClaimsService instance.
func NewClaimsService(sessions claimsSessionRepository, roles claimsRoleDirectory, cache claimsCache, metrics *MetricsService, logger *zap.Logger, config ClaimsConfig) *ClaimsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimsService{
		sessions: sessions,
		roles:    roles,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		config:   config,
		now:      time.Now,
	}
}

// GetClaims builds the claim set the OAuth engine embeds into access
// tokens for the given grant.
func (s *ClaimsService) GetClaims(ctx context.Context, authorizationID string) (*dto.ClaimsResponse, error) {
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
		return nil, appErrors.Clone(appErrors.ErrSessionExpired, "session has expired")
	}

	role, err := s.resolveRole(ctx, session.ActiveRoleID)
	if err != nil {
		return nil, err
	}

	return &dto.ClaimsResponse{
		UserID:          session.UserID,
		AuthorizationID: session.AuthorizationID,
		RoleID:          session.ActiveRoleID,
		RoleName:        role.Name,
		Permissions:     role.Permissions,
		SessionID:       session.ID,
	}, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *ClaimsService) ValidateToken(tokenString string) (*models.AccessClaims, error) {
	opts := []jwt.ParserOption{jwt.WithIssuer(s.config.Issuer)}
	for _, aud := range s.config.Audience {
		opts = append(opts, jwt.WithAudience(aud))
	}
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, opts...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

func (s *ClaimsService) resolveRole(ctx context.Context, roleID string) (*cachedRole, error) {
	key := "roleperm:" + roleID

	if s.cache != nil {
		var cached cachedRole
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return &cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("role cache read failed", zap.String("role_id", roleID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	role, err := s.roles.FindRole(ctx, roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown role")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role")
	}

	resolved := &cachedRole{Name: role.Name, Permissions: []string(role.Permissions)}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, resolved, s.config.PermissionCacheTTL); err != nil {
			s.logger.Warn("role cache write failed", zap.String("role_id", roleID), zap.Error(err))
		}
	}
	return resolved, nil
}
