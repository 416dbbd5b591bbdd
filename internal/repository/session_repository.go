package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/idp-session-api/internal/models"
)

const sessionColumns = `id, user_id, authorization_id, client_id, client_name, salt, current_token_hash, previous_token_hash, rotated_at, absolute_expiry, sliding_expiry, sliding_extensions, active_role_id, last_role_switch_at, created_at, last_activity_at, revoked_at, revocation_reason, reuse_detected_at, device_info, ip_address, user_agent`

// SessionRepository provides database access for shadow session records.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new instance of SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new shadow session.
func (r *SessionRepository) Create(ctx context.Context, s *models.Session) error {
	const query = `INSERT INTO sessions (` + sessionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	if _, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.AuthorizationID, s.ClientID, s.ClientName,
		s.Salt, s.CurrentTokenHash, s.PreviousTokenHash, s.RotatedAt,
		s.AbsoluteExpiry, s.SlidingExpiry, s.SlidingExtensions,
		s.ActiveRoleID, s.LastRoleSwitchAt, s.CreatedAt, s.LastActivityAt,
		s.RevokedAt, s.RevocationReason, s.ReuseDetectedAt,
		s.DeviceInfo, s.IPAddress, s.UserAgent,
	); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// FindByAuthorizationID returns the session bound to an authorization grant.
func (r *SessionRepository) FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE authorization_id = $1 LIMIT 1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, authorizationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find session by authorization id: %w", err)
	}
	return &session, nil
}

// Rotate advances the token chain, but only if the stored current hash still
// matches the expected one. Concurrent rotations race on this condition; the
// loser sees zero rows and must re-read the session.
func (r *SessionRepository) Rotate(ctx context.Context, sessionID, expectedHash, newHash string, rotatedAt, slidingExpiry time.Time) (bool, error) {
	const query = `UPDATE sessions SET previous_token_hash = current_token_hash, current_token_hash = $3, rotated_at = $4, sliding_expiry = $5, sliding_extensions = sliding_extensions + 1, last_activity_at = $4 WHERE id = $1 AND current_token_hash = $2 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, sessionID, expectedHash, newHash, rotatedAt, slidingExpiry)
	if err != nil {
		return false, fmt.Errorf("rotate session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rotate session: %w", err)
	}
	return affected == 1, nil
}

// Revoke terminates a session with the given reason. Already revoked
// sessions are left untouched so the first reason wins.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string, reason models.RevocationReason, at time.Time) (bool, error) {
	const query = `UPDATE sessions SET revoked_at = $3, revocation_reason = $2, last_activity_at = $3 WHERE id = $1 AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, sessionID, reason, at)
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke session: %w", err)
	}
	return affected == 1, nil
}

// MarkReuseDetected records a reuse incident and revokes the session in the
// same statement.
func (r *SessionRepository) MarkReuseDetected(ctx context.Context, sessionID string, at time.Time) error {
	const query = `UPDATE sessions SET reuse_detected_at = $2, revoked_at = COALESCE(revoked_at, $2), revocation_reason = COALESCE(revocation_reason, $3), last_activity_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID, at, models.ReasonReuseDetected); err != nil {
		return fmt.Errorf("mark reuse detected: %w", err)
	}
	return nil
}

// UpdateActiveRole rebinds the session to another role. The update only
// applies while the session is unused: once the first rotation has happened
// the role is pinned for the session's lifetime.
func (r *SessionRepository) UpdateActiveRole(ctx context.Context, sessionID, roleID string, at time.Time) (bool, error) {
	const query = `UPDATE sessions SET active_role_id = $2, last_role_switch_at = $3, last_activity_at = $3 WHERE id = $1 AND rotated_at IS NULL AND revoked_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, sessionID, roleID, at)
	if err != nil {
		return false, fmt.Errorf("update active role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update active role: %w", err)
	}
	return affected == 1, nil
}

// ListByUser returns every session recorded for a user, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`
	sessions := []models.Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("list sessions by user: %w", err)
	}
	return sessions, nil
}

// ListActiveByUser returns the sessions a revocation cascade must visit.
func (r *SessionRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.Session, error) {
	const query = `SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1 AND revoked_at IS NULL ORDER BY created_at DESC`
	sessions := []models.Session{}
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("list active sessions by user: %w", err)
	}
	return sessions, nil
}

// TouchActivity bumps last_activity_at without changing rotation state.
func (r *SessionRepository) TouchActivity(ctx context.Context, sessionID string, at time.Time) error {
	const query = `UPDATE sessions SET last_activity_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, sessionID, at); err != nil {
		return fmt.Errorf("touch session activity: %w", err)
	}
	return nil
}
