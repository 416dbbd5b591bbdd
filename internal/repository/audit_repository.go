package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/idp-session-api/internal/models"
)

// AuditRepository persists lifecycle audit events.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores one audit event.
func (r *AuditRepository) Insert(ctx context.Context, event *models.AuditEvent) error {
	const query = `INSERT INTO audit_events (id, event_type, severity, user_id, authorization_id, details, ip_address, user_agent, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		event.ID, event.EventType, event.Severity, event.UserID, event.AuthorizationID,
		event.Details, event.IPAddress, event.UserAgent, event.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns the newest audit events, optionally filtered by user.
func (r *AuditRepository) ListRecent(ctx context.Context, userID string, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events := []models.AuditEvent{}
	if userID != "" {
		const query = `SELECT id, event_type, severity, user_id, authorization_id, details, ip_address, user_agent, created_at FROM audit_events WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
		if err := r.db.SelectContext(ctx, &events, query, userID, limit); err != nil {
			return nil, fmt.Errorf("list audit events by user: %w", err)
		}
		return events, nil
	}
	const query = `SELECT id, event_type, severity, user_id, authorization_id, details, ip_address, user_agent, created_at FROM audit_events ORDER BY created_at DESC LIMIT $1`
	if err := r.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}
