package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idp-session-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func sessionRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "authorization_id", "client_id", "client_name",
		"salt", "current_token_hash", "previous_token_hash", "rotated_at",
		"absolute_expiry", "sliding_expiry", "sliding_extensions",
		"active_role_id", "last_role_switch_at", "created_at", "last_activity_at",
		"revoked_at", "revocation_reason", "reuse_detected_at",
		"device_info", "ip_address", "user_agent",
	}).AddRow(
		"s1", "u1", "auth-1", "web", "Web App",
		"salt", "hash-current", nil, nil,
		now.Add(720*time.Hour), now.Add(24*time.Hour), 0,
		"role-1", nil, now, now,
		nil, nil, nil,
		"", "10.0.0.1", "agent",
	)
}

func TestFindByAuthorizationID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sessionColumns + ` FROM sessions WHERE authorization_id = $1 LIMIT 1`)).
		WithArgs("auth-1").
		WillReturnRows(sessionRows(now))

	session, err := repo.FindByAuthorizationID(context.Background(), "auth-1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, "hash-current", session.CurrentTokenHash)
	assert.Nil(t, session.RotatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByAuthorizationIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sessionColumns + ` FROM sessions WHERE authorization_id = $1 LIMIT 1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByAuthorizationID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSession(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO sessions").WillReturnResult(sqlmock.NewResult(1, 1))

	now := time.Now()
	err := repo.Create(context.Background(), &models.Session{
		ID:               "s1",
		UserID:           "u1",
		AuthorizationID:  "auth-1",
		ClientID:         "web",
		Salt:             "salt",
		CurrentTokenHash: "hash",
		AbsoluteExpiry:   now.Add(720 * time.Hour),
		SlidingExpiry:    now.Add(24 * time.Hour),
		ActiveRoleID:     "role-1",
		CreatedAt:        now,
		LastActivityAt:   now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateWinsWhenHashMatches(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectExec("UPDATE sessions SET previous_token_hash = current_token_hash").
		WithArgs("s1", "hash-current", "hash-next", now, now.Add(24*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.Rotate(context.Background(), "s1", "hash-current", "hash-next", now, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRotateLosesWhenHashMoved(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectExec("UPDATE sessions SET previous_token_hash = current_token_hash").
		WithArgs("s1", "hash-stale", "hash-next", now, now.Add(24*time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Rotate(context.Background(), "s1", "hash-stale", "hash-next", now, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectExec("UPDATE sessions SET revoked_at").
		WithArgs("s1", models.ReasonAdminRevoke, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.Revoke(context.Background(), "s1", models.ReasonAdminRevoke, now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateActiveRoleRejectedAfterFirstUse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectExec("UPDATE sessions SET active_role_id").
		WithArgs("s1", "role-2", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateActiveRole(context.Background(), "s1", "role-2", now)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveByUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + sessionColumns + ` FROM sessions WHERE user_id = $1 AND revoked_at IS NULL ORDER BY created_at DESC`)).
		WithArgs("u1").
		WillReturnRows(sessionRows(now))

	sessions, err := repo.ListActiveByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "auth-1", sessions[0].AuthorizationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
