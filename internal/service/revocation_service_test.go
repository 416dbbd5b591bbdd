package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idp-session-api/internal/models"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
)

type mockRevocationRepo struct {
	session       *models.Session
	findErr       error
	activeByUser  map[string][]models.Session
	listErrFor    string
	revokeErrFor  string
	revokedIDs    []string
	revokedReason []models.RevocationReason
}

func (m *mockRevocationRepo) FindByAuthorizationID(ctx context.Context, authorizationID string) (*models.Session, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.session, nil
}

func (m *mockRevocationRepo) Revoke(ctx context.Context, sessionID string, reason models.RevocationReason, at time.Time) (bool, error) {
	if sessionID == m.revokeErrFor {
		return false, errors.New("db down")
	}
	m.revokedIDs = append(m.revokedIDs, sessionID)
	m.revokedReason = append(m.revokedReason, reason)
	return true, nil
}

func (m *mockRevocationRepo) ListActiveByUser(ctx context.Context, userID string) ([]models.Session, error) {
	if userID == m.listErrFor {
		return nil, errors.New("db down")
	}
	return m.activeByUser[userID], nil
}

func TestRevokeSessionChecksOwnership(t *testing.T) {
	repo := &mockRevocationRepo{
		session: &models.Session{ID: "s1", UserID: "u1", AuthorizationID: "auth-1"},
	}
	svc := NewRevocationService(repo, &mockDirectory{}, &mockAudit{}, nil, nil)

	err := svc.RevokeSession(context.Background(), "u2", "auth-1", models.ReasonAdminRevoke)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotOwner))
	assert.Empty(t, repo.revokedIDs)
}

func TestRevokeSessionEmitsAudit(t *testing.T) {
	repo := &mockRevocationRepo{
		session: &models.Session{ID: "s1", UserID: "u1", AuthorizationID: "auth-1"},
	}
	audit := &mockAudit{}
	svc := NewRevocationService(repo, &mockDirectory{}, audit, nil, nil)

	err := svc.RevokeSession(context.Background(), "u1", "auth-1", models.ReasonUserLogout)
	require.NoError(t, err)
	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditSessionRevoked, audit.events[0].EventType)
}

func TestRevokeSessionUnknownAuthorization(t *testing.T) {
	repo := &mockRevocationRepo{findErr: sql.ErrNoRows}
	svc := NewRevocationService(repo, &mockDirectory{}, &mockAudit{}, nil, nil)

	err := svc.RevokeSession(context.Background(), "", "missing", models.ReasonAdminRevoke)
	assert.True(t, appErrors.Is(err, appErrors.ErrSessionNotFound))
}

func TestRevokeAllForUser(t *testing.T) {
	repo := &mockRevocationRepo{
		activeByUser: map[string][]models.Session{
			"u1": {
				{ID: "s1", UserID: "u1", AuthorizationID: "auth-1"},
				{ID: "s2", UserID: "u1", AuthorizationID: "auth-2"},
			},
		},
	}
	svc := NewRevocationService(repo, &mockDirectory{}, &mockAudit{}, nil, nil)

	count, err := svc.RevokeAllForUser(context.Background(), "u1", models.ReasonAdminRevoke)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRevokeAllForPersonCascades(t *testing.T) {
	dir := &mockDirectory{
		person: &models.Person{ID: "p1", Status: models.PersonTerminated},
		accounts: []models.Account{
			{ID: "u1", PersonID: "p1", Active: true},
			{ID: "u2", PersonID: "p1", Active: false},
		},
	}
	repo := &mockRevocationRepo{
		activeByUser: map[string][]models.Session{
			"u1": {{ID: "s1", UserID: "u1", AuthorizationID: "auth-1"}},
			"u2": {{ID: "s2", UserID: "u2", AuthorizationID: "auth-2"}},
		},
	}
	audit := &mockAudit{}
	svc := NewRevocationService(repo, dir, audit, nil, nil)

	result, err := svc.RevokeAllForPerson(context.Background(), "p1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, result.AccountsVisited)
	assert.Equal(t, 2, result.SessionsRevoked)
	assert.Equal(t, 0, result.Failures)
	assert.Equal(t, models.ReasonPersonTerminated, repo.revokedReason[0])
	assert.Len(t, audit.events, 2)
}

func TestRevokeAllForPersonContinuesPastFailures(t *testing.T) {
	dir := &mockDirectory{
		person: &models.Person{ID: "p1", Status: models.PersonActive},
		accounts: []models.Account{
			{ID: "u1", PersonID: "p1"},
			{ID: "u2", PersonID: "p1"},
			{ID: "u3", PersonID: "p1"},
		},
	}
	repo := &mockRevocationRepo{
		listErrFor:   "u2",
		revokeErrFor: "s1",
		activeByUser: map[string][]models.Session{
			"u1": {{ID: "s1", UserID: "u1", AuthorizationID: "auth-1"}},
			"u3": {{ID: "s3", UserID: "u3", AuthorizationID: "auth-3"}},
		},
	}
	svc := NewRevocationService(repo, dir, &mockAudit{}, nil, nil)

	result, err := svc.RevokeAllForPerson(context.Background(), "p1", models.ReasonAdminRevoke)
	require.NoError(t, err)
	assert.Equal(t, 3, result.AccountsVisited)
	assert.Equal(t, 1, result.SessionsRevoked)
	assert.Equal(t, 2, result.Failures)
}

func TestRevokeAllForPersonUnknownPerson(t *testing.T) {
	dir := &mockDirectory{personErr: sql.ErrNoRows}
	svc := NewRevocationService(&mockRevocationRepo{}, dir, &mockAudit{}, nil, nil)

	_, err := svc.RevokeAllForPerson(context.Background(), "missing", "")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
