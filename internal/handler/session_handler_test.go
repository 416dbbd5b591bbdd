package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idp-session-api/internal/dto"
	"github.com/noah-isme/idp-session-api/internal/middleware"
	"github.com/noah-isme/idp-session-api/internal/models"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
)

type sessionServiceMock struct {
	summaries  []dto.SessionSummary
	createResp *dto.CreateSessionResponse
	createErr  error
	switchErr  error
}

func (m *sessionServiceMock) Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.createResp, nil
}

func (m *sessionServiceMock) ListByUser(ctx context.Context, userID string) ([]dto.SessionSummary, error) {
	return m.summaries, nil
}

func (m *sessionServiceMock) SwitchRole(ctx context.Context, authorizationID, roleID string) error {
	return m.switchErr
}

type revocationServiceMock struct {
	revokeErr   error
	lastOwner   string
	lastReason  models.RevocationReason
	revokedAll  int
	cascadeResp *dto.RevokeForPersonResponse
	cascadeErr  error
}

func (m *revocationServiceMock) RevokeSession(ctx context.Context, ownerID, authorizationID string, reason models.RevocationReason) error {
	m.lastOwner = ownerID
	m.lastReason = reason
	return m.revokeErr
}

func (m *revocationServiceMock) RevokeAllForUser(ctx context.Context, userID string, reason models.RevocationReason) (int, error) {
	m.lastReason = reason
	return m.revokedAll, nil
}

func (m *revocationServiceMock) RevokeAllForPerson(ctx context.Context, personID string, reason models.RevocationReason) (*dto.RevokeForPersonResponse, error) {
	if m.cascadeErr != nil {
		return nil, m.cascadeErr
	}
	return m.cascadeResp, nil
}

func TestSessionHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &sessionServiceMock{summaries: []dto.SessionSummary{
		{SessionID: "s1", AuthorizationID: "auth-1", Status: models.SessionStatusActive, CreatedAt: time.Now()},
	}}
	h := NewSessionHandler(sessions, &revocationServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/users/u1/sessions", nil)
	c.Params = gin.Params{{Key: "id", Value: "u1"}}

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auth-1")
}

func TestSessionHandlerRevokeUsesAdminReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revocation := &revocationServiceMock{}
	h := NewSessionHandler(&sessionServiceMock{}, revocation)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/users/u1/sessions/auth-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "u1"}, {Key: "authorizationId", Value: "auth-1"}}
	c.Set(middleware.ContextUserKey, &models.AccessClaims{UserID: "admin-1", Admin: true})

	h.Revoke(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.ReasonAdminRevoke, revocation.lastReason)
	assert.Equal(t, "u1", revocation.lastOwner)
}

func TestSessionHandlerRevokeSelfUsesLogoutReason(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revocation := &revocationServiceMock{}
	h := NewSessionHandler(&sessionServiceMock{}, revocation)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/users/u1/sessions/auth-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "u1"}, {Key: "authorizationId", Value: "auth-1"}}
	c.Set(middleware.ContextUserKey, &models.AccessClaims{UserID: "u1", Admin: false})

	h.Revoke(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, models.ReasonUserLogout, revocation.lastReason)
}

func TestSessionHandlerRevokeNotOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revocation := &revocationServiceMock{revokeErr: appErrors.ErrNotOwner}
	h := NewSessionHandler(&sessionServiceMock{}, revocation)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/users/u1/sessions/auth-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "u1"}, {Key: "authorizationId", Value: "auth-1"}}

	h.Revoke(c)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_OWNER")
}

func TestSessionHandlerRevokeAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revocation := &revocationServiceMock{revokedAll: 3}
	h := NewSessionHandler(&sessionServiceMock{}, revocation)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodDelete, "/users/u1/sessions", nil)
	c.Params = gin.Params{{Key: "id", Value: "u1"}}

	h.RevokeAll(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"revoked":3`)
}
