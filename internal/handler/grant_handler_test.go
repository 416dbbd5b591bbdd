package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/idp-session-api/internal/dto"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
)

type rotationServiceMock struct {
	resp *dto.RotateResponse
	err  error
}

func (m *rotationServiceMock) Rotate(ctx context.Context, authorizationID string, req dto.RotateRequest) (*dto.RotateResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

type claimsProviderMock struct {
	resp *dto.ClaimsResponse
	err  error
}

func (m *claimsProviderMock) GetClaims(ctx context.Context, authorizationID string) (*dto.ClaimsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func newGrantContext(t *testing.T, method, path string, payload interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, body)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func TestGrantHandlerRotate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rotation := &rotationServiceMock{resp: &dto.RotateResponse{
		RefreshToken:  "next-secret",
		SlidingExpiry: time.Now().Add(24 * time.Hour),
	}}
	h := NewGrantHandler(&sessionServiceMock{}, rotation, &revocationServiceMock{}, &claimsProviderMock{})

	c, w := newGrantContext(t, http.MethodPost, "/internal/v1/sessions/auth-1/rotate", dto.RotateRequest{RefreshToken: "current"})
	c.Params = gin.Params{{Key: "authorizationId", Value: "auth-1"}}

	h.Rotate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "next-secret")
}

func TestGrantHandlerRotateMissingToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewGrantHandler(&sessionServiceMock{}, &rotationServiceMock{}, &revocationServiceMock{}, &claimsProviderMock{})

	c, w := newGrantContext(t, http.MethodPost, "/internal/v1/sessions/auth-1/rotate", map[string]string{})
	c.Params = gin.Params{{Key: "authorizationId", Value: "auth-1"}}

	h.Rotate(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGrantHandlerRotateReuseDetected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rotation := &rotationServiceMock{err: appErrors.ErrReuseDetected}
	h := NewGrantHandler(&sessionServiceMock{}, rotation, &revocationServiceMock{}, &claimsProviderMock{})

	c, w := newGrantContext(t, http.MethodPost, "/internal/v1/sessions/auth-1/rotate", dto.RotateRequest{RefreshToken: "stolen"})
	c.Params = gin.Params{{Key: "authorizationId", Value: "auth-1"}}

	h.Rotate(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "REUSE_DETECTED")
}

func TestGrantHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &sessionServiceMock{createResp: &dto.CreateSessionResponse{
		SessionID:       "s1",
		AuthorizationID: "auth-1",
	}}
	h := NewGrantHandler(sessions, &rotationServiceMock{}, &revocationServiceMock{}, &claimsProviderMock{})

	c, w := newGrantContext(t, http.MethodPost, "/internal/v1/sessions", dto.CreateSessionRequest{
		UserID:          "u1",
		AuthorizationID: "auth-1",
		ClientID:        "web",
		RoleID:          "role-1",
		RefreshToken:    "initial",
	})

	h.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "auth-1")
}

func TestGrantHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewGrantHandler(&sessionServiceMock{}, &rotationServiceMock{}, &revocationServiceMock{}, &claimsProviderMock{})

	c, w := newGrantContext(t, http.MethodPost, "/internal/v1/sessions", map[string]string{"userId": "u1"})

	h.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGrantHandlerClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	claims := &claimsProviderMock{resp: &dto.ClaimsResponse{
		UserID:      "u1",
		RoleName:    "auditor",
		Permissions: []string{"sessions:read"},
	}}
	h := NewGrantHandler(&sessionServiceMock{}, &rotationServiceMock{}, &revocationServiceMock{}, claims)

	c, w := newGrantContext(t, http.MethodGet, "/internal/v1/sessions/auth-1/claims", nil)
	c.Params = gin.Params{{Key: "authorizationId", Value: "auth-1"}}

	h.Claims(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "auditor")
}

func TestGrantHandlerSwitchRoleConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := &sessionServiceMock{switchErr: appErrors.ErrRoleSwitchConflict}
	h := NewGrantHandler(sessions, &rotationServiceMock{}, &revocationServiceMock{}, &claimsProviderMock{})

	c, w := newGrantContext(t, http.MethodPost, "/internal/v1/sessions/auth-1/role", dto.RoleSwitchRequest{RoleID: "role-2"})
	c.Params = gin.Params{{Key: "authorizationId", Value: "auth-1"}}

	h.SwitchRole(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ROLE_SWITCH_CONFLICT")
}

func TestGrantHandlerRevokePerson(t *testing.T) {
	gin.SetMode(gin.TestMode)
	revocation := &revocationServiceMock{cascadeResp: &dto.RevokeForPersonResponse{
		AccountsVisited: 2,
		SessionsRevoked: 3,
	}}
	h := NewGrantHandler(&sessionServiceMock{}, &rotationServiceMock{}, revocation, &claimsProviderMock{})

	c, w := newGrantContext(t, http.MethodPost, "/internal/v1/persons/p1/revoke", nil)
	c.Params = gin.Params{{Key: "id", Value: "p1"}}

	h.RevokePerson(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"sessionsRevoked":3`)
}
