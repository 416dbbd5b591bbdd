package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/dto"
	"github.com/noah-isme/idp-session-api/internal/models"
	"github.com/noah-isme/idp-session-api/pkg/response"
)

type sessionService interface {
	Create(ctx context.Context, req dto.CreateSessionRequest) (*dto.CreateSessionResponse, error)
	ListByUser(ctx context.Context, userID string) ([]dto.SessionSummary, error)
	SwitchRole(ctx context.Context, authorizationID, roleID string) error
}

type revocationService interface {
	RevokeSession(ctx context.Context, ownerID, authorizationID string, reason models.RevocationReason) error
	RevokeAllForUser(ctx context.Context, userID string, reason models.RevocationReason) (int, error)
	RevokeAllForPerson(ctx context.Context, personID string, reason models.RevocationReason) (*dto.RevokeForPersonResponse, error)
}

// SessionHandler serves the admin and self-service session surface.
type SessionHandler struct {
	sessions   sessionService
	revocation revocationService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions sessionService, revocation revocationService) *SessionHandler {
	return &SessionHandler{sessions: sessions, revocation: revocation}
}

// List godoc
// @Summary List sessions
// @Description List every session recorded for a user
// @Tags Sessions
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{id}/sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	userID := c.Param("id")

	summaries, err := h.sessions.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summaries)
}

// Revoke godoc
// @Summary Revoke one session
// @Description Terminate a single session identified by its authorization id
// @Tags Sessions
// @Produce json
// @Param id path string true "User ID"
// @Param authorizationId path string true "Authorization ID"
// @Success 204 {object} nil
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /users/{id}/sessions/{authorizationId} [delete]
func (h *SessionHandler) Revoke(c *gin.Context) {
	userID := c.Param("id")
	authorizationID := c.Param("authorizationId")

	reason := models.ReasonUserLogout
	if claims := claimsFromContext(c); claims != nil && claims.Admin && claims.UserID != userID {
		reason = models.ReasonAdminRevoke
	}

	if err := h.revocation.RevokeSession(c.Request.Context(), userID, authorizationID, reason); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// RevokeAll godoc
// @Summary Revoke all sessions
// @Description Terminate every active session of a user
// @Tags Sessions
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users/{id}/sessions [delete]
func (h *SessionHandler) RevokeAll(c *gin.Context) {
	userID := c.Param("id")

	reason := models.ReasonUserLogout
	if claims := claimsFromContext(c); claims != nil && claims.Admin && claims.UserID != userID {
		reason = models.ReasonAdminRevoke
	}

	count, err := h.revocation.RevokeAllForUser(c.Request.Context(), userID, reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"revoked": count})
}
