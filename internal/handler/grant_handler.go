package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/dto"
	appErrors "github.com/noah-isme/idp-session-api/pkg/errors"
	"github.com/noah-isme/idp-session-api/pkg/response"
)

type rotationService interface {
	Rotate(ctx context.Context, authorizationID string, req dto.RotateRequest) (*dto.RotateResponse, error)
}

type claimsProvider interface {
	GetClaims(ctx context.Context, authorizationID string) (*dto.ClaimsResponse, error)
}

// GrantHandler serves the service-to-service surface the OAuth engine
// calls during grant issuance, refresh and termination.
type GrantHandler struct {
	sessions   sessionService
	rotation   rotationService
	revocation revocationService
	claims     claimsProvider
}

// NewGrantHandler creates a new grant handler.
func NewGrantHandler(sessions sessionService, rotation rotationService, revocation revocationService, claims claimsProvider) *GrantHandler {
	return &GrantHandler{sessions: sessions, rotation: rotation, revocation: revocation, claims: claims}
}

// Create godoc
// @Summary Register session
// @Description Register a shadow session for a freshly issued grant
// @Tags Grants
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /internal/v1/sessions [post]
func (h *GrantHandler) Create(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}
	if req.UserAgent == "" {
		req.UserAgent = c.GetHeader("User-Agent")
	}

	resp, err := h.sessions.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resp)
}

// Rotate godoc
// @Summary Rotate refresh token
// @Description Present a refresh secret and receive the next one
// @Tags Grants
// @Accept json
// @Produce json
// @Param authorizationId path string true "Authorization ID"
// @Param payload body dto.RotateRequest true "Rotation payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /internal/v1/sessions/{authorizationId}/rotate [post]
func (h *GrantHandler) Rotate(c *gin.Context) {
	authorizationID := c.Param("authorizationId")

	var req dto.RotateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}
	if req.UserAgent == "" {
		req.UserAgent = c.GetHeader("User-Agent")
	}

	resp, err := h.rotation.Rotate(c.Request.Context(), authorizationID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, resp)
}

// SwitchRole godoc
// @Summary Switch session role
// @Description Rebind an unused session to a different role
// @Tags Grants
// @Accept json
// @Produce json
// @Param authorizationId path string true "Authorization ID"
// @Param payload body dto.RoleSwitchRequest true "Role switch payload"
// @Success 204 {object} nil
// @Failure 409 {object} response.Envelope
// @Router /internal/v1/sessions/{authorizationId}/role [post]
func (h *GrantHandler) SwitchRole(c *gin.Context) {
	authorizationID := c.Param("authorizationId")

	var req dto.RoleSwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if err := h.sessions.SwitchRole(c.Request.Context(), authorizationID, req.RoleID); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Claims godoc
// @Summary Get session claims
// @Description Assemble the claim set for an active session
// @Tags Grants
// @Produce json
// @Param authorizationId path string true "Authorization ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /internal/v1/sessions/{authorizationId}/claims [get]
func (h *GrantHandler) Claims(c *gin.Context) {
	authorizationID := c.Param("authorizationId")

	claims, err := h.claims.GetClaims(c.Request.Context(), authorizationID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, claims)
}

// RevokePerson godoc
// @Summary Revoke all sessions of a person
// @Description Cascade a person-level termination across every owned account
// @Tags Grants
// @Accept json
// @Produce json
// @Param id path string true "Person ID"
// @Param payload body dto.RevokeForPersonRequest false "Revocation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /internal/v1/persons/{id}/revoke [post]
func (h *GrantHandler) RevokePerson(c *gin.Context) {
	personID := c.Param("id")

	var req dto.RevokeForPersonRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	result, err := h.revocation.RevokeAllForPerson(c.Request.Context(), personID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result)
}
