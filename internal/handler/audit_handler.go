package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/idp-session-api/internal/models"
	"github.com/noah-isme/idp-session-api/pkg/response"
)

type auditReader interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]models.AuditEvent, error)
}

// AuditHandler exposes recent lifecycle audit events to admins.
type AuditHandler struct {
	audit auditReader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(audit auditReader) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List godoc
// @Summary List audit events
// @Description List recent session lifecycle audit events
// @Tags Audit
// @Produce json
// @Param userId query string false "Filter by user ID"
// @Param limit query int false "Maximum number of events"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /audit-events [get]
func (h *AuditHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	events, err := h.audit.ListRecent(c.Request.Context(), c.Query("userId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, events)
}
