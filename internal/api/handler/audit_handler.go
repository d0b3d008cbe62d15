package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/core/ports"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditHandler lists recorded gate decisions for administrators.
type AuditHandler struct {
	repo ports.AccessAuditReader
	log  zerolog.Logger
}

func NewAuditHandler(repo ports.AccessAuditReader, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

type auditEntryResponse struct {
	UserID    string    `json:"userID"`
	Username  string    `json:"username,omitempty"`
	Role      string    `json:"role,omitempty"`
	Page      string    `json:"page"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"requestID,omitempty"`
	At        time.Time `json:"at"`
}

// ListByUser returns the most recent audit entries of a user, newest first.
//
// @Summary      Access audit of a user
// @Tags         audit
// @Produce      json
// @Param        userID  path      string  true   "User ID"
// @Param        limit   query     int     false  "Maximum entries (default 50, max 500)"
// @Success      200     {array}   auditEntryResponse
// @Failure      400     {object}  map[string]string
// @Failure      403     {object}  map[string]string
// @Router       /api/audit/{userID} [get]
func (h *AuditHandler) ListByUser(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("userID"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "userID is required"})
	}

	limit := int64(defaultAuditLimit)
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.repo.RecentByUser(c.Request().Context(), userID, limit)
	if err != nil {
		return err
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			UserID:    e.UserID,
			Username:  e.Username,
			Role:      e.Role,
			Page:      e.Page,
			Outcome:   string(e.Outcome),
			Reason:    string(e.Reason),
			Detail:    e.Detail,
			RequestID: e.RequestID,
			At:        e.At,
		})
	}
	return c.JSON(http.StatusOK, out)
}
