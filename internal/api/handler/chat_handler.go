package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/metrics"
	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// ChatHandler proxies the chat widget to the Sinergy API. The caller is
// always the identity from the session, never a field of the request.
type ChatHandler struct {
	api ports.ChatAPI
	log zerolog.Logger
}

func NewChatHandler(api ports.ChatAPI, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{api: api, log: log}
}

type sendMessageRequest struct {
	RecipientID string `json:"destinatarioID" validate:"notblank,max=64"`
	Text        string `json:"mensagem" validate:"notblank,max=4000"`
}

// Heartbeat marks the caller online.
//
// @Summary      Presence heartbeat
// @Tags         chat
// @Produce      json
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/chat/heartbeat [post]
func (h *ChatHandler) Heartbeat(c echo.Context) error {
	const op = "heartbeat"
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	if err := h.api.Heartbeat(c.Request().Context(), id.UserID); err != nil {
		return h.backendFailure(c, op, err)
	}
	return h.respond(c, op, http.StatusNoContent, nil)
}

// Roster lists users with their presence and unread counts.
//
// @Summary      Chat roster
// @Tags         chat
// @Produce      json
// @Success      200  {array}   domain.RosterEntry
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/chat/usuarios [get]
func (h *ChatHandler) Roster(c echo.Context) error {
	const op = "roster"
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.api.Roster(c.Request().Context(), id.UserID)
	if err != nil {
		return h.backendFailure(c, op, err)
	}
	if entries == nil {
		entries = []domain.RosterEntry{}
	}
	return h.respond(c, op, http.StatusOK, entries)
}

// Messages returns the conversation with usuarioID, oldest first.
//
// @Summary      Conversation
// @Tags         chat
// @Produce      json
// @Param        usuarioID  query     string  true  "Conversation partner"
// @Success      200        {array}   domain.Message
// @Failure      400        {object}  map[string]string
// @Failure      401        {object}  map[string]string
// @Failure      502        {object}  map[string]string
// @Router       /api/chat/mensagens [get]
func (h *ChatHandler) Messages(c echo.Context) error {
	const op = "messages"
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	partner := strings.TrimSpace(c.QueryParam("usuarioID"))
	if partner == "" {
		return h.respond(c, op, http.StatusBadRequest, map[string]string{"error": "usuarioID is required"})
	}

	msgs, err := h.api.Messages(c.Request().Context(), id.UserID, partner)
	if err != nil {
		return h.backendFailure(c, op, err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	domain.SortMessages(msgs)
	return h.respond(c, op, http.StatusOK, msgs)
}

// Send posts a message from the caller.
//
// @Summary      Send message
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      sendMessageRequest  true  "Message"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/chat/enviar [post]
func (h *ChatHandler) Send(c echo.Context) error {
	const op = "send"
	id, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return h.respond(c, op, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return h.respond(c, op, http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.api.Send(c.Request().Context(), id.UserID, strings.TrimSpace(req.RecipientID), req.Text); err != nil {
		return h.backendFailure(c, op, err)
	}
	return h.respond(c, op, http.StatusNoContent, nil)
}

func (h *ChatHandler) backendFailure(c echo.Context, op string, err error) error {
	h.log.Warn().
		Err(err).
		Str("op", op).
		Str("kind", string(domain.BackendKind(err))).
		Msg("chat proxy call failed")
	return h.respond(c, op, http.StatusBadGateway, map[string]string{"error": "chat service unavailable"})
}

func (h *ChatHandler) respond(c echo.Context, op string, status int, body any) error {
	metrics.ChatProxyRequestsTotal.WithLabelValues(op, strconv.Itoa(status)).Inc()
	if body == nil {
		return c.NoContent(status)
	}
	return c.JSON(status, body)
}
