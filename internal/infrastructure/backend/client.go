// Package backend is the HTTP client of the Sinergy REST API. Every call
// returns either its decoded payload or a *domain.BackendError saying whether
// the API was unreachable, answered non-OK, or answered something unreadable.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/metrics"
	"github.com/sinergy/sinergy-web/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 4 << 20
)

// Client implements the ports.AuthAPI, ports.ProfileAPI, ports.PermissionAPI
// and ports.ChatAPI interfaces over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        log.With().Str("component", "backend").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── Auth ──────────────────────────────────────────────────────────────────────

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	ID       apiID  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	FullName string `json:"fullname"`
	Error    string `json:"error"`
}

// Login authenticates against POST /login. An {error} body is reported as a
// status error wrapping domain.ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Identity, error) {
	const op = "login"

	var out loginResponse
	status, err := c.do(ctx, op, http.MethodPost, "/login", nil, loginRequest{Username: username, Password: password}, &out)
	if err != nil {
		var be *domain.BackendError
		if errors.As(err, &be) && be.Kind == domain.KindStatus && be.Detail != "" {
			be.Err = domain.ErrInvalidCredentials
		}
		return domain.Identity{}, err
	}
	if out.Error != "" {
		return domain.Identity{}, &domain.BackendError{
			Op: op, Kind: domain.KindStatus, Status: status, Detail: out.Error, Err: domain.ErrInvalidCredentials,
		}
	}

	return domain.Identity{
		Username: out.Username,
		UserID:   string(out.ID),
		Role:     out.Role,
		FullName: out.FullName,
	}, nil
}

// ── Profile & permissions ─────────────────────────────────────────────────────

type profileResponse struct {
	ID       apiID  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
}

// GetProfile loads GET /users/{username}.
func (c *Client) GetProfile(ctx context.Context, username string) (domain.Profile, error) {
	var out profileResponse
	if _, err := c.do(ctx, "profile", http.MethodGet, "/users/"+url.PathEscape(username), nil, nil, &out); err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		ID:       string(out.ID),
		Username: out.Username,
		FullName: out.FullName,
		Email:    out.Email,
		Avatar:   out.Avatar,
		Role:     out.Role,
	}, nil
}

// GetPermissions loads GET /permissoes/{userId}, an array of module names.
func (c *Client) GetPermissions(ctx context.Context, userID string) ([]string, error) {
	var out []string
	if _, err := c.do(ctx, "permissions", http.MethodGet, "/permissoes/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ── Chat ──────────────────────────────────────────────────────────────────────

type heartbeatRequest struct {
	UserID string `json:"usuarioID"`
}

// Heartbeat posts POST /chat/heartbeat. The acknowledgement body is ignored.
func (c *Client) Heartbeat(ctx context.Context, userID string) error {
	_, err := c.do(ctx, "heartbeat", http.MethodPost, "/chat/heartbeat", nil, heartbeatRequest{UserID: userID}, nil)
	return err
}

type rosterItem struct {
	ID           apiID   `json:"id"`
	UserID       apiID   `json:"usuarioID"`
	Name         string  `json:"nome"`
	Online       bool    `json:"online"`
	LastActivity apiTime `json:"ultimaAtividade"`
	Unread       int     `json:"naoLidas"`
}

// Roster loads GET /chat/usuarios?meuID=.
func (c *Client) Roster(ctx context.Context, myID string) ([]domain.RosterEntry, error) {
	var out []rosterItem
	q := url.Values{"meuID": {myID}}
	if _, err := c.do(ctx, "roster", http.MethodGet, "/chat/usuarios", q, nil, &out); err != nil {
		return nil, err
	}

	entries := make([]domain.RosterEntry, 0, len(out))
	for _, it := range out {
		id := it.ID
		if id == "" {
			id = it.UserID
		}
		entries = append(entries, domain.RosterEntry{
			UserID:       string(id),
			Name:         it.Name,
			Online:       it.Online,
			LastActivity: time.Time(it.LastActivity),
			Unread:       it.Unread,
		})
	}
	return entries, nil
}

type messageItem struct {
	SenderID    apiID   `json:"remetenteID"`
	RecipientID apiID   `json:"destinatarioID"`
	Text        string  `json:"mensagem"`
	SentAt      apiTime `json:"dataEnvio"`
	Read        bool    `json:"lida"`
}

// Messages loads GET /chat/mensagens?meuID=&usuarioID=.
func (c *Client) Messages(ctx context.Context, myID, partnerID string) ([]domain.Message, error) {
	var out []messageItem
	q := url.Values{"meuID": {myID}, "usuarioID": {partnerID}}
	if _, err := c.do(ctx, "messages", http.MethodGet, "/chat/mensagens", q, nil, &out); err != nil {
		return nil, err
	}

	msgs := make([]domain.Message, 0, len(out))
	for _, m := range out {
		msgs = append(msgs, domain.Message{
			SenderID:    string(m.SenderID),
			RecipientID: string(m.RecipientID),
			Text:        m.Text,
			SentAt:      time.Time(m.SentAt),
			Read:        m.Read,
		})
	}
	return msgs, nil
}

type sendRequest struct {
	SenderID    string `json:"RemetenteID"`
	RecipientID string `json:"DestinatarioID"`
	Text        string `json:"Mensagem"`
}

// Send posts POST /chat/enviar.
func (c *Client) Send(ctx context.Context, senderID, recipientID, text string) error {
	body := sendRequest{SenderID: senderID, RecipientID: recipientID, Text: text}
	_, err := c.do(ctx, "send", http.MethodPost, "/chat/enviar", nil, body, nil)
	return err
}

// ── Transport ─────────────────────────────────────────────────────────────────

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do performs one request and decodes a 2xx body into out (when non-nil).
// It returns the response status, and a *domain.BackendError on failure.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (int, error) {
	start := time.Now()
	status, err := c.roundTrip(ctx, op, method, path, query, in, out)

	result := "ok"
	if err != nil {
		result = string(domain.BackendKind(err))
		if result == "" {
			result = "error"
		}
		c.log.Debug().Err(err).Str("op", op).Int("status", status).Msg("sinergy api call failed")
	}
	metrics.BackendRequestsTotal.WithLabelValues(op, result).Inc()
	metrics.BackendRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	return status, err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, in, out any) (int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, &domain.BackendError{Op: op, Kind: domain.KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, &domain.BackendError{Op: op, Kind: domain.KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, &domain.BackendError{Op: op, Kind: domain.KindNetwork, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		detail := eb.Error
		if detail == "" {
			detail = eb.Message
		}
		return resp.StatusCode, &domain.BackendError{Op: op, Kind: domain.KindStatus, Status: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, &domain.BackendError{Op: op, Kind: domain.KindDecode, Status: resp.StatusCode, Err: err}
	}
	return resp.StatusCode, nil
}
