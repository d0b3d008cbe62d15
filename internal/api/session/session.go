// Package session binds the identity scopes to browser cookies. The session
// scope is a signed cookie that dies with the browser session; the durable
// scope is a remember-me cookie whose values are kept in Redis.
package session

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/core/ports"
	"github.com/sinergy/sinergy-web/internal/core/service"
)

const (
	SessionCookie  = "sinergy_session"
	RememberCookie = "sinergy_remember"

	storeKey = "identity_store"
)

// Options configures the cookies issued by a Manager.
type Options struct {
	Secret      []byte
	Secure      bool
	RememberTTL time.Duration
	// SessionTTL is the idle lifetime of the session cookie's token.
	SessionTTL time.Duration
	// Now is used for token timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Manager builds the per-request identity store.
type Manager struct {
	opts       Options
	remembered ports.RememberedStore
}

func NewManager(opts Options, remembered ports.RememberedStore) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RememberTTL <= 0 {
		opts.RememberTTL = 30 * 24 * time.Hour
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	return &Manager{opts: opts, remembered: remembered}
}

// Store returns the identity store of the request served by c.
func (m *Manager) Store(c echo.Context) *service.IdentityAccessor {
	if s, ok := c.Get(storeKey).(*service.IdentityAccessor); ok {
		return s
	}
	durable := &TokenCookieScope{c: c, store: m.remembered, opts: m.opts}
	sess := &SignedCookieScope{c: c, opts: m.opts}
	s := service.NewIdentityAccessor(durable, sess)
	c.Set(storeKey, s)
	return s
}

// Middleware attaches the identity store to every request.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.Store(c)
			return next(c)
		}
	}
}

// FromContext returns the store attached by Middleware, or nil.
func FromContext(c echo.Context) ports.IdentityStore {
	s, ok := c.Get(storeKey).(*service.IdentityAccessor)
	if !ok {
		return nil
	}
	return s
}

// newCookie builds an identity cookie. maxAge 0 makes a browser-session
// cookie and a negative maxAge deletes it.
func newCookie(opts Options, name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
