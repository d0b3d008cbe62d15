package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/session"
	"github.com/sinergy/sinergy-web/internal/core/domain"
)

var carol = domain.Identity{Username: "carol", UserID: "21", Role: "Admin", FullName: "Carol Dias"}

func newSessions() *session.Manager {
	return session.NewManager(session.Options{Secret: []byte("middleware-test-secret-0123456789")}, nil)
}

// loggedInCookies returns the cookies of a browser that just logged in as id.
func loggedInCookies(t *testing.T, m *session.Manager, id domain.Identity) []*http.Cookie {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/login", nil), rec)
	if err := m.Store(c).Save(context.Background(), id, false); err != nil {
		t.Fatalf("save identity: %v", err)
	}
	var out []*http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge >= 0 && ck.Value != "" {
			out = append(out, ck)
		}
	}
	return out
}

func TestRequireIdentity_InjectsIdentity(t *testing.T) {
	m := newSessions()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/chat/usuarios", nil)
	for _, ck := range loggedInCookies(t, m, carol) {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := m.Middleware()(RequireIdentity(zerolog.Nop())(func(c echo.Context) error {
		called = true
		id, _ := c.Get(KeyIdentity).(domain.Identity)
		if id.UserID != "21" {
			t.Fatalf("identity not set: %+v", id)
		}
		if c.Get(KeyRole) != "Admin" || c.Get(KeyUsername) != "carol" {
			t.Fatalf("role/username not set")
		}
		return c.NoContent(http.StatusOK)
	}))

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected next to run, code %d", rec.Code)
	}
}

func TestRequireIdentity_Anonymous401(t *testing.T) {
	m := newSessions()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/chat/usuarios", nil), rec)

	h := m.Middleware()(RequireIdentity(zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	}))

	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireIdentity_WithoutStoreFails(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	h := RequireIdentity(zerolog.Nop())(func(c echo.Context) error { return nil })
	if err := h(c); err == nil {
		t.Fatalf("expected configuration error")
	}
}
