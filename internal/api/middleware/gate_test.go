package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

type stubGate struct {
	decision domain.GateDecision
	got      ports.GateRequest
	calls    int
}

func (s *stubGate) Evaluate(_ context.Context, req ports.GateRequest) domain.GateDecision {
	s.calls++
	s.got = req
	return s.decision
}

func gateContext(e *echo.Echo, target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("page")
	c.SetParamValues(req.URL.Path[1:])
	return c, rec
}

func TestGate_Redirects(t *testing.T) {
	e := echo.New()
	gate := &stubGate{decision: domain.GateDecision{
		State: domain.StateUnauthenticated, Outcome: domain.OutcomeLoginRedirect,
		Redirect: "/login.html?redirect=%2Festoque.html%3Fid%3D3",
	}}
	c, rec := gateContext(e, "/estoque.html?id=3")

	h := newSessions().Middleware()(Gate(gate)(func(c echo.Context) error {
		t.Fatalf("should not reach the page handler")
		return nil
	}))
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if rec.Code != http.StatusFound || rec.Header().Get("Location") != gate.decision.Redirect {
		t.Fatalf("expected redirect, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	if gate.got.Page != "estoque.html" || gate.got.RequestedURL != "/estoque.html?id=3" {
		t.Fatalf("unexpected gate request: %+v", gate.got)
	}
	if gate.got.Scopes == nil {
		t.Fatalf("gate needs the identity store")
	}
}

func TestGate_StoresDecision(t *testing.T) {
	e := echo.New()
	id := domain.Identity{Username: "alice", UserID: "7", Role: "user"}
	gate := &stubGate{decision: domain.GateDecision{
		State: domain.StateAccessGranted, Outcome: domain.OutcomeGranted, Page: "estoque", Identity: &id,
	}}
	c, _ := gateContext(e, "/estoque.html")

	called := false
	h := newSessions().Middleware()(Gate(gate)(func(c echo.Context) error {
		called = true
		d, ok := c.Get(KeyDecision).(domain.GateDecision)
		if !ok || !d.Granted() {
			t.Fatalf("decision not stored: %+v", d)
		}
		if got, _ := c.Get(KeyIdentity).(domain.Identity); got.UserID != "7" {
			t.Fatalf("identity not stored")
		}
		return nil
	}))
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("page handler not called")
	}
}

func TestGate_NonPageIsNotFound(t *testing.T) {
	e := echo.New()
	gate := &stubGate{}
	c, _ := gateContext(e, "/favicon.ico")

	err := newSessions().Middleware()(Gate(gate)(func(c echo.Context) error { return nil }))(c)
	if err != echo.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if gate.calls != 0 {
		t.Fatalf("gate must not run for non-page paths")
	}
}
