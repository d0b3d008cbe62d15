package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/api/session"
	"github.com/sinergy/sinergy-web/internal/api/view"
	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
	"github.com/sinergy/sinergy-web/internal/infrastructure/routing"
)

type fixedGate struct {
	decision domain.GateDecision
}

func (g fixedGate) Evaluate(_ context.Context, req ports.GateRequest) domain.GateDecision {
	d := g.decision
	d.Page = domain.NormalizePage(req.Page)
	return d
}

func newTestRouter(t *testing.T, gate ports.GateService) http.Handler {
	t.Helper()
	routes, err := routing.Default()
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	pages, err := view.NewPages("")
	if err != nil {
		t.Fatalf("pages: %v", err)
	}
	e, err := NewRouter(Dependencies{
		Log:      zerolog.Nop(),
		Routes:   routes,
		Sessions: session.NewManager(session.Options{Secret: []byte("router-test-secret-0123456789abcdef")}, nil),
		Gate:     gate,
		Pages:    pages,
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return e
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRouter_Wiring(t *testing.T) {
	anonymous := fixedGate{decision: domain.GateDecision{
		State:    domain.StateUnauthenticated,
		Outcome:  domain.OutcomeLoginRedirect,
		Redirect: "/login.html?redirect=%2Festoque.html",
	}}
	h := newTestRouter(t, anonymous)

	cases := []struct {
		name   string
		method string
		target string
		code   int
	}{
		{"liveness", http.MethodGet, "/health", http.StatusOK},
		{"readiness without checks", http.MethodGet, "/health/ready", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"root goes home", http.MethodGet, "/", http.StatusFound},
		{"gated page redirects", http.MethodGet, "/estoque.html", http.StatusFound},
		{"non page is not found", http.MethodGet, "/estoque.css", http.StatusNotFound},
		{"api needs identity", http.MethodGet, "/api/me", http.StatusUnauthorized},
		{"chat needs identity", http.MethodGet, "/api/chat/usuarios", http.StatusUnauthorized},
		{"audit not mounted without a reader", http.MethodGet, "/api/audit/7", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := serve(h, tc.method, tc.target); rec.Code != tc.code {
				t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.target, tc.code, rec.Code)
			}
		})
	}
}

func TestRouter_GrantedPageRenders(t *testing.T) {
	id := domain.Identity{Username: "erin", UserID: "5", Role: domain.RoleAdmin}
	h := newTestRouter(t, fixedGate{decision: domain.GateDecision{
		State:    domain.StateAccessGranted,
		Outcome:  domain.OutcomeGrantedAdmin,
		Identity: &id,
	}})

	rec := serve(h, http.MethodGet, "/meus-dados.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=UTF-8" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
