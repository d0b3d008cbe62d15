package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

type memoryRemembered struct {
	mu   sync.Mutex
	data map[string]domain.ScopeValues
	err  error
}

func newMemoryRemembered() *memoryRemembered {
	return &memoryRemembered{data: map[string]domain.ScopeValues{}}
}

func (m *memoryRemembered) Load(_ context.Context, token string) (domain.ScopeValues, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return copyValues(m.data[token]), nil
}

func (m *memoryRemembered) Save(_ context.Context, token string, v domain.ScopeValues) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[token] = copyValues(v)
	return nil
}

func (m *memoryRemembered) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, token)
	return nil
}

var bob = domain.Identity{Username: "bob", UserID: "12", Role: domain.RoleUser, FullName: "Bob Lima"}

func newManager(store *memoryRemembered) *Manager {
	return NewManager(Options{Secret: []byte("test-secret-test-secret-test-secret"), RememberTTL: time.Hour}, store)
}

func request(e *echo.Echo, cookies []*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	for _, ck := range cookies {
		if ck.MaxAge >= 0 && ck.Value != "" {
			req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
		}
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			found = ck
		}
	}
	return found
}

func TestSessionScope_SaveThenLoadOnNextRequest(t *testing.T) {
	e := echo.New()
	m := newManager(newMemoryRemembered())

	c, rec := request(e, nil)
	if err := m.Store(c).Save(context.Background(), bob, false); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	sess := cookieNamed(rec, SessionCookie)
	if sess == nil || sess.MaxAge != 0 || !sess.HttpOnly {
		t.Fatalf("expected browser-session cookie, got %+v", sess)
	}

	c2, _ := request(e, rec.Result().Cookies())
	id, err := m.Store(c2).Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if id != bob {
		t.Fatalf("expected %+v, got %+v", bob, id)
	}
}

func TestSessionScope_TamperedCookieIsUnauthenticated(t *testing.T) {
	e := echo.New()
	m := newManager(newMemoryRemembered())

	c, rec := request(e, nil)
	_ = m.Store(c).Save(context.Background(), bob, false)
	sess := cookieNamed(rec, SessionCookie)

	other := NewManager(Options{Secret: []byte("another-secret-another-secret-xx")}, newMemoryRemembered())
	c2, _ := request(e, []*http.Cookie{sess})
	_, err := other.Store(c2).Load(context.Background())
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected the verification failure to be reported, got %v", err)
	}
}

func TestRememberScope_SurvivesWithoutSessionCookie(t *testing.T) {
	e := echo.New()
	store := newMemoryRemembered()
	m := newManager(store)

	c, rec := request(e, nil)
	if err := m.Store(c).Save(context.Background(), bob, true); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	remember := cookieNamed(rec, RememberCookie)
	if remember == nil || remember.MaxAge != int(time.Hour.Seconds()) {
		t.Fatalf("expected persistent remember cookie, got %+v", remember)
	}
	if len(store.data) != 1 {
		t.Fatalf("expected values stored server-side, got %v", store.data)
	}
	for _, v := range store.data {
		if v[domain.KeyRemember] != "bob" {
			t.Fatalf("remember flag should carry the username, got %v", v)
		}
	}

	// New browser session: only the remember cookie is sent.
	c2, _ := request(e, []*http.Cookie{remember})
	id, err := m.Store(c2).Load(context.Background())
	if err != nil || id.UserID != bob.UserID {
		t.Fatalf("expected remembered identity, got %+v (%v)", id, err)
	}
}

func TestClear_ExpiresCookiesAndForgetsToken(t *testing.T) {
	e := echo.New()
	store := newMemoryRemembered()
	m := newManager(store)

	c, rec := request(e, nil)
	_ = m.Store(c).Save(context.Background(), bob, true)

	c2, rec2 := request(e, rec.Result().Cookies())
	if err := m.Store(c2).Clear(context.Background()); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("remembered token should be deleted")
	}
	for _, name := range []string{SessionCookie, RememberCookie} {
		ck := cookieNamed(rec2, name)
		if ck == nil || ck.MaxAge >= 0 {
			t.Errorf("%s should be expired, got %+v", name, ck)
		}
	}
	if _, err := m.Store(c2).Load(context.Background()); !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected unauthenticated within the same request, got %v", err)
	}
}

func TestMiddleware_AttachesStore(t *testing.T) {
	e := echo.New()
	m := newManager(newMemoryRemembered())
	c, _ := request(e, nil)

	h := m.Middleware()(func(c echo.Context) error {
		if FromContext(c) == nil {
			t.Fatalf("store not attached")
		}
		return nil
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestRememberScope_LoginIssuesFreshToken(t *testing.T) {
	e := echo.New()
	store := newMemoryRemembered()
	m := newManager(store)
	planted := "planted-token"
	store.data[planted] = domain.ScopeValues{domain.KeyUserID: "99"}

	c, rec := request(e, []*http.Cookie{{Name: RememberCookie, Value: planted}})
	if err := m.Store(c).Save(context.Background(), bob, true); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	remember := cookieNamed(rec, RememberCookie)
	if remember == nil || remember.Value == "" || remember.Value == planted {
		t.Fatalf("expected a newly issued remember token, got %+v", remember)
	}
	if v, ok := store.data[planted]; ok {
		t.Fatalf("identity must not live under the incoming token, found %v", v)
	}
	if store.data[remember.Value][domain.KeyUserID] != bob.UserID {
		t.Fatalf("identity not stored under the new token: %v", store.data)
	}
}

func TestRememberScope_FlashRewriteKeepsToken(t *testing.T) {
	e := echo.New()
	store := newMemoryRemembered()
	m := newManager(store)

	c, rec := request(e, nil)
	_ = m.Store(c).Save(context.Background(), bob, true)
	token := cookieNamed(rec, RememberCookie).Value

	c2, rec2 := request(e, []*http.Cookie{{Name: RememberCookie, Value: token}})
	flash, err := m.Store(c2).TakeFlash(context.Background())
	if err != nil || !flash {
		t.Fatalf("expected flash from remembered scope, got %v (%v)", flash, err)
	}
	if ck := cookieNamed(rec2, RememberCookie); ck == nil || ck.Value != token {
		t.Fatalf("flash rewrite should keep the token, got %+v", ck)
	}
	if _, ok := store.data[token][domain.KeyFlash]; ok {
		t.Fatalf("flash flag should be consumed: %v", store.data[token])
	}
}

func TestSessionScope_TokenExpiresWhenIdle(t *testing.T) {
	e := echo.New()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(Options{
		Secret:     []byte("test-secret-test-secret-test-secret"),
		SessionTTL: time.Hour,
		Now:        func() time.Time { return now },
	}, newMemoryRemembered())

	c, rec := request(e, nil)
	_ = m.Store(c).Save(context.Background(), bob, false)
	sess := cookieNamed(rec, SessionCookie)

	now = now.Add(45 * time.Minute)
	c2, rec2 := request(e, []*http.Cookie{sess})
	if _, err := m.Store(c2).Load(context.Background()); err != nil {
		t.Fatalf("token within its lifetime should load, got %v", err)
	}
	refreshed := cookieNamed(rec2, SessionCookie)
	if refreshed == nil || refreshed.Value == sess.Value {
		t.Fatalf("expected the token to be re-issued past half its lifetime, got %+v", refreshed)
	}

	now = now.Add(20 * time.Minute)
	c3, _ := request(e, []*http.Cookie{sess})
	if _, err := m.Store(c3).Load(context.Background()); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expired token should be rejected, got %v", err)
	}

	c4, _ := request(e, []*http.Cookie{refreshed})
	if id, err := m.Store(c4).Load(context.Background()); err != nil || id.UserID != bob.UserID {
		t.Fatalf("refreshed token should still load, got %+v (%v)", id, err)
	}
}
