package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// TokenCookieScope keeps the durable scope server-side. The browser only
// holds an opaque random token in a long-lived cookie.
type TokenCookieScope struct {
	c     echo.Context
	store ports.RememberedStore
	opts  Options

	// token is resolved from the request cookie once; after Clear it stays
	// empty so the next Write issues a new one.
	token    string
	resolved bool
	values   domain.ScopeValues
	loaded   bool
}

func (s *TokenCookieScope) currentToken() string {
	if s.resolved {
		return s.token
	}
	s.resolved = true
	if ck, err := s.c.Cookie(RememberCookie); err == nil {
		s.token = ck.Value
	}
	return s.token
}

func (s *TokenCookieScope) Read(ctx context.Context) (domain.ScopeValues, error) {
	if s.loaded {
		return copyValues(s.values), nil
	}

	token := s.currentToken()
	if token == "" {
		s.values, s.loaded = domain.ScopeValues{}, true
		return domain.ScopeValues{}, nil
	}

	values, err := s.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	s.values, s.loaded = copyValues(values), true
	return values, nil
}

func (s *TokenCookieScope) Write(ctx context.Context, values domain.ScopeValues) error {
	if len(values) == 0 {
		return s.Clear(ctx)
	}

	token := s.currentToken()
	if token == "" {
		t, err := newToken()
		if err != nil {
			return err
		}
		token = t
	}
	if err := s.store.Save(ctx, token, values); err != nil {
		return err
	}

	s.token, s.resolved = token, true
	s.c.SetCookie(newCookie(s.opts, RememberCookie, token, int(s.opts.RememberTTL.Seconds())))
	s.values, s.loaded = copyValues(values), true
	return nil
}

func (s *TokenCookieScope) Clear(ctx context.Context) error {
	token := s.currentToken()
	s.c.SetCookie(newCookie(s.opts, RememberCookie, "", -1))
	s.token, s.resolved = "", true
	s.values, s.loaded = domain.ScopeValues{}, true
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate remember token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
