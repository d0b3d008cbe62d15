package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// ErrInvalidSession means the session cookie failed verification.
var ErrInvalidSession = errors.New("invalid session cookie")

type sessionClaims struct {
	Values map[string]string `json:"v"`
	jwt.RegisteredClaims
}

// SignedCookieScope keeps the session scope in an HS256-signed cookie
// without Max-Age, so the browser drops it when the session ends. The token
// itself expires after Options.SessionTTL of inactivity: a read past half
// its lifetime re-issues it.
type SignedCookieScope struct {
	c    echo.Context
	opts Options

	// values caches what this request has read or written.
	values domain.ScopeValues
	loaded bool
}

func (s *SignedCookieScope) Read(_ context.Context) (domain.ScopeValues, error) {
	if s.loaded {
		return copyValues(s.values), nil
	}
	s.loaded = true
	s.values = domain.ScopeValues{}

	ck, err := s.c.Cookie(SessionCookie)
	if err != nil || ck.Value == "" {
		return domain.ScopeValues{}, nil
	}

	claims := &sessionClaims{}
	tkn, err := jwt.ParseWithClaims(ck.Value, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.opts.Secret, nil
	}, jwt.WithTimeFunc(s.opts.Now), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return domain.ScopeValues{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	s.values = domain.ScopeValues(claims.Values)
	if claims.IssuedAt == nil || s.opts.Now().Sub(claims.IssuedAt.Time) > s.opts.SessionTTL/2 {
		if err := s.issue(s.values); err != nil {
			return domain.ScopeValues{}, err
		}
	}
	return copyValues(s.values), nil
}

func (s *SignedCookieScope) Write(ctx context.Context, values domain.ScopeValues) error {
	if len(values) == 0 {
		return s.Clear(ctx)
	}
	if err := s.issue(values); err != nil {
		return err
	}
	s.values, s.loaded = copyValues(values), true
	return nil
}

// issue signs values into a fresh token valid for SessionTTL.
func (s *SignedCookieScope) issue(values domain.ScopeValues) error {
	now := s.opts.Now()
	claims := sessionClaims{
		Values: map[string]string(copyValues(values)),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.SessionTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.opts.Secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}
	s.c.SetCookie(newCookie(s.opts, SessionCookie, signed, 0))
	return nil
}

func (s *SignedCookieScope) Clear(_ context.Context) error {
	s.c.SetCookie(newCookie(s.opts, SessionCookie, "", -1))
	s.values, s.loaded = domain.ScopeValues{}, true
	return nil
}

func copyValues(v domain.ScopeValues) domain.ScopeValues {
	out := make(domain.ScopeValues, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}
