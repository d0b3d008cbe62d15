package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// AuthService implements login and logout against the Sinergy API.
type AuthService struct {
	api ports.AuthAPI
	log zerolog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

func NewAuthService(api ports.AuthAPI, log zerolog.Logger) *AuthService {
	return &AuthService{api: api, log: log}
}

// Login authenticates and persists the identity into store. Rejections by
// the API become domain.ErrInvalidCredentials; transport failures are
// returned wrapped.
func (s *AuthService) Login(ctx context.Context, store ports.IdentityStore, username, password string, remember bool) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}

	id, err := s.api.Login(ctx, username, password)
	if err != nil {
		if isRejection(err) {
			s.log.Info().Str("username", username).Msg("login rejected")
			return domain.Identity{}, domain.ErrInvalidCredentials
		}
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}
	if id.UserID == "" {
		return domain.Identity{}, domain.ErrInvalidCredentials
	}
	if id.Username == "" {
		id.Username = username
	}

	if err := store.Save(ctx, id, remember); err != nil {
		return domain.Identity{}, fmt.Errorf("login: %w", err)
	}

	s.log.Info().Str("user_id", id.UserID).Str("role", id.Role).Bool("remember", remember).Msg("user logged in")
	return id, nil
}

// Logout clears both identity scopes.
func (s *AuthService) Logout(ctx context.Context, store ports.IdentityStore) error {
	if err := store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func isRejection(err error) bool {
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return true
	}
	switch domain.StatusCode(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
