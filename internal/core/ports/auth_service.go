package ports

import (
	"context"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// IdentityStore reads and writes the identity across both scopes.
type IdentityStore interface {
	Load(ctx context.Context) (domain.Identity, error)
	Save(ctx context.Context, id domain.Identity, remember bool) error
	Clear(ctx context.Context) error
	TakeFlash(ctx context.Context) (bool, error)
}

type AuthService interface {
	Login(ctx context.Context, store IdentityStore, username, password string, remember bool) (domain.Identity, error)
	Logout(ctx context.Context, store IdentityStore) error
}
