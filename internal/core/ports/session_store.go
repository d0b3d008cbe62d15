package ports

import (
	"context"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// Scope is one persisted identity scope (durable or session). Read on an
// empty scope returns empty values and no error.
type Scope interface {
	Read(ctx context.Context) (domain.ScopeValues, error)
	Write(ctx context.Context, values domain.ScopeValues) error
	Clear(ctx context.Context) error
}

// RememberedStore keeps durable scope values server-side, keyed by an opaque token.
type RememberedStore interface {
	Load(ctx context.Context, token string) (domain.ScopeValues, error)
	Save(ctx context.Context, token string, values domain.ScopeValues) error
	Delete(ctx context.Context, token string) error
}
