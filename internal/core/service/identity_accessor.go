package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// IdentityAccessor reads and writes the identity across the durable
// ("remembered") and the session scope. Reads prefer the durable scope.
type IdentityAccessor struct {
	durable ports.Scope
	session ports.Scope
}

var _ ports.IdentityStore = (*IdentityAccessor)(nil)

func NewIdentityAccessor(durable, session ports.Scope) *IdentityAccessor {
	return &IdentityAccessor{durable: durable, session: session}
}

// Load returns the identity from the first scope holding a user id. A scope
// that fails to read is skipped; if no identity is found the read errors
// are joined to domain.ErrNotAuthenticated.
func (a *IdentityAccessor) Load(ctx context.Context) (domain.Identity, error) {
	var readErrs []error
	for _, sc := range a.scopes() {
		values, err := sc.Read(ctx)
		if err != nil {
			readErrs = append(readErrs, err)
			continue
		}
		if id, ok := domain.IdentityFromScope(values); ok {
			return id, nil
		}
	}
	return domain.Identity{}, errors.Join(append([]error{domain.ErrNotAuthenticated}, readErrs...)...)
}

// Save stores id in the session scope, and in the durable scope when
// remember is set. The durable scope is always cleared first: a login never
// inherits the durable handle the client arrived with, and without remember
// a stale remembered identity cannot shadow the new one.
func (a *IdentityAccessor) Save(ctx context.Context, id domain.Identity, remember bool) error {
	if id.UserID == "" {
		return fmt.Errorf("save identity: %w", domain.ErrNotAuthenticated)
	}
	values := id.ToScope(true)

	if err := a.session.Write(ctx, values); err != nil {
		return fmt.Errorf("save identity: session scope: %w", err)
	}
	if err := a.durable.Clear(ctx); err != nil {
		return fmt.Errorf("save identity: clear durable scope: %w", err)
	}
	if !remember {
		return nil
	}
	if err := a.durable.Write(ctx, values); err != nil {
		return fmt.Errorf("save identity: durable scope: %w", err)
	}
	return nil
}

// Clear empties both scopes. Both are attempted even if one fails.
func (a *IdentityAccessor) Clear(ctx context.Context) error {
	var errs []error
	if err := a.durable.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("durable scope: %w", err))
	}
	if err := a.session.Clear(ctx); err != nil {
		errs = append(errs, fmt.Errorf("session scope: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("clear identity: %w", errors.Join(errs...))
	}
	return nil
}

// TakeFlash reports whether the post-login flag was set and removes it from
// every scope carrying it.
func (a *IdentityAccessor) TakeFlash(ctx context.Context) (bool, error) {
	found := false
	for _, sc := range a.scopes() {
		values, err := sc.Read(ctx)
		if err != nil {
			return found, fmt.Errorf("take flash: %w", err)
		}
		if _, ok := values[domain.KeyFlash]; !ok {
			continue
		}
		found = true
		delete(values, domain.KeyFlash)
		if err := sc.Write(ctx, values); err != nil {
			return found, fmt.Errorf("take flash: %w", err)
		}
	}
	return found, nil
}

func (a *IdentityAccessor) scopes() []ports.Scope {
	return []ports.Scope{a.durable, a.session}
}
