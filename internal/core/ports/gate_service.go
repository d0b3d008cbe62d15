package ports

import (
	"context"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// GateRequest is one page visit.
type GateRequest struct {
	// Page is the requested page name or path ("estoque", "/estoque.html").
	Page string
	// RequestedURL is preserved for the post-login return.
	RequestedURL string
	// Scopes holds the visitor's identity storage.
	Scopes IdentityStore
	// RequestID correlates audit entries with access logs.
	RequestID string
}

// GateService decides whether a visitor may see a page.
type GateService interface {
	Evaluate(ctx context.Context, req GateRequest) domain.GateDecision
}
