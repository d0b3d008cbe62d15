package ports

import (
	"context"
	"time"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// AccessAuditEntry records a gate decision worth keeping (denials, forced logouts).
type AccessAuditEntry struct {
	UserID    string
	Username  string
	Role      string
	Page      string
	Outcome   domain.Outcome
	Reason    domain.DenialReason
	Detail    string
	RequestID string
	At        time.Time
}

// AccessAuditRepository persists gate audit entries.
type AccessAuditRepository interface {
	InsertAccessEvent(ctx context.Context, entry AccessAuditEntry) error
}

// AccessAuditReader lists recorded gate decisions.
type AccessAuditReader interface {
	RecentByUser(ctx context.Context, userID string, limit int64) ([]AccessAuditEntry, error)
}
