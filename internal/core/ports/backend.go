package ports

import (
	"context"

	"github.com/sinergy/sinergy-web/internal/core/domain"
)

// Every method returns a *domain.BackendError on failure.

// AuthAPI authenticates against the Sinergy API.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (domain.Identity, error)
}

// ProfileAPI loads the top-bar profile.
type ProfileAPI interface {
	GetProfile(ctx context.Context, username string) (domain.Profile, error)
}

// PermissionAPI loads the modules granted to a user.
type PermissionAPI interface {
	GetPermissions(ctx context.Context, userID string) ([]string, error)
}

// ChatAPI is the polling chat surface of the Sinergy API.
type ChatAPI interface {
	Heartbeat(ctx context.Context, userID string) error
	Roster(ctx context.Context, myID string) ([]domain.RosterEntry, error)
	Messages(ctx context.Context, myID, partnerID string) ([]domain.Message, error)
	Send(ctx context.Context, senderID, recipientID, text string) error
}
