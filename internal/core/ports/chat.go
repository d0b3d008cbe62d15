package ports

import "github.com/sinergy/sinergy-web/internal/core/domain"

// ChatRenderer is the view driven by the chat loop. Calls may arrive from
// several goroutines; implementations serialise their own output.
type ChatRenderer interface {
	RenderRoster(entries []domain.RosterEntry)
	RenderMessages(partnerID string, msgs []domain.Message)
	ClearInput()
}
