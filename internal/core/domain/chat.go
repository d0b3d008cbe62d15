package domain

import (
	"sort"
	"time"
)

// Presence is the server-derived liveness of a user.
type Presence struct {
	UserID       string    `json:"userID"`
	Online       bool      `json:"online"`
	LastActivity time.Time `json:"lastActivity"`
}

// RosterEntry is one line of the chat roster.
type RosterEntry struct {
	UserID       string    `json:"id"`
	Name         string    `json:"nome"`
	Online       bool      `json:"online"`
	LastActivity time.Time `json:"ultimaAtividade"`
	Unread       int       `json:"naoLidas"`
}

// Presence returns the liveness part of the entry.
func (e RosterEntry) Presence() Presence {
	return Presence{UserID: e.UserID, Online: e.Online, LastActivity: e.LastActivity}
}

// Message is a private chat message. Messages are append-only.
type Message struct {
	SenderID    string    `json:"remetenteID"`
	RecipientID string    `json:"destinatarioID"`
	Text        string    `json:"mensagem"`
	SentAt      time.Time `json:"dataEnvio"`
	Read        bool      `json:"lida"`
}

// SortMessages orders msgs by SentAt ascending, keeping the server order for ties.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].SentAt.Before(msgs[j].SentAt)
	})
}
