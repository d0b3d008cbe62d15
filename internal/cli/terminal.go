package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

// terminalView prints the roster and the active conversation. Polls repeat
// the same data every few seconds, so a section is printed only when it
// changed since it was last shown.
type terminalView struct {
	mu         sync.Mutex
	out        io.Writer
	me         string
	lastRoster string
	lastConv   string
	names      map[string]string
}

var _ ports.ChatRenderer = (*terminalView)(nil)

func newTerminalView(out io.Writer, me string) *terminalView {
	return &terminalView{out: out, me: me, names: make(map[string]string)}
}

func (v *terminalView) RenderRoster(entries []domain.RosterEntry) {
	var b strings.Builder
	b.WriteString("── Users ──\n")
	for _, e := range entries {
		if e.UserID == v.me {
			continue
		}
		p := e.Presence()
		mark := "○"
		if p.Online {
			mark = "●"
		}
		fmt.Fprintf(&b, "%s %s [%s]", mark, e.Name, e.UserID)
		if !p.Online && !p.LastActivity.IsZero() {
			fmt.Fprintf(&b, " last seen %s", p.LastActivity.Local().Format("02/01 15:04"))
		}
		if e.Unread > 0 {
			fmt.Fprintf(&b, " (%d unread)", e.Unread)
		}
		b.WriteByte('\n')
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, e := range entries {
		v.names[e.UserID] = e.Name
	}
	if s := b.String(); s != v.lastRoster {
		v.lastRoster = s
		io.WriteString(v.out, s)
	}
}

func (v *terminalView) RenderMessages(partnerID string, msgs []domain.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "── Conversation with %s ──\n", v.nameOf(partnerID))
	for _, m := range msgs {
		who := v.nameOf(m.SenderID)
		if m.SenderID == v.me {
			who = "you"
		}
		stamp := ""
		if !m.SentAt.IsZero() {
			stamp = m.SentAt.Local().Format("15:04") + " "
		}
		fmt.Fprintf(&b, "%s%s: %s\n", stamp, who, m.Text)
	}

	if s := b.String(); s != v.lastConv {
		v.lastConv = s
		io.WriteString(v.out, s)
	}
}

func (v *terminalView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	io.WriteString(v.out, "> ")
}

// notice prints a line from the command loop.
func (v *terminalView) notice(format string, args ...any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(v.out, format+"\n", args...)
}

// nameOf needs v.mu held.
func (v *terminalView) nameOf(userID string) string {
	if n := v.names[userID]; n != "" {
		return n
	}
	return userID
}
