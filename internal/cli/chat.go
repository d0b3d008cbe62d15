package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/service"
)

const chatHelp = `Commands:
  /to <user id>   talk to a user
  /who            show the roster again
  /help           show this help
  /quit           leave the chat
Anything else is sent to the current conversation.`

func newChatCmd(app *App) *cobra.Command {
	var partner string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Stay online and talk to other users",
		Long: `Start the chat: you are shown as online while it runs, the roster is
refreshed in the background, and the selected conversation is polled for new
messages. Without a remembered login you are asked for your credentials,
which are kept for this session only.

` + chatHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runChat(cmd, partner)
		},
	}
	cmd.Flags().StringVar(&partner, "to", "", "user id to open the conversation with")
	return cmd
}

func (a *App) runChat(cmd *cobra.Command, partner string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	me, err := a.store.Load(ctx)
	if errors.Is(err, domain.ErrNotAuthenticated) {
		me, err = a.login(cmd, "", "", false)
	}
	if err != nil {
		return err
	}

	view := newTerminalView(a.Out, me.UserID)
	chat := service.NewChatSession(a.API, view, me, a.chatConfig(), *a.Log)
	if err := chat.Start(ctx); err != nil {
		return err
	}
	defer chat.Stop()

	view.notice("Online as %s. Type /help for commands.", displayName(me))
	if partner != "" {
		if err := chat.SelectPartner(partner); err != nil {
			return err
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := a.readLine()
			if err != nil {
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := a.handleLine(chat, view, line); quit {
				return nil
			}
		}
	}
}

// handleLine runs one input line and reports whether the user asked to quit.
func (a *App) handleLine(chat *service.ChatSession, view *terminalView, line string) bool {
	text := strings.TrimSpace(line)
	if !strings.HasPrefix(text, "/") {
		if err := chat.Send(line); errors.Is(err, domain.ErrNoPartner) {
			view.notice("Pick a user with /to <user id> first.")
		} else if err != nil {
			view.notice("error: %v", err)
		}
		return false
	}

	cmd, arg, _ := strings.Cut(text, " ")
	switch cmd {
	case "/quit":
		return true
	case "/to":
		if err := chat.SelectPartner(arg); err != nil {
			view.notice("error: %v", err)
		}
	case "/who":
		view.mu.Lock()
		roster := view.lastRoster
		view.mu.Unlock()
		view.notice("%s", strings.TrimRight(roster, "\n"))
	case "/help":
		view.notice("%s", chatHelp)
	default:
		view.notice("unknown command %s, type /help", cmd)
	}
	return false
}

func (a *App) chatConfig() service.ChatConfig {
	cfg := service.ChatConfig{
		PresenceInterval: a.Config.Chat.PresenceInterval,
		MessageInterval:  a.Config.Chat.MessageInterval,
	}
	if a.Config.Chat.Backoff {
		cfg.Retry = service.ExponentialBackoff{Base: cfg.MessageInterval, Max: a.Config.Chat.BackoffMax}
	}
	return cfg
}
