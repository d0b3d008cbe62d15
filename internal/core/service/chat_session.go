package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sinergy/sinergy-web/internal/core/domain"
	"github.com/sinergy/sinergy-web/internal/core/ports"
)

const (
	DefaultPresenceInterval = 5 * time.Second
	DefaultMessageInterval  = 3 * time.Second
)

const (
	streamPresence = "presence"
	streamMessages = "messages"
)

// ChatConfig holds the polling cadences of a chat session.
type ChatConfig struct {
	// PresenceInterval separates heartbeat+roster ticks.
	PresenceInterval time.Duration
	// MessageInterval separates conversation refreshes.
	MessageInterval time.Duration
	// Retry adds delay after consecutive failures. Nil means FixedInterval.
	Retry RetryPolicy
}

func (c ChatConfig) withDefaults() ChatConfig {
	if c.PresenceInterval <= 0 {
		c.PresenceInterval = DefaultPresenceInterval
	}
	if c.MessageInterval <= 0 {
		c.MessageInterval = DefaultMessageInterval
	}
	if c.Retry == nil {
		c.Retry = FixedInterval{}
	}
	return c
}

// seqGuard numbers requests of one stream and lets only results newer than
// the last applied one through.
type seqGuard struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

func (g *seqGuard) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	return g.issued
}

// apply runs fn when seq is newer than the last applied result. fn returns
// false to reject the result without advancing the guard.
func (g *seqGuard) apply(seq uint64, fn func() bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seq <= g.applied {
		return false
	}
	if !fn() {
		return false
	}
	g.applied = seq
	return true
}

// ChatSession is the presence and messaging loop of one chat view. It keeps
// the user online with heartbeats, refreshes the roster and the active
// conversation by polling, and stops every timer when the view goes away.
type ChatSession struct {
	api  ports.ChatAPI
	view ports.ChatRenderer
	me   domain.Identity
	cfg  ChatConfig
	log  zerolog.Logger

	rosterSeq   seqGuard
	messagesSeq seqGuard

	mu       sync.Mutex
	partner  string
	failures map[string]int
	running  bool
	stopped  bool
	ctx      context.Context
	cancel   context.CancelFunc
	group    *errgroup.Group
}

func NewChatSession(api ports.ChatAPI, view ports.ChatRenderer, me domain.Identity, cfg ChatConfig, log zerolog.Logger) *ChatSession {
	return &ChatSession{
		api:      api,
		view:     view,
		me:       me,
		cfg:      cfg.withDefaults(),
		log:      log.With().Str("component", "chat").Str("user_id", me.UserID).Logger(),
		failures: make(map[string]int),
	}
}

// Start launches the timers. A session can be started once.
func (s *ChatSession) Start(parent context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return errors.New("chat session already started")
	}

	ctx, cancel := context.WithCancel(parent)
	g, gctx := errgroup.WithContext(ctx)
	s.ctx, s.cancel, s.group = gctx, cancel, g
	s.running = true

	g.Go(func() error {
		s.presenceLoop(gctx)
		return nil
	})
	g.Go(func() error {
		s.messageLoop(gctx)
		return nil
	})
	return nil
}

// Stop cancels the timers and every in-flight request, and waits for them.
func (s *ChatSession) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	cancel, g := s.cancel, s.group
	s.mu.Unlock()

	cancel()
	_ = g.Wait()
}

// Run starts the session and blocks until ctx is done.
func (s *ChatSession) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Partner returns the selected conversation partner, or "".
func (s *ChatSession) Partner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.partner
}

// SelectPartner switches the conversation and refreshes it and the roster
// right away instead of waiting for the next tick.
func (s *ChatSession) SelectPartner(partnerID string) error {
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return domain.ErrNoPartner
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return domain.ErrChatNotRunning
	}
	s.partner = partnerID
	s.mu.Unlock()

	s.spawn(func(ctx context.Context) {
		_ = s.fetchMessages(ctx, partnerID)
		_ = s.fetchRoster(ctx)
	})
	return nil
}

// Send clears the input immediately and posts text in the background. The
// conversation is then fetched again in full whatever the outcome. Blank
// text is ignored.
func (s *ChatSession) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	partner := s.Partner()
	if partner == "" {
		return domain.ErrNoPartner
	}
	if !s.isRunning() {
		return domain.ErrChatNotRunning
	}

	text = strings.TrimSpace(text)
	s.view.ClearInput()
	s.spawn(func(ctx context.Context) {
		if err := s.api.Send(ctx, s.me.UserID, partner, text); err != nil {
			s.logPollError(ctx, "", "send", err)
		}
		_ = s.fetchMessages(ctx, partner)
	})
	return nil
}

func (s *ChatSession) presenceLoop(ctx context.Context) {
	s.spawn(s.presenceTick)
	s.every(ctx, s.cfg.PresenceInterval, streamPresence, func() {
		s.spawn(s.presenceTick)
	})
}

func (s *ChatSession) messageLoop(ctx context.Context) {
	s.every(ctx, s.cfg.MessageInterval, streamMessages, func() {
		partner := s.Partner()
		if partner == "" {
			return
		}
		s.spawn(func(ctx context.Context) {
			_ = s.fetchMessages(ctx, partner)
		})
	})
}

// every fires fire after each interval, plus the retry delay for stream.
// Work is spawned, so a slow request never delays the next tick.
func (s *ChatSession) every(ctx context.Context, interval time.Duration, stream string, fire func()) {
	for {
		t := time.NewTimer(interval + s.cfg.Retry.Delay(s.failureCount(stream)))
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
			fire()
		}
	}
}

// presenceTick sends a heartbeat and refreshes the roster. A failed
// heartbeat does not skip the roster.
func (s *ChatSession) presenceTick(ctx context.Context) {
	failed := false
	if err := s.api.Heartbeat(ctx, s.me.UserID); err != nil {
		s.logPollError(ctx, streamPresence, "heartbeat", err)
		failed = true
	}
	if err := s.fetchRoster(ctx); err != nil {
		failed = true
	}
	s.markResult(streamPresence, failed)
}

func (s *ChatSession) fetchRoster(ctx context.Context) error {
	seq := s.rosterSeq.next()
	entries, err := s.api.Roster(ctx, s.me.UserID)
	if err != nil {
		s.logPollError(ctx, streamPresence, "roster", err)
		return err
	}
	applied := s.rosterSeq.apply(seq, func() bool {
		s.view.RenderRoster(entries)
		return true
	})
	if !applied {
		s.log.Debug().Uint64("seq", seq).Msg("stale roster response discarded")
	}
	return nil
}

func (s *ChatSession) fetchMessages(ctx context.Context, partner string) error {
	seq := s.messagesSeq.next()
	msgs, err := s.api.Messages(ctx, s.me.UserID, partner)
	if err != nil {
		s.logPollError(ctx, streamMessages, "messages", err)
		s.markResult(streamMessages, true)
		return err
	}
	s.markResult(streamMessages, false)

	domain.SortMessages(msgs)
	applied := s.messagesSeq.apply(seq, func() bool {
		if s.Partner() != partner {
			return false
		}
		s.view.RenderMessages(partner, msgs)
		return true
	})
	if !applied {
		s.log.Debug().Uint64("seq", seq).Str("partner", partner).Msg("stale conversation response discarded")
	}
	return nil
}

// spawn runs fn on the session's group unless the session is stopping.
func (s *ChatSession) spawn(fn func(ctx context.Context)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	ctx := s.ctx
	s.group.Go(func() error {
		fn(ctx)
		return nil
	})
	return true
}

func (s *ChatSession) isRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ChatSession) failureCount(stream string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[stream]
}

func (s *ChatSession) markResult(stream string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if failed {
		s.failures[stream]++
		return
	}
	s.failures[stream] = 0
}

// logPollError logs a failed request. For a polling stream, failures is the
// number of consecutive failed rounds of that stream including this one.
func (s *ChatSession) logPollError(ctx context.Context, stream, op string, err error) {
	if ctx.Err() != nil {
		return
	}
	ev := s.log.Warn().
		Err(err).
		Str("op", op).
		Str("kind", string(domain.BackendKind(err)))
	if stream != "" {
		ev = ev.Str("stream", stream).Int("failures", s.failureCount(stream)+1)
	}
	ev.Msg("chat request failed")
}
