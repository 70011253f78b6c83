package ws

import (
	"context"
	"log"
	"time"

	"livechat/internal/domain"
)

// Presence derives online/offline from the registry and keeps the persisted
// participant record in step. A user with several sessions in the same
// conversation stays online until the last one closes; transitions fire only
// on the 0->1 and 1->0 edges of the live-session count.
type Presence struct {
	registry     *Registry
	participants domain.ParticipantRepository
	dispatcher   *Dispatcher
	storeTimeout time.Duration
}

func NewPresence(registry *Registry, participants domain.ParticipantRepository, dispatcher *Dispatcher, storeTimeout time.Duration) *Presence {
	return &Presence{
		registry:     registry,
		participants: participants,
		dispatcher:   dispatcher,
		storeTimeout: storeTimeout,
	}
}

// Connected registers the session and, when it is the first for its
// (user, conversation) pair, persists online=true and announces
// presence-online to the other live participants.
func (p *Presence) Connected(ctx context.Context, s *Session) {
	first := p.registry.Register(s)
	if !first {
		return
	}

	sctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	if err := p.participants.SetOnline(sctx, s.ConversationID, s.UserID, true, nil); err != nil {
		log.Printf("ws: set online for user %d in conversation %d: %v", s.UserID, s.ConversationID, err)
	}

	p.dispatcher.NotifyPresenceChanged(s.ConversationID, s.UserID, true, nil)
}

// Disconnected unregisters the session and, when it was the last for its
// pair, persists offline with last_seen=now and announces presence-offline.
// Uses a fresh context: the connection's own context is already canceled at
// teardown.
func (p *Presence) Disconnected(s *Session) {
	last := p.registry.Unregister(s)
	if !last {
		return
	}

	now := time.Now().UTC()
	sctx, cancel := context.WithTimeout(context.Background(), p.storeTimeout)
	defer cancel()
	if err := p.participants.SetOnline(sctx, s.ConversationID, s.UserID, false, &now); err != nil {
		log.Printf("ws: set offline for user %d in conversation %d: %v", s.UserID, s.ConversationID, err)
	}

	p.dispatcher.NotifyPresenceChanged(s.ConversationID, s.UserID, false, &now)
}
