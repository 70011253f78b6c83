package ws

import (
	"sync"
)

// Registry is the authoritative in-memory index of live sessions, keyed both
// by conversation and by user. It is process-wide, rebuildable-from-nothing
// state: clients re-announce themselves on reconnect.
//
// All mutations happen under one lock, and iteration always works on a
// snapshot, so callers may unregister sessions while a broadcast is in
// flight.
type Registry struct {
	mu             sync.RWMutex
	byConversation map[int64]map[*Session]struct{}
	byUser         map[int64]map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byConversation: make(map[int64]map[*Session]struct{}),
		byUser:         make(map[int64]map[*Session]struct{}),
	}
}

// Register adds a session to both indexes. Idempotent. It reports whether
// this is the first live session for the (user, conversation) pair, which is
// the edge presence announcements key off. A session that is already
// registered reports false: it cannot be the pair's 0->1 edge twice.
func (r *Registry) Register(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConversation[s.ConversationID][s]; ok {
		return false
	}

	if r.byConversation[s.ConversationID] == nil {
		r.byConversation[s.ConversationID] = make(map[*Session]struct{})
	}
	r.byConversation[s.ConversationID][s] = struct{}{}

	if r.byUser[s.UserID] == nil {
		r.byUser[s.UserID] = make(map[*Session]struct{})
	}
	r.byUser[s.UserID][s] = struct{}{}

	return r.liveCountLocked(s.UserID, s.ConversationID) == 1
}

// Unregister removes a session from both indexes. Idempotent. It reports
// whether the (user, conversation) pair is left with zero live sessions —
// the answer holds even when the session was already removed, e.g. evicted
// by the dispatcher after a failed write, so the caller's offline transition
// still fires at teardown.
func (r *Registry) Unregister(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConversation[s.ConversationID][s]; ok {
		delete(r.byConversation[s.ConversationID], s)
		if len(r.byConversation[s.ConversationID]) == 0 {
			delete(r.byConversation, s.ConversationID)
		}

		delete(r.byUser[s.UserID], s)
		if len(r.byUser[s.UserID]) == 0 {
			delete(r.byUser, s.UserID)
		}
	}

	return r.liveCountLocked(s.UserID, s.ConversationID) == 0
}

// ForConversation returns a snapshot of the live sessions in a conversation.
func (r *Registry) ForConversation(conversationID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*Session, 0, len(r.byConversation[conversationID]))
	for s := range r.byConversation[conversationID] {
		res = append(res, s)
	}
	return res
}

// ForUser returns a snapshot of a user's live sessions across conversations.
func (r *Registry) ForUser(userID int64) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]*Session, 0, len(r.byUser[userID]))
	for s := range r.byUser[userID] {
		res = append(res, s)
	}
	return res
}

// IsPresent reports whether the user holds at least one live session in the
// conversation.
func (r *Registry) IsPresent(userID, conversationID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveCountLocked(userID, conversationID) > 0
}

// OtherPresent reports whether any participant other than exceptUserID holds
// a live session in the conversation. Backs the delivered-vs-sent decision.
func (r *Registry) OtherPresent(conversationID, exceptUserID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.byConversation[conversationID] {
		if s.UserID != exceptUserID {
			return true
		}
	}
	return false
}

// LiveCount returns the number of live sessions for a (user, conversation)
// pair.
func (r *Registry) LiveCount(userID, conversationID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveCountLocked(userID, conversationID)
}

func (r *Registry) liveCountLocked(userID, conversationID int64) int {
	n := 0
	for s := range r.byConversation[conversationID] {
		if s.UserID == userID {
			n++
		}
	}
	return n
}

// Stats returns live counts for the health endpoint.
func (r *Registry) Stats() (conversations, users int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConversation), len(r.byUser)
}
