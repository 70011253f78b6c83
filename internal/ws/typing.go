package ws

import "sync"

// TypingTracker holds the ephemeral per-conversation map of who is composing.
// Nothing here is persisted; a disconnect clears the user's flag without a
// synthetic "stopped" broadcast, which is acceptable because typing is
// advisory only.
type TypingTracker struct {
	mu         sync.Mutex
	state      map[int64]map[int64]bool // conversation -> user -> typing
	dispatcher *Dispatcher
}

func NewTypingTracker(dispatcher *Dispatcher) *TypingTracker {
	return &TypingTracker{
		state:      make(map[int64]map[int64]bool),
		dispatcher: dispatcher,
	}
}

// Set records the flag and broadcasts the change to the other participants
// unconditionally, true or false. There is no server-side expiry.
func (t *TypingTracker) Set(conversationID, userID int64, isTyping bool) {
	t.mu.Lock()
	if isTyping {
		if t.state[conversationID] == nil {
			t.state[conversationID] = make(map[int64]bool)
		}
		t.state[conversationID][userID] = true
	} else {
		t.clearLocked(conversationID, userID)
	}
	t.mu.Unlock()

	t.dispatcher.notifyTyping(conversationID, userID, isTyping)
}

// ClearUser drops the user's flag on disconnect teardown, without broadcast.
func (t *TypingTracker) ClearUser(conversationID, userID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked(conversationID, userID)
}

func (t *TypingTracker) clearLocked(conversationID, userID int64) {
	if users, ok := t.state[conversationID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.state, conversationID)
		}
	}
}

// TypingUsers returns the users currently composing in a conversation.
func (t *TypingTracker) TypingUsers(conversationID int64) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res []int64
	for uid, typing := range t.state[conversationID] {
		if typing {
			res = append(res, uid)
		}
	}
	return res
}
