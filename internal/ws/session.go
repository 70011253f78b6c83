package ws

import (
	"github.com/google/uuid"
)

// Conn is the write side of a live transport connection. *websocket.Conn
// satisfies it; tests substitute fakes.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// Session is one live connection bound to a user and a conversation. It is
// ephemeral: owned by the registry while live, destroyed on disconnect, never
// persisted. A user may hold any number of concurrent sessions.
type Session struct {
	ID             string
	UserID         int64
	ConversationID int64

	conn Conn
}

func NewSession(userID, conversationID int64, conn Conn) *Session {
	return &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		ConversationID: conversationID,
		conn:           conn,
	}
}

// Send writes one event to the session's transport.
func (s *Session) Send(v any) error {
	return s.conn.WriteJSON(v)
}

func (s *Session) Close() error {
	return s.conn.Close()
}
