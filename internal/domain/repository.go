package domain

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// ConversationRepository defines persistence operations for conversations.
// Create also inserts the two participant records in the same transaction.
type ConversationRepository interface {
	Create(ctx context.Context, c *Conversation) error
	GetByID(ctx context.Context, id int64) (*Conversation, error)
	GetBetween(ctx context.Context, userID, otherUserID int64) (*Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]*Conversation, error)
}

// MessageRepository defines persistence operations for messages.
type MessageRepository interface {
	// Create persists the message at status sent and, in the same
	// transaction, bumps the conversation's last_message_at and increments
	// unread_count for every participant except the sender.
	Create(ctx context.Context, m *Message) error
	GetByID(ctx context.Context, id int64) (*Message, error)
	// ListForConversation returns up to limit messages newest-first,
	// optionally only those with id < beforeID (beforeID 0 means no bound).
	ListForConversation(ctx context.Context, conversationID int64, limit int, beforeID int64) ([]*Message, error)
	CountForConversation(ctx context.Context, conversationID int64, beforeID int64) (int, error)
	LatestForConversation(ctx context.Context, conversationID int64) (*Message, error)
	// UpdateStatus applies a forward-only status transition and stamps the
	// matching timestamp column. It reports whether a row changed; repeating
	// a transition or attempting a regression is a no-op.
	UpdateStatus(ctx context.Context, id int64, status MessageStatus, at time.Time) (bool, error)
}

// ParticipantRepository defines operations on per-(conversation, user)
// records.
type ParticipantRepository interface {
	Get(ctx context.Context, conversationID, userID int64) (*Participant, error)
	// SetOnline updates the online flag. lastSeen, when non-nil, is persisted
	// as last_seen_at (set on the offline transition).
	SetOnline(ctx context.Context, conversationID, userID int64, online bool, lastSeen *time.Time) error
	// MarkRead zeroes unread_count and advances last_read_message_id to
	// lastMessageID if that is ahead of the current pointer. Idempotent.
	MarkRead(ctx context.Context, conversationID, userID, lastMessageID int64) error
	UnreadCount(ctx context.Context, conversationID, userID int64) (int, error)
}

// FriendshipRepository gates who may start a conversation. Friend management
// itself lives outside this service.
type FriendshipRepository interface {
	AreFriends(ctx context.Context, userID, otherUserID int64) (bool, error)
}
