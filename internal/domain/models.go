package domain

import "time"

// MessageStatus is the delivery lifecycle of a message. Transitions are
// monotonic: sent -> delivered -> read, never backward.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

func (s MessageStatus) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// CanTransitionTo reports whether moving to next is a forward transition.
func (s MessageStatus) CanTransitionTo(next MessageStatus) bool {
	return next.rank() > s.rank()
}

// User represents an application user.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is a chat between exactly two users. Participant IDs are
// stored low/high so each pair has a single canonical row.
type Conversation struct {
	ID             int64      `json:"id"`
	Participant1ID int64      `json:"participant_1_id"`
	Participant2ID int64      `json:"participant_2_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
	LastMessageAt  time.Time  `json:"last_message_at"`
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID int64) int64 {
	if c.Participant1ID == userID {
		return c.Participant2ID
	}
	return c.Participant1ID
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.Participant1ID == userID || c.Participant2ID == userID
}

// Message is a single chat message. Content is immutable after creation;
// only the status fields change.
type Message struct {
	ID             int64         `json:"id"`
	ConversationID int64         `json:"conversation_id"`
	SenderID       int64         `json:"sender_id"`
	Content        string        `json:"content"`
	Type           string        `json:"message_type"` // text, system
	Status         MessageStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	DeliveredAt    *time.Time    `json:"delivered_at,omitempty"`
	ReadAt         *time.Time    `json:"read_at,omitempty"`
}

// Participant is the persisted per-(conversation, user) record: presence
// flag, last-seen timestamp, read pointer, and unread counter.
type Participant struct {
	ID                int64      `json:"id"`
	ConversationID    int64      `json:"conversation_id"`
	UserID            int64      `json:"user_id"`
	IsOnline          bool       `json:"is_online"`
	LastSeenAt        *time.Time `json:"last_seen_at,omitempty"`
	LastReadMessageID *int64     `json:"last_read_message_id,omitempty"`
	UnreadCount       int        `json:"unread_count"`
	JoinedAt          time.Time  `json:"joined_at"`
}
