package ws

import (
	"encoding/json"
	"time"

	"livechat/internal/domain"
	"livechat/internal/service"
)

// Inbound envelope. Data stays raw until the event type picks a payload.
type inboundEvent struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type sendMessageData struct {
	Content string `json:"content"`
}

type typingData struct {
	IsTyping bool `json:"is_typing"`
}

type markReadData struct {
	LastMessageID int64 `json:"last_message_id"`
}

// Outbound events.

type MessageEvent struct {
	Type           string                   `json:"type"`
	ConversationID int64                    `json:"conversation_id"`
	Message        *service.MessageResponse `json:"message"`
}

type TypingEvent struct {
	Type           string `json:"type"`
	ConversationID int64  `json:"conversation_id"`
	UserID         int64  `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

type PresenceEvent struct {
	Type           string     `json:"type"`
	ConversationID int64      `json:"conversation_id"`
	UserID         int64      `json:"user_id"`
	IsOnline       bool       `json:"is_online"`
	LastSeen       *time.Time `json:"last_seen,omitempty"`
}

type MessageStatusEvent struct {
	Type           string               `json:"type"`
	ConversationID int64                `json:"conversation_id"`
	MessageID      int64                `json:"message_id"`
	Status         domain.MessageStatus `json:"status"`
	Timestamp      time.Time            `json:"timestamp"`
}

type ConnectionEvent struct {
	Type    string `json:"type"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type ErrorEvent struct {
	Type string    `json:"type"`
	Data ErrorData `json:"data"`
}

type ErrorData struct {
	Message string `json:"message"`
}

// AckEvent confirms a successful live-channel send to its sender.
type AckEvent struct {
	Type string                   `json:"type"`
	Data *service.MessageResponse `json:"data"`
}

func newErrorEvent(msg string) ErrorEvent {
	return ErrorEvent{Type: "error", Data: ErrorData{Message: msg}}
}
