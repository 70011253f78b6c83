package ws

import (
	"log"
	"time"

	"livechat/internal/domain"
	"livechat/internal/service"
)

// Dispatcher fans events out to live sessions, best-effort. A session whose
// transport write fails is evicted from the registry and the fan-out
// continues; partial failure is never surfaced to the caller. Durability
// lives in the message store, not here.
type Dispatcher struct {
	registry *Registry
}

func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

var _ service.EventNotifier = (*Dispatcher)(nil)

// ToConversation sends the event to every live session of the conversation.
// Sessions owned by exceptUserID are skipped when exceptUserID is non-zero.
func (d *Dispatcher) ToConversation(conversationID int64, event any, exceptUserID int64) {
	for _, s := range d.registry.ForConversation(conversationID) {
		if exceptUserID != 0 && s.UserID == exceptUserID {
			continue
		}
		d.send(s, event)
	}
}

// ToUser sends the event to every live session of a user.
func (d *Dispatcher) ToUser(userID int64, event any) {
	for _, s := range d.registry.ForUser(userID) {
		d.send(s, event)
	}
}

func (d *Dispatcher) send(s *Session, event any) {
	if err := s.Send(event); err != nil {
		log.Printf("ws: send to session %s (user %d): %v", s.ID, s.UserID, err)
		d.registry.Unregister(s)
		_ = s.Close()
	}
}

func (d *Dispatcher) NotifyMessageCreated(conversationID int64, msg *service.MessageResponse, exceptUserID int64) {
	d.ToConversation(conversationID, MessageEvent{
		Type:           "message",
		ConversationID: conversationID,
		Message:        msg,
	}, exceptUserID)
}

func (d *Dispatcher) NotifyStatusChanged(conversationID, messageID int64, status domain.MessageStatus, at time.Time, exceptUserID int64) {
	d.ToConversation(conversationID, MessageStatusEvent{
		Type:           "message_status",
		ConversationID: conversationID,
		MessageID:      messageID,
		Status:         status,
		Timestamp:      at,
	}, exceptUserID)
}

func (d *Dispatcher) NotifyPresenceChanged(conversationID, userID int64, online bool, lastSeen *time.Time) {
	d.ToConversation(conversationID, PresenceEvent{
		Type:           "presence",
		ConversationID: conversationID,
		UserID:         userID,
		IsOnline:       online,
		LastSeen:       lastSeen,
	}, userID)
}

func (d *Dispatcher) notifyTyping(conversationID, userID int64, isTyping bool) {
	d.ToConversation(conversationID, TypingEvent{
		Type:           "typing",
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	}, userID)
}
