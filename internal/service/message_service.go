package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"livechat/internal/domain"
)

// EventNotifier fans a structured event out to live sessions. The live
// channel's dispatcher implements it; REST handlers trigger the same fan-out
// through this seam, so there is one implementation of broadcast.
// Delivery is best-effort: implementations never return an error, and a
// client that missed an event recovers via the message history endpoint.
type EventNotifier interface {
	NotifyMessageCreated(conversationID int64, msg *MessageResponse, exceptUserID int64)
	NotifyStatusChanged(conversationID, messageID int64, status domain.MessageStatus, at time.Time, exceptUserID int64)
	NotifyPresenceChanged(conversationID, userID int64, online bool, lastSeen *time.Time)
}

// PresenceIndex answers who currently holds a live session. Backed by the
// connection registry; reads may be momentarily stale, which only delays a
// sent->delivered transition.
type PresenceIndex interface {
	IsPresent(userID, conversationID int64) bool
	OtherPresent(conversationID, exceptUserID int64) bool
}

// MessageService governs the message delivery lifecycle:
// sent at persistence, delivered when another participant is live at send
// time, read on an explicit mark-read. Transitions are monotonic.
type MessageService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
	notifier      EventNotifier
	presence      PresenceIndex

	MaxContentLength int
	HistoryLimit     int
}

func NewMessageService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	notifier EventNotifier,
	presence PresenceIndex,
	maxContentLength int,
	historyLimit int,
) *MessageService {
	return &MessageService{
		conversations:    conversations,
		participants:     participants,
		messages:         messages,
		users:            users,
		notifier:         notifier,
		presence:         presence,
		MaxContentLength: maxContentLength,
		HistoryLimit:     historyLimit,
	}
}

// MessageResponse is the wire shape of a message.
type MessageResponse struct {
	ID             int64                `json:"id"`
	ConversationID int64                `json:"conversation_id"`
	SenderID       int64                `json:"sender_id"`
	SenderUsername string               `json:"sender_username,omitempty"`
	Content        string               `json:"content"`
	Type           string               `json:"message_type"`
	Status         domain.MessageStatus `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
	DeliveredAt    *time.Time           `json:"delivered_at,omitempty"`
	ReadAt         *time.Time           `json:"read_at,omitempty"`
}

// Send persists a message at status sent, auto-delivers it if any other
// participant currently holds a live session, and fans the message out.
// The message is durable before any broadcast happens; fan-out failures do
// not affect the returned result.
func (s *MessageService) Send(ctx context.Context, conversationID, senderID int64, content string) (*MessageResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content cannot be empty", domain.ErrInvalidInput)
	}
	if s.MaxContentLength > 0 && len([]rune(content)) > s.MaxContentLength {
		return nil, fmt.Errorf("%w: message content exceeds %d characters", domain.ErrInvalidInput, s.MaxContentLength)
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, domain.ErrNotFound
	}
	if !conv.HasParticipant(senderID) {
		return nil, domain.ErrForbidden
	}

	msg := &domain.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Type:           "text",
		Status:         domain.StatusSent,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	s.autoDeliver(ctx, conv, msg)

	resp := s.toResponse(ctx, msg)
	s.notifier.NotifyMessageCreated(conversationID, resp, senderID)
	return resp, nil
}

// autoDeliver transitions a freshly created message to delivered when some
// other participant has a live session right now. It runs exactly once, at
// send time; a message left at sent is only seen again via history fetch.
func (s *MessageService) autoDeliver(ctx context.Context, conv *domain.Conversation, msg *domain.Message) {
	if !s.presence.OtherPresent(conv.ID, msg.SenderID) {
		return
	}
	now := time.Now().UTC()
	changed, err := s.messages.UpdateStatus(ctx, msg.ID, domain.StatusDelivered, now)
	if err != nil {
		// The message is durable at sent; skipping delivered is recoverable.
		return
	}
	if changed {
		msg.Status = domain.StatusDelivered
		msg.DeliveredAt = &now
		s.notifier.NotifyStatusChanged(conv.ID, msg.ID, domain.StatusDelivered, now, msg.SenderID)
	}
}

// MarkRead sets the caller's read pointer to lastMessageID, zeroes their
// unread counter, transitions that message to read, and broadcasts the
// change. Idempotent. A message outside the caller's conversation, or a
// nonexistent one, is rejected without side effects.
func (s *MessageService) MarkRead(ctx context.Context, conversationID, userID, lastMessageID int64) error {
	participant, err := s.participants.Get(ctx, conversationID, userID)
	if err != nil {
		return fmt.Errorf("get participant: %w", err)
	}
	if participant == nil {
		return domain.ErrForbidden
	}

	msg, err := s.messages.GetByID(ctx, lastMessageID)
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}
	if msg == nil || msg.ConversationID != conversationID {
		return domain.ErrNotFound
	}

	if err := s.participants.MarkRead(ctx, conversationID, userID, lastMessageID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	now := time.Now().UTC()
	if _, err := s.messages.UpdateStatus(ctx, lastMessageID, domain.StatusRead, now); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.notifier.NotifyStatusChanged(conversationID, lastMessageID, domain.StatusRead, now, userID)
	return nil
}

// History returns messages oldest-first with pagination, verifying the
// caller belongs to the conversation. This endpoint is the recovery path for
// live events a client missed.
func (s *MessageService) History(ctx context.Context, conversationID, userID int64, limit int, beforeID int64) ([]*MessageResponse, int, bool, error) {
	participant, err := s.participants.Get(ctx, conversationID, userID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("get participant: %w", err)
	}
	if participant == nil {
		return nil, 0, false, domain.ErrForbidden
	}

	if limit <= 0 || limit > s.HistoryLimit {
		limit = s.HistoryLimit
	}

	msgs, err := s.messages.ListForConversation(ctx, conversationID, limit, beforeID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("list messages: %w", err)
	}
	total, err := s.messages.CountForConversation(ctx, conversationID, beforeID)
	if err != nil {
		return nil, 0, false, fmt.Errorf("count messages: %w", err)
	}

	// DB returns newest-first; reverse to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	res := make([]*MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, s.toResponse(ctx, m))
	}
	return res, total, len(msgs) < total, nil
}

func (s *MessageService) toResponse(ctx context.Context, m *domain.Message) *MessageResponse {
	var username string
	if u, err := s.users.GetByID(ctx, m.SenderID); err == nil && u != nil {
		username = u.Username
	}
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderUsername: username,
		Content:        m.Content,
		Type:           m.Type,
		Status:         m.Status,
		CreatedAt:      m.CreatedAt,
		DeliveredAt:    m.DeliveredAt,
		ReadAt:         m.ReadAt,
	}
}
