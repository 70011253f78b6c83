package service

import (
	"context"
	"fmt"
	"time"

	"livechat/internal/domain"
)

// ConversationService handles creating and listing two-party conversations.
// Only friends may start a conversation; the friendship data itself is
// managed elsewhere.
type ConversationService struct {
	conversations domain.ConversationRepository
	participants  domain.ParticipantRepository
	messages      domain.MessageRepository
	users         domain.UserRepository
	friendships   domain.FriendshipRepository
	presence      PresenceIndex
}

func NewConversationService(
	conversations domain.ConversationRepository,
	participants domain.ParticipantRepository,
	messages domain.MessageRepository,
	users domain.UserRepository,
	friendships domain.FriendshipRepository,
	presence PresenceIndex,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		participants:  participants,
		messages:      messages,
		users:         users,
		friendships:   friendships,
		presence:      presence,
	}
}

// UserBasic is the public subset of a user embedded in responses.
type UserBasic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type ConversationResponse struct {
	ID               int64            `json:"id"`
	Participant1ID   int64            `json:"participant_1_id"`
	Participant2ID   int64            `json:"participant_2_id"`
	CreatedAt        time.Time        `json:"created_at"`
	LastMessageAt    time.Time        `json:"last_message_at"`
	OtherParticipant *UserBasic       `json:"other_participant,omitempty"`
	LastMessage      *MessageResponse `json:"last_message,omitempty"`
	UnreadCount      int              `json:"unread_count"`
	IsOtherOnline    bool             `json:"is_other_online"`
	OtherLastSeen    *time.Time       `json:"other_last_seen,omitempty"`
}

// CreateOrGet returns the existing conversation between the caller and
// otherUserID or creates a new one. The pair must be friends.
func (s *ConversationService) CreateOrGet(ctx context.Context, userID, otherUserID int64) (*ConversationResponse, error) {
	if userID == otherUserID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", domain.ErrInvalidInput)
	}

	other, err := s.users.GetByID(ctx, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if other == nil || !other.IsActive {
		return nil, domain.ErrNotFound
	}

	areFriends, err := s.friendships.AreFriends(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if !areFriends {
		return nil, domain.ErrNotFriends
	}

	conv, err := s.conversations.GetBetween(ctx, userID, otherUserID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		lo, hi := userID, otherUserID
		if lo > hi {
			lo, hi = hi, lo
		}
		conv = &domain.Conversation{Participant1ID: lo, Participant2ID: hi}
		if err := s.conversations.Create(ctx, conv); err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
	}

	return s.toResponse(ctx, conv, userID)
}

// Get returns conversation details for a participant.
func (s *ConversationService) Get(ctx context.Context, conversationID, userID int64) (*ConversationResponse, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	if conv == nil {
		return nil, domain.ErrNotFound
	}
	if !conv.HasParticipant(userID) {
		return nil, domain.ErrForbidden
	}
	return s.toResponse(ctx, conv, userID)
}

// ListForUser returns the caller's conversations ordered by last activity,
// enriched with unread counts and the other participant's presence.
func (s *ConversationService) ListForUser(ctx context.Context, userID int64) ([]*ConversationResponse, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	res := make([]*ConversationResponse, 0, len(convs))
	for _, conv := range convs {
		resp, err := s.toResponse(ctx, conv, userID)
		if err != nil {
			return nil, err
		}
		res = append(res, resp)
	}
	return res, nil
}

func (s *ConversationService) toResponse(ctx context.Context, conv *domain.Conversation, userID int64) (*ConversationResponse, error) {
	otherID := conv.OtherParticipant(userID)

	resp := &ConversationResponse{
		ID:             conv.ID,
		Participant1ID: conv.Participant1ID,
		Participant2ID: conv.Participant2ID,
		CreatedAt:      conv.CreatedAt,
		LastMessageAt:  conv.LastMessageAt,
		IsOtherOnline:  s.presence.IsPresent(otherID, conv.ID),
	}

	if u, err := s.users.GetByID(ctx, otherID); err == nil && u != nil {
		resp.OtherParticipant = &UserBasic{ID: u.ID, Username: u.Username}
	}

	unread, err := s.participants.UnreadCount(ctx, conv.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("unread count: %w", err)
	}
	resp.UnreadCount = unread

	if p, err := s.participants.Get(ctx, conv.ID, otherID); err == nil && p != nil {
		resp.OtherLastSeen = p.LastSeenAt
	}

	if last, err := s.messages.LatestForConversation(ctx, conv.ID); err == nil && last != nil {
		resp.LastMessage = &MessageResponse{
			ID:             last.ID,
			ConversationID: last.ConversationID,
			SenderID:       last.SenderID,
			Content:        last.Content,
			Type:           last.Type,
			Status:         last.Status,
			CreatedAt:      last.CreatedAt,
			DeliveredAt:    last.DeliveredAt,
			ReadAt:         last.ReadAt,
		}
	}

	return resp, nil
}
