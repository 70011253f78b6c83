package service_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"livechat/internal/domain"
	"livechat/internal/service"
)

// Hand-written testify mocks for the repository and fan-out seams.

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type MockConversationRepo struct {
	mock.Mock
}

func (m *MockConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) GetBetween(ctx context.Context, userID, otherUserID int64) (*domain.Conversation, error) {
	args := m.Called(ctx, userID, otherUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

func (m *MockConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Conversation), args.Error(1)
}

type MockMessageRepo struct {
	mock.Mock
}

func (m *MockMessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) ListForConversation(ctx context.Context, conversationID int64, limit int, beforeID int64) ([]*domain.Message, error) {
	args := m.Called(ctx, conversationID, limit, beforeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) CountForConversation(ctx context.Context, conversationID int64, beforeID int64) (int, error) {
	args := m.Called(ctx, conversationID, beforeID)
	return args.Int(0), args.Error(1)
}

func (m *MockMessageRepo) LatestForConversation(ctx context.Context, conversationID int64) (*domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepo) UpdateStatus(ctx context.Context, id int64, status domain.MessageStatus, at time.Time) (bool, error) {
	args := m.Called(ctx, id, status, at)
	return args.Bool(0), args.Error(1)
}

type MockParticipantRepo struct {
	mock.Mock
}

func (m *MockParticipantRepo) Get(ctx context.Context, conversationID, userID int64) (*domain.Participant, error) {
	args := m.Called(ctx, conversationID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Participant), args.Error(1)
}

func (m *MockParticipantRepo) SetOnline(ctx context.Context, conversationID, userID int64, online bool, lastSeen *time.Time) error {
	args := m.Called(ctx, conversationID, userID, online, lastSeen)
	return args.Error(0)
}

func (m *MockParticipantRepo) MarkRead(ctx context.Context, conversationID, userID, lastMessageID int64) error {
	args := m.Called(ctx, conversationID, userID, lastMessageID)
	return args.Error(0)
}

func (m *MockParticipantRepo) UnreadCount(ctx context.Context, conversationID, userID int64) (int, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Int(0), args.Error(1)
}

type MockFriendshipRepo struct {
	mock.Mock
}

func (m *MockFriendshipRepo) AreFriends(ctx context.Context, userID, otherUserID int64) (bool, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyMessageCreated(conversationID int64, msg *service.MessageResponse, exceptUserID int64) {
	m.Called(conversationID, msg, exceptUserID)
}

func (m *MockNotifier) NotifyStatusChanged(conversationID, messageID int64, status domain.MessageStatus, at time.Time, exceptUserID int64) {
	m.Called(conversationID, messageID, status, at, exceptUserID)
}

func (m *MockNotifier) NotifyPresenceChanged(conversationID, userID int64, online bool, lastSeen *time.Time) {
	m.Called(conversationID, userID, online, lastSeen)
}

// stubPresence answers presence queries with fixed values.
type stubPresence struct {
	present      bool
	otherPresent bool
}

func (s stubPresence) IsPresent(userID, conversationID int64) bool { return s.present }

func (s stubPresence) OtherPresent(conversationID, exceptUserID int64) bool {
	return s.otherPresent
}
