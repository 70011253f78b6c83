package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"livechat/internal/domain"
	"livechat/internal/service"
)

func newConversationService(
	convs *MockConversationRepo,
	parts *MockParticipantRepo,
	msgs *MockMessageRepo,
	users *MockUserRepo,
	friends *MockFriendshipRepo,
	presence service.PresenceIndex,
) *service.ConversationService {
	return service.NewConversationService(convs, parts, msgs, users, friends, presence)
}

func TestCreateOrGetCreatesBetweenFriends(t *testing.T) {
	convs := new(MockConversationRepo)
	parts := new(MockParticipantRepo)
	msgs := new(MockMessageRepo)
	users := new(MockUserRepo)
	friends := new(MockFriendshipRepo)

	users.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Username: "alice", IsActive: true}, nil)
	users.On("GetByID", mock.Anything, int64(2)).Return(&domain.User{ID: 2, Username: "bob", IsActive: true}, nil)
	friends.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(true, nil)
	convs.On("GetBetween", mock.Anything, int64(1), int64(2)).Return(nil, nil)
	// Participant IDs are stored lowest-first regardless of who initiates.
	convs.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Conversation) bool {
		return c.Participant1ID == 1 && c.Participant2ID == 2
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Conversation).ID = 42
	}).Return(nil)
	parts.On("UnreadCount", mock.Anything, int64(42), int64(1)).Return(0, nil)
	parts.On("Get", mock.Anything, int64(42), int64(2)).Return(nil, nil)
	msgs.On("LatestForConversation", mock.Anything, int64(42)).Return(nil, nil)

	svc := newConversationService(convs, parts, msgs, users, friends, stubPresence{})

	resp, err := svc.CreateOrGet(context.Background(), 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "bob", resp.OtherParticipant.Username)
	convs.AssertExpectations(t)
}

func TestCreateOrGetReturnsExisting(t *testing.T) {
	convs := new(MockConversationRepo)
	parts := new(MockParticipantRepo)
	msgs := new(MockMessageRepo)
	users := new(MockUserRepo)
	friends := new(MockFriendshipRepo)

	users.On("GetByID", mock.Anything, int64(1)).Return(&domain.User{ID: 1, Username: "alice", IsActive: true}, nil)
	friends.On("AreFriends", mock.Anything, int64(2), int64(1)).Return(true, nil)
	convs.On("GetBetween", mock.Anything, int64(2), int64(1)).Return(twoPartyConversation(), nil)
	parts.On("UnreadCount", mock.Anything, int64(42), int64(2)).Return(3, nil)
	parts.On("Get", mock.Anything, int64(42), int64(1)).Return(nil, nil)
	msgs.On("LatestForConversation", mock.Anything, int64(42)).Return(nil, nil)

	svc := newConversationService(convs, parts, msgs, users, friends, stubPresence{present: true})

	resp, err := svc.CreateOrGet(context.Background(), 2, 1)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, 3, resp.UnreadCount)
	assert.True(t, resp.IsOtherOnline)
	convs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateOrGetRejectsNonFriends(t *testing.T) {
	users := new(MockUserRepo)
	friends := new(MockFriendshipRepo)

	users.On("GetByID", mock.Anything, int64(2)).Return(&domain.User{ID: 2, Username: "bob", IsActive: true}, nil)
	friends.On("AreFriends", mock.Anything, int64(1), int64(2)).Return(false, nil)

	svc := newConversationService(new(MockConversationRepo), new(MockParticipantRepo), new(MockMessageRepo), users, friends, stubPresence{})

	_, err := svc.CreateOrGet(context.Background(), 1, 2)

	assert.ErrorIs(t, err, domain.ErrNotFriends)
}

func TestCreateOrGetRejectsSelf(t *testing.T) {
	svc := newConversationService(new(MockConversationRepo), new(MockParticipantRepo), new(MockMessageRepo), new(MockUserRepo), new(MockFriendshipRepo), stubPresence{})

	_, err := svc.CreateOrGet(context.Background(), 1, 1)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateOrGetRejectsInactiveOther(t *testing.T) {
	users := new(MockUserRepo)
	users.On("GetByID", mock.Anything, int64(2)).Return(&domain.User{ID: 2, Username: "bob", IsActive: false}, nil)

	svc := newConversationService(new(MockConversationRepo), new(MockParticipantRepo), new(MockMessageRepo), users, new(MockFriendshipRepo), stubPresence{})

	_, err := svc.CreateOrGet(context.Background(), 1, 2)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetRejectsNonParticipant(t *testing.T) {
	convs := new(MockConversationRepo)
	convs.On("GetByID", mock.Anything, int64(42)).Return(twoPartyConversation(), nil)

	svc := newConversationService(convs, new(MockParticipantRepo), new(MockMessageRepo), new(MockUserRepo), new(MockFriendshipRepo), stubPresence{})

	_, err := svc.Get(context.Background(), 42, 99)

	assert.ErrorIs(t, err, domain.ErrForbidden)
}
