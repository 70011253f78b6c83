package ws

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"livechat/internal/domain"
)

func TestToConversationSkipsExcludedUser(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	r.Register(NewSession(1, 42, aliceConn))
	r.Register(NewSession(2, 42, bobConn))

	d.ToConversation(42, newErrorEvent("ping"), 1)

	assert.Empty(t, aliceConn.writtenEvents())
	assert.Len(t, bobConn.writtenEvents(), 1)
}

func TestToConversationZeroExcludesNobody(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	r.Register(NewSession(1, 42, aliceConn))
	r.Register(NewSession(2, 42, bobConn))

	d.ToConversation(42, newErrorEvent("ping"), 0)

	assert.Len(t, aliceConn.writtenEvents(), 1)
	assert.Len(t, bobConn.writtenEvents(), 1)
}

func TestFailedWriteEvictsSessionAndContinues(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	good1 := &fakeConn{}
	broken := &fakeConn{failWrites: true}
	good2 := &fakeConn{}
	r.Register(NewSession(1, 42, good1))
	dead := NewSession(2, 42, broken)
	r.Register(dead)
	r.Register(NewSession(3, 42, good2))

	d.ToConversation(42, newErrorEvent("ping"), 0)

	assert.Len(t, good1.writtenEvents(), 1)
	assert.Len(t, good2.writtenEvents(), 1)
	assert.True(t, broken.isClosed())
	assert.False(t, r.IsPresent(2, 42))
	assert.Len(t, r.ForConversation(42), 2)

	// The evicted session stays gone on the next fan-out.
	d.ToConversation(42, newErrorEvent("ping"), 0)
	assert.Len(t, good1.writtenEvents(), 2)
}

func TestToUserReachesAllUserSessions(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	c1 := &fakeConn{}
	c2 := &fakeConn{}
	other := &fakeConn{}
	r.Register(NewSession(1, 42, c1))
	r.Register(NewSession(1, 43, c2))
	r.Register(NewSession(2, 42, other))

	d.ToUser(1, newErrorEvent("ping"))

	assert.Len(t, c1.writtenEvents(), 1)
	assert.Len(t, c2.writtenEvents(), 1)
	assert.Empty(t, other.writtenEvents())
}

func TestNotifyStatusChangedShape(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	bobConn := &fakeConn{}
	r.Register(NewSession(2, 42, bobConn))

	at := time.Now().UTC()
	d.NotifyStatusChanged(42, 7, domain.StatusDelivered, at, 1)

	events := bobConn.writtenEvents()
	assert.Len(t, events, 1)
	evt, ok := events[0].(MessageStatusEvent)
	assert.True(t, ok)
	assert.Equal(t, "message_status", evt.Type)
	assert.Equal(t, int64(7), evt.MessageID)
	assert.Equal(t, domain.StatusDelivered, evt.Status)
	assert.Equal(t, at, evt.Timestamp)
}

func TestNotifyPresenceChangedExcludesSubject(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)

	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	r.Register(NewSession(1, 42, aliceConn))
	r.Register(NewSession(2, 42, bobConn))

	d.NotifyPresenceChanged(42, 1, true, nil)

	assert.Empty(t, aliceConn.writtenEvents())
	events := bobConn.writtenEvents()
	assert.Len(t, events, 1)
	evt := events[0].(PresenceEvent)
	assert.Equal(t, "presence", evt.Type)
	assert.Equal(t, int64(1), evt.UserID)
	assert.True(t, evt.IsOnline)
}
