package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypingSetBroadcastsToOthers(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	tr := NewTypingTracker(d)

	aliceConn := &fakeConn{}
	bobConn := &fakeConn{}
	r.Register(NewSession(1, 42, aliceConn))
	r.Register(NewSession(2, 42, bobConn))

	tr.Set(42, 1, true)

	assert.Empty(t, aliceConn.writtenEvents())
	events := bobConn.writtenEvents()
	assert.Len(t, events, 1)
	evt := events[0].(TypingEvent)
	assert.Equal(t, "typing", evt.Type)
	assert.Equal(t, int64(1), evt.UserID)
	assert.True(t, evt.IsTyping)
	assert.Equal(t, []int64{1}, tr.TypingUsers(42))
}

func TestTypingFalseBroadcastsAndClears(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	tr := NewTypingTracker(d)

	bobConn := &fakeConn{}
	r.Register(NewSession(2, 42, bobConn))

	tr.Set(42, 1, true)
	tr.Set(42, 1, false)

	events := bobConn.writtenEvents()
	assert.Len(t, events, 2)
	assert.True(t, events[0].(TypingEvent).IsTyping)
	assert.False(t, events[1].(TypingEvent).IsTyping)
	assert.Empty(t, tr.TypingUsers(42))
}

func TestTypingFalseWithoutPriorTrueStillBroadcasts(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	tr := NewTypingTracker(d)

	bobConn := &fakeConn{}
	r.Register(NewSession(2, 42, bobConn))

	tr.Set(42, 1, false)

	assert.Len(t, bobConn.writtenEvents(), 1)
	assert.Empty(t, tr.TypingUsers(42))
}

func TestClearUserDropsFlagWithoutBroadcast(t *testing.T) {
	r := NewRegistry()
	d := NewDispatcher(r)
	tr := NewTypingTracker(d)

	bobConn := &fakeConn{}
	r.Register(NewSession(2, 42, bobConn))

	tr.Set(42, 1, true)
	tr.ClearUser(42, 1)

	assert.Empty(t, tr.TypingUsers(42))
	// Only the initial "typing" broadcast, no synthetic stop.
	assert.Len(t, bobConn.writtenEvents(), 1)
}

func TestTypingIsScopedPerConversation(t *testing.T) {
	tr := NewTypingTracker(NewDispatcher(NewRegistry()))

	tr.Set(42, 1, true)
	tr.Set(43, 1, true)
	tr.ClearUser(42, 1)

	assert.Empty(t, tr.TypingUsers(42))
	assert.Equal(t, []int64{1}, tr.TypingUsers(43))
}
