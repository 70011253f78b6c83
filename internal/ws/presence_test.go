package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestPresence(participants *recordingParticipants) (*Presence, *Registry) {
	r := NewRegistry()
	return NewPresence(r, participants, NewDispatcher(r), time.Second), r
}

func TestConnectedAnnouncesOnFirstSessionOnly(t *testing.T) {
	participants := &recordingParticipants{}
	p, r := newTestPresence(participants)

	bobConn := &fakeConn{}
	r.Register(NewSession(2, 42, bobConn))

	s1 := NewSession(1, 42, &fakeConn{})
	s2 := NewSession(1, 42, &fakeConn{})

	p.Connected(context.Background(), s1)
	p.Connected(context.Background(), s2)

	calls := participants.setOnlineCalls()
	assert.Len(t, calls, 1)
	assert.Equal(t, setOnlineCall{ConversationID: 42, UserID: 1, Online: true}, calls[0])

	events := bobConn.writtenEvents()
	assert.Len(t, events, 1)
	evt := events[0].(PresenceEvent)
	assert.True(t, evt.IsOnline)
	assert.Nil(t, evt.LastSeen)
}

func TestDisconnectedAnnouncesOnLastSessionOnly(t *testing.T) {
	participants := &recordingParticipants{}
	p, r := newTestPresence(participants)

	bobConn := &fakeConn{}
	r.Register(NewSession(2, 42, bobConn))

	s1 := NewSession(1, 42, &fakeConn{})
	s2 := NewSession(1, 42, &fakeConn{})
	p.Connected(context.Background(), s1)
	p.Connected(context.Background(), s2)

	p.Disconnected(s1)
	assert.Len(t, participants.setOnlineCalls(), 1) // still online

	p.Disconnected(s2)
	calls := participants.setOnlineCalls()
	assert.Len(t, calls, 2)
	assert.False(t, calls[1].Online)
	assert.NotNil(t, calls[1].LastSeen)

	events := bobConn.writtenEvents()
	assert.Len(t, events, 2)
	offline := events[1].(PresenceEvent)
	assert.False(t, offline.IsOnline)
	assert.NotNil(t, offline.LastSeen)
}

func TestPresencePerConversationIndependence(t *testing.T) {
	participants := &recordingParticipants{}
	p, _ := newTestPresence(participants)

	s1 := NewSession(1, 42, &fakeConn{})
	s2 := NewSession(1, 43, &fakeConn{})
	p.Connected(context.Background(), s1)
	p.Connected(context.Background(), s2)

	// Same user, different conversations: two independent online edges.
	calls := participants.setOnlineCalls()
	assert.Len(t, calls, 2)
	assert.Equal(t, int64(42), calls[0].ConversationID)
	assert.Equal(t, int64(43), calls[1].ConversationID)

	p.Disconnected(s1)
	calls = participants.setOnlineCalls()
	assert.Len(t, calls, 3)
	assert.False(t, calls[2].Online)
	assert.Equal(t, int64(42), calls[2].ConversationID)
}

func TestSessionEvictedByDispatcherStillGoesOffline(t *testing.T) {
	participants := &recordingParticipants{}
	r := NewRegistry()
	d := NewDispatcher(r)
	p := NewPresence(r, participants, d, time.Second)

	bobConn := &fakeConn{}
	r.Register(NewSession(2, 42, bobConn))

	s := NewSession(1, 42, &fakeConn{failWrites: true})
	p.Connected(context.Background(), s)

	// A fan-out hits the dead transport and the dispatcher evicts the
	// session before its own teardown has run.
	d.ToConversation(42, newErrorEvent("ping"), 0)
	assert.False(t, r.IsPresent(1, 42))

	// Teardown must still persist and announce the offline transition even
	// though the registry no longer holds the session.
	p.Disconnected(s)

	calls := participants.setOnlineCalls()
	assert.Len(t, calls, 2)
	assert.False(t, calls[1].Online)
	assert.NotNil(t, calls[1].LastSeen)

	var sawOffline bool
	for _, e := range bobConn.writtenEvents() {
		if evt, ok := e.(PresenceEvent); ok && !evt.IsOnline && evt.UserID == 1 {
			sawOffline = true
		}
	}
	assert.True(t, sawOffline)
}

func TestDisconnectedSurvivesCanceledConnectionContext(t *testing.T) {
	participants := &recordingParticipants{}
	p, _ := newTestPresence(participants)

	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(1, 42, &fakeConn{})
	p.Connected(ctx, s)
	cancel()

	// Teardown runs after the connection context is gone; the offline write
	// must still reach the store.
	p.Disconnected(s)

	calls := participants.setOnlineCalls()
	assert.Len(t, calls, 2)
	assert.False(t, calls[1].Online)
}
