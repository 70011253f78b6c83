package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"livechat/internal/domain"
)

// fakeConn is a scripted transport: ReadJSON pops pre-loaded frames and
// reports a transport failure once they run out.
type fakeConn struct {
	mu         sync.Mutex
	frames     []string
	written    []any
	failWrites bool
	closed     bool
}

var errConnClosed = errors.New("connection closed")

func (c *fakeConn) ReadJSON(v any) error {
	c.mu.Lock()
	if len(c.frames) == 0 {
		c.mu.Unlock()
		return errConnClosed
	}
	frame := c.frames[0]
	c.frames = c.frames[1:]
	c.mu.Unlock()
	return json.Unmarshal([]byte(frame), v)
}

func (c *fakeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) writtenEvents() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.written...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// chanConn blocks on a channel of frames, so tests can interleave traffic
// between two live controllers. Closing the channel ends the connection.
type chanConn struct {
	frames chan string

	mu      sync.Mutex
	written []any
	closed  bool
}

func newChanConn() *chanConn {
	return &chanConn{frames: make(chan string, 8)}
}

func (c *chanConn) ReadJSON(v any) error {
	frame, ok := <-c.frames
	if !ok {
		return errConnClosed
	}
	return json.Unmarshal([]byte(frame), v)
}

func (c *chanConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, v)
	return nil
}

func (c *chanConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *chanConn) writtenEvents() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.written...)
}

// recordingParticipants records SetOnline calls; the other repository methods
// answer with zero values.
type recordingParticipants struct {
	mu    sync.Mutex
	calls []setOnlineCall
}

type setOnlineCall struct {
	ConversationID int64
	UserID         int64
	Online         bool
	LastSeen       *time.Time
}

func (r *recordingParticipants) Get(ctx context.Context, conversationID, userID int64) (*domain.Participant, error) {
	return &domain.Participant{ConversationID: conversationID, UserID: userID}, nil
}

func (r *recordingParticipants) SetOnline(ctx context.Context, conversationID, userID int64, online bool, lastSeen *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, setOnlineCall{conversationID, userID, online, lastSeen})
	return nil
}

func (r *recordingParticipants) MarkRead(ctx context.Context, conversationID, userID, lastMessageID int64) error {
	return nil
}

func (r *recordingParticipants) UnreadCount(ctx context.Context, conversationID, userID int64) (int, error) {
	return 0, nil
}

func (r *recordingParticipants) setOnlineCalls() []setOnlineCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]setOnlineCall(nil), r.calls...)
}
