package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"livechat/internal/domain"
	"livechat/internal/service"
)

// readWriteConn is the full transport seam for a session's own connection.
type readWriteConn interface {
	Conn
	ReadJSON(v any) error
}

// SessionController drives one live connection through its lifecycle:
// open (registered, presence announced) -> decode/dispatch loop -> closing
// (unregister, presence-offline) -> closed. Malformed inbound events produce
// an error event on the same session; only transport failures end it.
type SessionController struct {
	session  *Session
	conn     readWriteConn
	presence *Presence
	typing   *TypingTracker
	messages *service.MessageService

	// storeTimeout bounds store calls made from the loop so a slow store
	// surfaces a retryable error event instead of stalling reads.
	storeTimeout time.Duration
}

func NewSessionController(
	userID, conversationID int64,
	conn readWriteConn,
	presence *Presence,
	typing *TypingTracker,
	messages *service.MessageService,
	storeTimeout time.Duration,
) *SessionController {
	return &SessionController{
		session:      NewSession(userID, conversationID, conn),
		conn:         conn,
		presence:     presence,
		typing:       typing,
		messages:     messages,
		storeTimeout: storeTimeout,
	}
}

// Session exposes the controller's session, mainly for tests.
func (c *SessionController) Session() *Session {
	return c.session
}

// Run blocks until the connection ends. Teardown is symmetric with setup and
// runs exactly once, whatever path ends the loop.
func (c *SessionController) Run(ctx context.Context) {
	c.presence.Connected(ctx, c.session)
	defer func() {
		c.typing.ClearUser(c.session.ConversationID, c.session.UserID)
		c.presence.Disconnected(c.session)
		_ = c.conn.Close()
	}()

	_ = c.session.Send(ConnectionEvent{
		Type:    "connection",
		Status:  "connected",
		Message: "successfully connected to chat",
	})

	for {
		var evt inboundEvent
		if err := c.conn.ReadJSON(&evt); err != nil {
			if isDecodeError(err) {
				c.sendError("invalid JSON payload")
				continue
			}
			return // transport failure or client close
		}
		c.dispatch(ctx, evt)
	}
}

func (c *SessionController) dispatch(ctx context.Context, evt inboundEvent) {
	switch evt.EventType {
	case "send_message":
		c.handleSendMessage(ctx, evt.Data)
	case "typing":
		c.handleTyping(evt.Data)
	case "mark_read":
		c.handleMarkRead(ctx, evt.Data)
	default:
		c.sendError(fmt.Sprintf("unknown event type %q", evt.EventType))
	}
}

func (c *SessionController) handleSendMessage(ctx context.Context, data json.RawMessage) {
	var in sendMessageData
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid send_message payload")
		return
	}

	sctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	msg, err := c.messages.Send(sctx, c.session.ConversationID, c.session.UserID, in.Content)
	if err != nil {
		// Never report success without durable persistence. Content rules
		// (trimming, emptiness, length) live in the service, shared with the
		// non-live send path.
		log.Printf("ws: send_message from user %d: %v", c.session.UserID, err)
		if errors.Is(err, domain.ErrInvalidInput) {
			c.sendError("invalid message content")
		} else {
			c.sendError("failed to send message")
		}
		return
	}

	_ = c.session.Send(AckEvent{Type: "message_sent", Data: msg})
}

func (c *SessionController) handleTyping(data json.RawMessage) {
	var in typingData
	if err := json.Unmarshal(data, &in); err != nil {
		c.sendError("invalid typing payload")
		return
	}
	c.typing.Set(c.session.ConversationID, c.session.UserID, in.IsTyping)
}

func (c *SessionController) handleMarkRead(ctx context.Context, data json.RawMessage) {
	var in markReadData
	if err := json.Unmarshal(data, &in); err != nil || in.LastMessageID == 0 {
		c.sendError("invalid mark_read payload")
		return
	}

	sctx, cancel := context.WithTimeout(ctx, c.storeTimeout)
	defer cancel()
	err := c.messages.MarkRead(sctx, c.session.ConversationID, c.session.UserID, in.LastMessageID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrNotFound):
		// Authorization failures on the live channel are dropped, not fatal.
		log.Printf("ws: mark_read rejected for user %d in conversation %d: %v", c.session.UserID, c.session.ConversationID, err)
	default:
		log.Printf("ws: mark_read from user %d: %v", c.session.UserID, err)
		c.sendError("failed to mark messages as read")
	}
}

func (c *SessionController) sendError(msg string) {
	_ = c.session.Send(newErrorEvent(msg))
}

// isDecodeError distinguishes a bad frame from a dead connection.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
