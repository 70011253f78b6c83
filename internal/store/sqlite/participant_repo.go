package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"livechat/internal/domain"
)

type ParticipantRepo struct {
	db *sql.DB
}

func NewParticipantRepo(db *sql.DB) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

var _ domain.ParticipantRepository = (*ParticipantRepo)(nil)

func (r *ParticipantRepo) Get(ctx context.Context, conversationID, userID int64) (*domain.Participant, error) {
	p := &domain.Participant{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, user_id, is_online, last_seen_at, last_read_message_id, unread_count, joined_at
		FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(
		&p.ID, &p.ConversationID, &p.UserID, &p.IsOnline,
		&p.LastSeenAt, &p.LastReadMessageID, &p.UnreadCount, &p.JoinedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}
	return p, nil
}

func (r *ParticipantRepo) SetOnline(ctx context.Context, conversationID, userID int64, online bool, lastSeen *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants
		SET is_online = ?, last_seen_at = COALESCE(?, last_seen_at)
		WHERE conversation_id = ? AND user_id = ?
	`, online, lastSeen, conversationID, userID)
	if err != nil {
		return fmt.Errorf("set online: %w", err)
	}
	return nil
}

func (r *ParticipantRepo) MarkRead(ctx context.Context, conversationID, userID, lastMessageID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversation_participants
		SET unread_count = 0,
		    last_read_message_id = CASE
		        WHEN last_read_message_id IS NULL OR last_read_message_id < ? THEN ?
		        ELSE last_read_message_id
		    END
		WHERE conversation_id = ? AND user_id = ?
	`, lastMessageID, lastMessageID, conversationID, userID)
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	return nil
}

func (r *ParticipantRepo) UnreadCount(ctx context.Context, conversationID, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT unread_count FROM conversation_participants
		WHERE conversation_id = ? AND user_id = ?
	`, conversationID, userID).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}
