package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"livechat/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, conversation_id, sender_id, content, message_type, status, created_at, delivered_at, read_at`

// Create persists the message and, in the same transaction, bumps the
// conversation's last_message_at and increments every other participant's
// unread counter.
func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, message_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, created_at
	`, m.ConversationID, m.SenderID, m.Content, m.Type, m.Status).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversations SET last_message_at = $2, updated_at = $2 WHERE id = $1
	`, m.ConversationID, m.CreatedAt); err != nil {
		return fmt.Errorf("update last_message_at: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE conversation_participants
		SET unread_count = unread_count + 1
		WHERE conversation_id = $1 AND user_id <> $2
	`, m.ConversationID, m.SenderID); err != nil {
		return fmt.Errorf("increment unread: %w", err)
	}

	return tx.Commit()
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = $1
	`, id).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Status, &m.CreatedAt, &m.DeliveredAt, &m.ReadAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64, limit int, beforeID int64) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + ` FROM messages
		WHERE conversation_id = $1`
	args := []any{conversationID}
	if beforeID > 0 {
		query += ` AND id < $2`
		args = append(args, beforeID)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Status, &m.CreatedAt, &m.DeliveredAt, &m.ReadAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *MessageRepo) CountForConversation(ctx context.Context, conversationID int64, beforeID int64) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`
	args := []any{conversationID}
	if beforeID > 0 {
		query += ` AND id < $2`
		args = append(args, beforeID)
	}
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepo) LatestForConversation(ctx context.Context, conversationID int64) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC LIMIT 1
	`, conversationID).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Status, &m.CreatedAt, &m.DeliveredAt, &m.ReadAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest message: %w", err)
	}
	return m, nil
}

// UpdateStatus applies a forward-only transition. The WHERE guard makes
// repeated or backward transitions no-ops.
func (r *MessageRepo) UpdateStatus(ctx context.Context, id int64, status domain.MessageStatus, at time.Time) (bool, error) {
	var res sql.Result
	var err error
	switch status {
	case domain.StatusDelivered:
		res, err = r.db.ExecContext(ctx, `
			UPDATE messages SET status = 'delivered', delivered_at = $2
			WHERE id = $1 AND status = 'sent'
		`, id, at)
	case domain.StatusRead:
		res, err = r.db.ExecContext(ctx, `
			UPDATE messages SET status = 'read', read_at = $2
			WHERE id = $1 AND status IN ('sent', 'delivered')
		`, id, at)
	default:
		return false, fmt.Errorf("invalid status transition target %q", status)
	}
	if err != nil {
		return false, fmt.Errorf("update message status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
