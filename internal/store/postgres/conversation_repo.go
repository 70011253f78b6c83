package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"livechat/internal/domain"
)

type ConversationRepo struct {
	db *sql.DB
}

func NewConversationRepo(db *sql.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

var _ domain.ConversationRepository = (*ConversationRepo)(nil)

const conversationColumns = `id, participant_1_id, participant_2_id, created_at, updated_at, last_message_at`

func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, `
		INSERT INTO conversations (participant_1_id, participant_2_id, created_at, last_message_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, last_message_at
	`, c.Participant1ID, c.Participant2ID).Scan(&c.ID, &c.CreatedAt, &c.LastMessageAt); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for _, uid := range []int64{c.Participant1ID, c.Participant2ID} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id, joined_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT DO NOTHING
		`, c.ID, uid); err != nil {
			return fmt.Errorf("insert participant %d: %w", uid, err)
		}
	}

	return tx.Commit()
}

func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations WHERE id = $1
	`, id).Scan(&c.ID, &c.Participant1ID, &c.Participant2ID, &c.CreatedAt, &c.UpdatedAt, &c.LastMessageAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) GetBetween(ctx context.Context, userID, otherUserID int64) (*domain.Conversation, error) {
	lo, hi := userID, otherUserID
	if lo > hi {
		lo, hi = hi, lo
	}
	c := &domain.Conversation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participant_1_id = $1 AND participant_2_id = $2
	`, lo, hi).Scan(&c.ID, &c.Participant1ID, &c.Participant2ID, &c.CreatedAt, &c.UpdatedAt, &c.LastMessageAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation between users: %w", err)
	}
	return c, nil
}

func (r *ConversationRepo) ListForUser(ctx context.Context, userID int64) ([]*domain.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+conversationColumns+` FROM conversations
		WHERE participant_1_id = $1 OR participant_2_id = $1
		ORDER BY last_message_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var res []*domain.Conversation
	for rows.Next() {
		c := &domain.Conversation{}
		if err := rows.Scan(&c.ID, &c.Participant1ID, &c.Participant2ID, &c.CreatedAt, &c.UpdatedAt, &c.LastMessageAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
