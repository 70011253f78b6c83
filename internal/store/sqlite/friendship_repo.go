package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"livechat/internal/domain"
)

type FriendshipRepo struct {
	db *sql.DB
}

func NewFriendshipRepo(db *sql.DB) *FriendshipRepo {
	return &FriendshipRepo{db: db}
}

var _ domain.FriendshipRepository = (*FriendshipRepo)(nil)

func (r *FriendshipRepo) AreFriends(ctx context.Context, userID, otherUserID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE user_id = ? AND friend_id = ? AND status = 'active'
		)
	`, userID, otherUserID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return exists, nil
}
