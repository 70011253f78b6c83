// Package store selects and wires a database backend.
package store

import (
	"database/sql"
	"fmt"

	"livechat/internal/config"
	"livechat/internal/domain"
	"livechat/internal/store/postgres"
	"livechat/internal/store/sqlite"
)

// Repositories bundles the persistence interfaces a running server needs.
type Repositories struct {
	Users         domain.UserRepository
	Conversations domain.ConversationRepository
	Messages      domain.MessageRepository
	Participants  domain.ParticipantRepository
	Friendships   domain.FriendshipRepository
}

// Open opens the configured backend, runs migrations, and returns the
// repository bundle.
func Open(cfg *config.Config) (*sql.DB, *Repositories, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, &Repositories{
			Users:         postgres.NewUserRepo(db),
			Conversations: postgres.NewConversationRepo(db),
			Messages:      postgres.NewMessageRepo(db),
			Participants:  postgres.NewParticipantRepo(db),
			Friendships:   postgres.NewFriendshipRepo(db),
		}, nil
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		return db, &Repositories{
			Users:         sqlite.NewUserRepo(db),
			Conversations: sqlite.NewConversationRepo(db),
			Messages:      sqlite.NewMessageRepo(db),
			Participants:  sqlite.NewParticipantRepo(db),
			Friendships:   sqlite.NewFriendshipRepo(db),
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}
