package postgres

import (
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open opens a PostgreSQL database using the pgx stdlib driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate runs idempotent DDL migrations for the messaging schema.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id               BIGSERIAL PRIMARY KEY,
			username         VARCHAR(50)  UNIQUE NOT NULL,
			hashed_password  VARCHAR(255) NOT NULL,
			is_active        BOOLEAN      NOT NULL DEFAULT TRUE,
			created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS conversations (
			id               BIGSERIAL   PRIMARY KEY,
			participant_1_id BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			participant_2_id BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at       TIMESTAMPTZ,
			last_message_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (participant_1_id, participant_2_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_last_message
			ON conversations (last_message_at)`,

		`CREATE TABLE IF NOT EXISTS messages (
			id              BIGSERIAL   PRIMARY KEY,
			conversation_id BIGINT      NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender_id       BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content         TEXT        NOT NULL,
			message_type    VARCHAR(20) NOT NULL DEFAULT 'text',
			status          VARCHAR(20) NOT NULL DEFAULT 'sent',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			delivered_at    TIMESTAMPTZ,
			read_at         TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_conversation_created
			ON messages (conversation_id, created_at)`,

		`CREATE TABLE IF NOT EXISTS conversation_participants (
			id                   BIGSERIAL   PRIMARY KEY,
			conversation_id      BIGINT      NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			user_id              BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			is_online            BOOLEAN     NOT NULL DEFAULT FALSE,
			last_seen_at         TIMESTAMPTZ,
			last_read_message_id BIGINT      REFERENCES messages(id),
			unread_count         INTEGER     NOT NULL DEFAULT 0,
			joined_at            TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (conversation_id, user_id)
		)`,

		`CREATE TABLE IF NOT EXISTS friendships (
			id         BIGSERIAL   PRIMARY KEY,
			user_id    BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			friend_id  BIGINT      NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			status     VARCHAR(20) NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, friend_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
