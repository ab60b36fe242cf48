package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// PostgresStore persists the chat logs in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	store := &PostgresStore{pool: pool}

	if err := store.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		seq BIGINT PRIMARY KEY,
		id TEXT UNIQUE NOT NULL,
		room_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		ts BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS direct_messages (
		seq BIGINT PRIMARY KEY,
		id TEXT UNIQUE NOT NULL,
		from_id TEXT NOT NULL,
		from_name TEXT NOT NULL DEFAULT '',
		to_id TEXT NOT NULL,
		body TEXT NOT NULL,
		ts BIGINT NOT NULL,
		read_flag BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(room_id, ts);
	CREATE INDEX IF NOT EXISTS idx_dm_pair ON direct_messages(from_id, to_id);
	CREATE INDEX IF NOT EXISTS idx_dm_unread ON direct_messages(to_id, read_flag);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// MaxOrdering returns the highest persisted timestamp and sequence
// across both logs.
func (s *PostgresStore) MaxOrdering(ctx context.Context) (int64, uint64, error) {
	var ts int64
	var seq uint64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(MAX(ts), 0), COALESCE(MAX(seq), 0) FROM (
			SELECT ts, seq FROM messages
			UNION ALL
			SELECT ts, seq FROM direct_messages
		) AS logs
	`).Scan(&ts, &seq)
	if err != nil {
		return 0, 0, err
	}
	return ts, seq, nil
}

// AppendMessage inserts a room message.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (seq, id, room_id, author_id, author_name, body, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.Seq, msg.ID, msg.RoomID, msg.AuthorID, msg.AuthorName, msg.Body, msg.Timestamp)
	return err
}

// MessagesSince retrieves the room's messages newer than since.
func (s *PostgresStore) MessagesSince(ctx context.Context, roomID string, since int64) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT seq, id, room_id, author_id, author_name, body, ts
		FROM messages
		WHERE room_id = $1 AND ts > $2
		ORDER BY seq
	`, roomID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.Seq,
			&msg.ID,
			&msg.RoomID,
			&msg.AuthorID,
			&msg.AuthorName,
			&msg.Body,
			&msg.Timestamp,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// AppendDM inserts a direct message.
func (s *PostgresStore) AppendDM(ctx context.Context, dm *models.DirectMessage) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO direct_messages (seq, id, from_id, from_name, to_id, body, ts, read_flag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, dm.Seq, dm.ID, dm.FromID, dm.FromName, dm.ToID, dm.Body, dm.Timestamp, dm.Read)
	return err
}

// ConversationSince retrieves the pair's messages newer than since and
// marks the whole history from otherID to selfID as read, in one
// transaction.
func (s *PostgresStore) ConversationSince(ctx context.Context, selfID, otherID string, since int64) ([]models.DirectMessage, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE direct_messages
		SET read_flag = TRUE
		WHERE to_id = $1 AND from_id = $2 AND read_flag = FALSE
	`, selfID, otherID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT seq, id, from_id, from_name, to_id, body, ts, read_flag
		FROM direct_messages
		WHERE ((from_id = $1 AND to_id = $2) OR (from_id = $2 AND to_id = $1)) AND ts > $3
		ORDER BY seq
	`, selfID, otherID, since)
	if err != nil {
		return nil, err
	}

	dms := make([]models.DirectMessage, 0)
	for rows.Next() {
		var dm models.DirectMessage
		err := rows.Scan(
			&dm.Seq,
			&dm.ID,
			&dm.FromID,
			&dm.FromName,
			&dm.ToID,
			&dm.Body,
			&dm.Timestamp,
			&dm.Read,
		)
		if err != nil {
			rows.Close()
			return nil, err
		}
		dms = append(dms, dm)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return dms, nil
}

// UnreadCount counts unread direct messages addressed to selfID.
func (s *PostgresStore) UnreadCount(ctx context.Context, selfID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM direct_messages WHERE to_id = $1 AND read_flag = FALSE
	`, selfID).Scan(&count)
	return count, err
}
