package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/belchote2025/nuevaweb-sub001/internal/models"
)

// SQLiteStore persists the chat logs in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/chat.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/chat.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		seq INTEGER PRIMARY KEY,
		id TEXT UNIQUE NOT NULL,
		room_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		author_name TEXT NOT NULL DEFAULT '',
		body TEXT NOT NULL,
		ts INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS direct_messages (
		seq INTEGER PRIMARY KEY,
		id TEXT UNIQUE NOT NULL,
		from_id TEXT NOT NULL,
		from_name TEXT NOT NULL DEFAULT '',
		to_id TEXT NOT NULL,
		body TEXT NOT NULL,
		ts INTEGER NOT NULL,
		read_flag INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_messages_room_ts ON messages(room_id, ts);
	CREATE INDEX IF NOT EXISTS idx_dm_pair ON direct_messages(from_id, to_id);
	CREATE INDEX IF NOT EXISTS idx_dm_unread ON direct_messages(to_id, read_flag);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// MaxOrdering returns the highest persisted timestamp and sequence
// across both logs.
func (s *SQLiteStore) MaxOrdering(ctx context.Context) (int64, uint64, error) {
	var ts int64
	var seq uint64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(ts), 0), COALESCE(MAX(seq), 0) FROM (
			SELECT ts, seq FROM messages
			UNION ALL
			SELECT ts, seq FROM direct_messages
		)
	`).Scan(&ts, &seq)
	if err != nil {
		return 0, 0, err
	}
	return ts, seq, nil
}

// AppendMessage inserts a room message.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (seq, id, room_id, author_id, author_name, body, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.Seq, msg.ID, msg.RoomID, msg.AuthorID, msg.AuthorName, msg.Body, msg.Timestamp)
	return err
}

// MessagesSince retrieves the room's messages newer than since.
func (s *SQLiteStore) MessagesSince(ctx context.Context, roomID string, since int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, room_id, author_id, author_name, body, ts
		FROM messages
		WHERE room_id = ? AND ts > ?
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
func (s *SQLiteStore) AppendDM(ctx context.Context, dm *models.DirectMessage) error {
	readFlag := 0
	if dm.Read {
		readFlag = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO direct_messages (seq, id, from_id, from_name, to_id, body, ts, read_flag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, dm.Seq, dm.ID, dm.FromID, dm.FromName, dm.ToID, dm.Body, dm.Timestamp, readFlag)
	return err
}

// ConversationSince retrieves the pair's messages newer than since and
// marks the whole history from otherID to selfID as read, in one
// transaction.
func (s *SQLiteStore) ConversationSince(ctx context.Context, selfID, otherID string, since int64) ([]models.DirectMessage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE direct_messages
		SET read_flag = 1
		WHERE to_id = ? AND from_id = ? AND read_flag = 0
	`, selfID, otherID); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT seq, id, from_id, from_name, to_id, body, ts, read_flag
		FROM direct_messages
		WHERE ((from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)) AND ts > ?
		ORDER BY seq
	`, selfID, otherID, otherID, selfID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dms := make([]models.DirectMessage, 0)
	for rows.Next() {
		var dm models.DirectMessage
		var readFlag int
		err := rows.Scan(
			&dm.Seq,
			&dm.ID,
			&dm.FromID,
			&dm.FromName,
			&dm.ToID,
			&dm.Body,
			&dm.Timestamp,
			&readFlag,
		)
		if err != nil {
			return nil, err
		}
		dm.Read = readFlag == 1
		dms = append(dms, dm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return dms, nil
}

// UnreadCount counts unread direct messages addressed to selfID.
func (s *SQLiteStore) UnreadCount(ctx context.Context, selfID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM direct_messages WHERE to_id = ? AND read_flag = 0
	`, selfID).Scan(&count)
	return count, err
}
