package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mydocta/docta/pkg/chat"
)

// SQLiteStorer persists conversation slots in a SQLite database. One row per
// slot; the payload column carries the JSON-serialized message array and is
// replaced on every Save.
type SQLiteStorer struct {
	db *sql.DB
}

// NewSQLiteStorer opens (or creates) the database at path. Use ":memory:"
// for an in-memory database.
func NewSQLiteStorer(path string) (*SQLiteStorer, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Each pooled connection to ":memory:" would get its own database.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		slot       TEXT PRIMARY KEY,
		payload    TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStorer{db: db}, nil
}

// Save overwrites the slot with the serialized message array.
func (s *SQLiteStorer) Save(ctx context.Context, slot string, msgs []chat.Message) error {
	if msgs == nil {
		msgs = []chat.Message{}
	}

	payload, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("marshaling conversation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (slot, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at;`,
		slot, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving conversation: %w", err)
	}

	return nil
}

// Load returns the slot's messages. A missing slot yields an empty
// conversation.
func (s *SQLiteStorer) Load(ctx context.Context, slot string) ([]chat.Message, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM conversations WHERE slot = ?;`, slot,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}

	var msgs []chat.Message
	if err := json.Unmarshal([]byte(payload), &msgs); err != nil {
		return nil, fmt.Errorf("unmarshaling conversation: %w", err)
	}

	return msgs, nil
}

// Clear erases the slot.
func (s *SQLiteStorer) Clear(ctx context.Context, slot string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE slot = ?;`, slot,
	); err != nil {
		return fmt.Errorf("clearing conversation: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *SQLiteStorer) Close() error {
	return s.db.Close()
}
