// Package transcript persists finished conversation turns to SQLite so
// sessions leave an auditable record of what was asked, what was answered,
// and which sources backed each answer. The store is append-only; the
// session engine remains the sole owner of live history.
package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/docentlabs/docent/pkg/llm"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	text TEXT NOT NULL,
	citations TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
`

// Store is a SQLite-backed transcript log.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens (creating if needed) the transcript database at path.
// Use ":memory:" for an in-memory store.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("transcript database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening transcript database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating transcript schema: %w", err)
	}

	logger.Debug("transcript store ready", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Append records messages for a session in order.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...llm.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, msg := range msgs {
		cites, err := json.Marshal(msg.Citations)
		if err != nil {
			return fmt.Errorf("encoding citations: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO turns (session_id, role, text, citations, created_at) VALUES (?, ?, ?, ?, ?)`,
			sessionID, msg.Role, msg.Text, string(cites), time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("inserting turn: %w", err)
		}
	}
	return tx.Commit()
}

// History returns a session's recorded messages in insertion order.
func (s *Store) History(ctx context.Context, sessionID string) ([]llm.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, citations FROM turns WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	defer rows.Close()

	var msgs []llm.Message
	for rows.Next() {
		var msg llm.Message
		var cites string
		if err := rows.Scan(&msg.Role, &msg.Text, &cites); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if err := json.Unmarshal([]byte(cites), &msg.Citations); err != nil {
			return nil, fmt.Errorf("decoding citations: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// Sessions returns the distinct session IDs present in the store, most
// recent first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id FROM turns GROUP BY session_id ORDER BY MAX(id) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
