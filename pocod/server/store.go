package server

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/poco-ai/poco-console/internals/schemas"
)

//go:embed migrations/*.sql
var migrations embed.FS

var (
	errSessionNotFound = errors.New("session not found")
	errMessageExists   = errors.New("message id already exists")
)

type sessionStore struct {
	db *sql.DB
}

type sessionRecord struct {
	ID        string
	Prompt    string
	CreatedAt time.Time
	Progress  int
}

func newSessionStore(ctx context.Context, dbPath string) (*sessionStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// One writer keeps sqlite away from SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &sessionStore{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

func (s *sessionStore) Close() error {
	return s.db.Close()
}

func (s *sessionStore) createSession(ctx context.Context, record sessionRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sessions (id, prompt, created_at, progress)
VALUES (?, ?, ?, ?)
`, record.ID, record.Prompt, record.CreatedAt.UTC().Format(time.RFC3339Nano), record.Progress)
	return err
}

func (s *sessionStore) getSession(ctx context.Context, id string) (*sessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, prompt, created_at, progress
FROM sessions
WHERE id = ?
`, id)
	var record sessionRecord
	var createdAt string
	if err := row.Scan(&record.ID, &record.Prompt, &createdAt, &record.Progress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errSessionNotFound
		}
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	record.CreatedAt = parsed
	return &record, nil
}

// advanceProgress stores progress if it is higher than the stored value and
// returns the resulting value.
func (s *sessionStore) advanceProgress(ctx context.Context, id string, progress int) (int, error) {
	if _, err := s.db.ExecContext(ctx, `
UPDATE sessions SET progress = MAX(progress, ?) WHERE id = ?
`, progress, id); err != nil {
		return 0, err
	}
	var stored int
	err := s.db.QueryRowContext(ctx, `SELECT progress FROM sessions WHERE id = ?`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errSessionNotFound
	}
	return stored, err
}

func (s *sessionStore) appendMessage(ctx context.Context, sessionID string, msg schemas.ChatMessage) error {
	var metadata any
	if msg.Metadata != nil {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		metadata = string(data)
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM messages WHERE id = ?`, msg.ID).Scan(&exists); err != nil {
		return err
	}
	if exists > 0 {
		return errMessageExists
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO messages (id, session_id, role, content, status, timestamp, metadata_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, msg.ID, sessionID, string(msg.Role), msg.Content, string(msg.Status), msg.Timestamp, metadata)
	return err
}

// completeMessage moves a streaming message to completed. Other states are
// left untouched.
func (s *sessionStore) completeMessage(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
UPDATE messages SET status = ? WHERE id = ? AND status = ?
`, string(schemas.MessageStatusCompleted), id, string(schemas.MessageStatusStreaming))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// listMessages returns messages in insertion order. With afterID set, only
// messages stored after it are returned; an unknown afterID yields none.
func (s *sessionStore) listMessages(ctx context.Context, sessionID, afterID string) ([]schemas.ChatMessage, error) {
	after := int64(0)
	if afterID != "" {
		err := s.db.QueryRowContext(ctx, `SELECT seq FROM messages WHERE id = ? AND session_id = ?`, afterID, sessionID).Scan(&after)
		if errors.Is(err, sql.ErrNoRows) {
			return []schemas.ChatMessage{}, nil
		}
		if err != nil {
			return nil, err
		}
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, role, content, status, timestamp, metadata_json
FROM messages
WHERE session_id = ? AND seq > ?
ORDER BY seq
`, sessionID, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []schemas.ChatMessage{}
	for rows.Next() {
		var msg schemas.ChatMessage
		var role, status string
		var metadata sql.NullString
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &status, &msg.Timestamp, &metadata); err != nil {
			return nil, err
		}
		msg.Role = schemas.MessageRole(role)
		msg.Status = schemas.MessageStatus(status)
		if metadata.Valid && metadata.String != "" {
			msg.Metadata = &schemas.MessageMetadata{}
			if err := json.Unmarshal([]byte(metadata.String), msg.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
