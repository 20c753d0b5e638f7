package client

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS chat_history (
    id           TEXT PRIMARY KEY,
    workspace_id TEXT NOT NULL,
    user_id      TEXT NOT NULL,
    sender_id    TEXT NOT NULL,
    sender_label TEXT NOT NULL,
    body         TEXT NOT NULL,
    sent_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chat_history_scope ON chat_history(workspace_id, user_id, id);
`

// CachedMessage is one locally cached chat message.
type CachedMessage struct {
	ID          string
	SenderID    string
	SenderLabel string
	Body        string
	SentAt      string
}

// HistoryCache stores chat history locally, keyed by (workspace,
// participant). The server never persists chat; this cache is the only
// history a participant has, and one participant's entries are never
// visible through another participant's key.
type HistoryCache struct {
	db *sql.DB
}

// OpenHistoryCache opens (creating if needed) the cache database at path.
func OpenHistoryCache(path string) (*HistoryCache, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("create cache directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history cache: %w", err)
	}
	// An in-memory database exists per connection, so it must stay on one.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &HistoryCache{db: db}, nil
}

// Close closes the cache database.
func (h *HistoryCache) Close() error {
	return h.db.Close()
}

// Append records a message under the (workspace, participant) key. ULID ids
// keep entries ordered by insertion time.
func (h *HistoryCache) Append(ctx context.Context, workspaceID, userID string, msg CachedMessage) error {
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	_, err := h.db.ExecContext(ctx, `
        INSERT INTO chat_history (id, workspace_id, user_id, sender_id, sender_label, body, sent_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, msg.ID, workspaceID, userID, msg.SenderID, msg.SenderLabel, msg.Body, msg.SentAt)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// List returns the cached messages for one (workspace, participant) key in
// insertion order.
func (h *HistoryCache) List(ctx context.Context, workspaceID, userID string) ([]CachedMessage, error) {
	rows, err := h.db.QueryContext(ctx, `
        SELECT id, sender_id, sender_label, body, sent_at
        FROM chat_history
        WHERE workspace_id = ? AND user_id = ?
        ORDER BY id
    `, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []CachedMessage
	for rows.Next() {
		var msg CachedMessage
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.SenderLabel, &msg.Body, &msg.SentAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Clear removes the cached history for exactly one (workspace, participant)
// key. Entries under any other key are untouched.
func (h *HistoryCache) Clear(ctx context.Context, workspaceID, userID string) error {
	_, err := h.db.ExecContext(ctx, `
        DELETE FROM chat_history WHERE workspace_id = ? AND user_id = ?
    `, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}
