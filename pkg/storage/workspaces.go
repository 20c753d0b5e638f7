package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/odvcencio/devroom/pkg/workspace"
)

// Load fetches a workspace with its membership by id.
func (s *Store) Load(ctx context.Context, id string) (*workspace.Workspace, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}

	var ws workspace.Workspace
	var treeJSON string
	err := s.db.QueryRowContext(ctx, `
        SELECT id, name, owner_id, file_tree, revision
        FROM workspaces WHERE id = ?
    `, id).Scan(&ws.ID, &ws.Name, &ws.OwnerID, &treeJSON, &ws.Revision)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, workspace.ErrNotFound
		}
		return nil, fmt.Errorf("load workspace: %w", err)
	}

	if err := json.Unmarshal([]byte(treeJSON), &ws.FileTree); err != nil {
		return nil, fmt.Errorf("decode file tree: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT user_id FROM workspace_members WHERE workspace_id = ? ORDER BY added_at
    `, id)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		ws.Members = append(ws.Members, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	return &ws, nil
}

// Save overwrites a workspace's persisted state. No version check: the last
// writer wins.
func (s *Store) Save(ctx context.Context, ws *workspace.Workspace) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}

	treeJSON, err := json.Marshal(ws.FileTree)
	if err != nil {
		return fmt.Errorf("encode file tree: %w", err)
	}
	if ws.FileTree == nil {
		treeJSON = []byte("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE workspaces
        SET name = ?, file_tree = ?, revision = ?, updated_at = CURRENT_TIMESTAMP
        WHERE id = ?
    `, ws.Name, string(treeJSON), ws.Revision, ws.ID)
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save workspace: %w", err)
	}
	if affected == 0 {
		return workspace.ErrNotFound
	}

	if err := syncMembers(ctx, tx, ws); err != nil {
		return err
	}

	return tx.Commit()
}

// Create inserts a new workspace. The owner is always a member.
func (s *Store) Create(ctx context.Context, ws *workspace.Workspace) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}

	ws.AddMember(ws.OwnerID)

	treeJSON, err := json.Marshal(ws.FileTree)
	if err != nil {
		return fmt.Errorf("encode file tree: %w", err)
	}
	if ws.FileTree == nil {
		treeJSON = []byte("{}")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
        INSERT INTO workspaces (id, name, owner_id, file_tree, revision)
        VALUES (?, ?, ?, ?, ?)
    `, ws.ID, ws.Name, ws.OwnerID, string(treeJSON), ws.Revision); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	if err := syncMembers(ctx, tx, ws); err != nil {
		return err
	}

	return tx.Commit()
}

func syncMembers(ctx context.Context, tx *sql.Tx, ws *workspace.Workspace) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM workspace_members WHERE workspace_id = ?`, ws.ID); err != nil {
		return fmt.Errorf("sync members: %w", err)
	}
	for _, userID := range ws.Members {
		if _, err := tx.ExecContext(ctx, `
            INSERT OR IGNORE INTO workspace_members (workspace_id, user_id) VALUES (?, ?)
        `, ws.ID, userID); err != nil {
			return fmt.Errorf("sync members: %w", err)
		}
	}
	return nil
}
