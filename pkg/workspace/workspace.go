// Package workspace defines the shared workspace data model: a named
// collaborative unit holding a file-tree and a membership set.
package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound indicates the workspace id does not exist in the store.
var ErrNotFound = errors.New("workspace not found")

// FileBody holds the textual contents of a single file.
type FileBody struct {
	Contents string `json:"contents"`
}

// FileNode is one entry of a file-tree, matching the wire schema
// mapping<path, {file: {contents}}>.
type FileNode struct {
	File FileBody `json:"file"`
}

// FileTree maps file paths to their contents. Map keys guarantee path
// uniqueness.
type FileTree map[string]FileNode

// Clone returns a deep copy of the tree. A nil tree clones to nil.
func (t FileTree) Clone() FileTree {
	if t == nil {
		return nil
	}
	out := make(FileTree, len(t))
	for path, node := range t {
		out[path] = node
	}
	return out
}

// Workspace is a collaborative unit: members exchange chat in its room and
// share one file-tree. Revision increments on every save; it is never
// consulted for writes (last writer wins) but gives future work a hook for
// conflict detection without changing the wire contract.
type Workspace struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	OwnerID  string   `json:"ownerId"`
	Members  []string `json:"members"`
	FileTree FileTree `json:"fileTree"`
	Revision int64    `json:"revision"`
}

// AddMember appends a user id, keeping the membership set duplicate-free.
func (w *Workspace) AddMember(userID string) {
	for _, m := range w.Members {
		if m == userID {
			return
		}
	}
	w.Members = append(w.Members, userID)
}

// HasMember reports whether the user belongs to the workspace.
func (w *Workspace) HasMember(userID string) bool {
	for _, m := range w.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// ValidateID checks workspace identifier syntax. Identifiers are UUIDs;
// malformed ids are rejected before any store lookup.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid workspace id %q: %w", id, err)
	}
	return nil
}

// NewID mints a fresh workspace identifier.
func NewID() string {
	return uuid.NewString()
}

// Store is the persistence boundary consumed by the realtime core and the
// HTTP editor flow. Save is a compare-free overwrite; the last writer wins.
type Store interface {
	Load(ctx context.Context, id string) (*Workspace, error)
	Save(ctx context.Context, ws *Workspace) error
	Create(ctx context.Context, ws *Workspace) error
}
