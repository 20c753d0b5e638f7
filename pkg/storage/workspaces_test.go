package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/devroom/pkg/workspace"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCreateAndLoadWorkspace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ws := &workspace.Workspace{
		ID:      workspace.NewID(),
		Name:    "demo",
		OwnerID: "owner",
		FileTree: workspace.FileTree{
			"app.js": {File: workspace.FileBody{Contents: "console.log(1)"}},
		},
	}
	require.NoError(t, store.Create(ctx, ws))

	loaded, err := store.Load(ctx, ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.Name)
	assert.Equal(t, "owner", loaded.OwnerID)
	assert.Equal(t, []string{"owner"}, loaded.Members, "owner is always a member")
	require.Contains(t, loaded.FileTree, "app.js")
	assert.Equal(t, "console.log(1)", loaded.FileTree["app.js"].File.Contents)
}

func TestLoadMissingWorkspace(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load(context.Background(), workspace.NewID())
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestSaveOverwritesFileTree(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ws := &workspace.Workspace{
		ID:      workspace.NewID(),
		Name:    "demo",
		OwnerID: "owner",
		FileTree: workspace.FileTree{
			"old.js": {File: workspace.FileBody{Contents: "old"}},
		},
	}
	require.NoError(t, store.Create(ctx, ws))

	ws.FileTree = workspace.FileTree{
		"new.js": {File: workspace.FileBody{Contents: "new"}},
	}
	ws.Revision++
	require.NoError(t, store.Save(ctx, ws))

	loaded, err := store.Load(ctx, ws.ID)
	require.NoError(t, err)
	assert.Contains(t, loaded.FileTree, "new.js")
	assert.NotContains(t, loaded.FileTree, "old.js")
	assert.Equal(t, int64(1), loaded.Revision)
}

func TestSaveMissingWorkspace(t *testing.T) {
	store := newTestStore(t)

	err := store.Save(context.Background(), &workspace.Workspace{
		ID: workspace.NewID(), Name: "ghost", OwnerID: "o",
	})
	assert.ErrorIs(t, err, workspace.ErrNotFound)
}

func TestMembersDeduplicated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ws := &workspace.Workspace{
		ID:      workspace.NewID(),
		Name:    "demo",
		OwnerID: "owner",
		Members: []string{"owner", "a", "a", "b"},
	}
	require.NoError(t, store.Create(ctx, ws))

	loaded, err := store.Load(ctx, ws.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"owner", "a", "b"}, loaded.Members)
}

func TestUniqueNamePerOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &workspace.Workspace{ID: workspace.NewID(), Name: "demo", OwnerID: "owner"}
	require.NoError(t, store.Create(ctx, first))

	dup := &workspace.Workspace{ID: workspace.NewID(), Name: "demo", OwnerID: "owner"}
	assert.Error(t, store.Create(ctx, dup))

	otherOwner := &workspace.Workspace{ID: workspace.NewID(), Name: "demo", OwnerID: "someone-else"}
	assert.NoError(t, store.Create(ctx, otherOwner))
}
