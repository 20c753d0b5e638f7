package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *HistoryCache {
	t.Helper()
	cache, err := OpenHistoryCache(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestHistoryAppendAndList(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Append(ctx, "ws1", "alice", CachedMessage{
		SenderID: "alice", SenderLabel: "Alice", Body: "first", SentAt: "2026-01-01T00:00:00Z",
	}))
	require.NoError(t, cache.Append(ctx, "ws1", "alice", CachedMessage{
		SenderID: "ai", SenderLabel: "AI", Body: "second", SentAt: "2026-01-01T00:00:01Z",
	}))

	msgs, err := cache.List(ctx, "ws1", "alice")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Body)
	assert.Equal(t, "second", msgs[1].Body)
	assert.NotEmpty(t, msgs[0].ID)
}

func TestHistoryScopedByWorkspaceAndParticipant(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Append(ctx, "ws1", "alice", CachedMessage{SenderID: "alice", SenderLabel: "Alice", Body: "mine", SentAt: "t"}))
	require.NoError(t, cache.Append(ctx, "ws1", "bob", CachedMessage{SenderID: "bob", SenderLabel: "Bob", Body: "his", SentAt: "t"}))
	require.NoError(t, cache.Append(ctx, "ws2", "alice", CachedMessage{SenderID: "alice", SenderLabel: "Alice", Body: "other room", SentAt: "t"}))

	msgs, err := cache.List(ctx, "ws1", "alice")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "mine", msgs[0].Body)
}

func TestHistoryClearTouchesSingleKeyOnly(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Append(ctx, "ws1", "alice", CachedMessage{SenderID: "alice", SenderLabel: "Alice", Body: "a", SentAt: "t"}))
	require.NoError(t, cache.Append(ctx, "ws1", "bob", CachedMessage{SenderID: "bob", SenderLabel: "Bob", Body: "b", SentAt: "t"}))
	require.NoError(t, cache.Append(ctx, "ws2", "alice", CachedMessage{SenderID: "alice", SenderLabel: "Alice", Body: "c", SentAt: "t"}))

	require.NoError(t, cache.Clear(ctx, "ws1", "alice"))

	cleared, err := cache.List(ctx, "ws1", "alice")
	require.NoError(t, err)
	assert.Empty(t, cleared)

	bobs, err := cache.List(ctx, "ws1", "bob")
	require.NoError(t, err)
	assert.Len(t, bobs, 1)

	other, err := cache.List(ctx, "ws2", "alice")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestHistoryListEmptyKey(t *testing.T) {
	cache := newTestCache(t)

	msgs, err := cache.List(context.Background(), "ws-none", "nobody")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
