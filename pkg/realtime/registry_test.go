package realtime

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/devroom/pkg/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestSession(roomID, userID string, buffer int) *Session {
	return &Session{
		claims: &auth.Claims{UserID: userID, Label: userID},
		roomID: roomID,
		send:   make(chan Envelope, buffer),
	}
}

func drain(s *Session) []Envelope {
	var out []Envelope
	for {
		select {
		case env := <-s.send:
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestRegistryRoomIsolation(t *testing.T) {
	reg := NewRegistry(testLogger())

	a1 := newTestSession("room-a", "u1", 8)
	a2 := newTestSession("room-a", "u2", 8)
	b1 := newTestSession("room-b", "u3", 8)
	reg.Join(a1)
	reg.Join(a2)
	reg.Join(b1)

	reg.BroadcastAll("room-a", Envelope{Type: EventChatMessage, Payload: ChatPayload{Body: "hi"}})

	assert.Len(t, drain(a1), 1)
	assert.Len(t, drain(a2), 1)
	assert.Empty(t, drain(b1), "a broadcast must never cross rooms")
}

func TestRegistryBroadcastExceptSkipsSender(t *testing.T) {
	reg := NewRegistry(testLogger())

	sender := newTestSession("room-a", "u1", 8)
	other := newTestSession("room-a", "u2", 8)
	reg.Join(sender)
	reg.Join(other)

	reg.BroadcastExcept("room-a", sender, Envelope{Type: EventChatMessage})

	assert.Empty(t, drain(sender))
	assert.Len(t, drain(other), 1)
}

func TestRegistryBroadcastToEmptyRoomIsNoOp(t *testing.T) {
	reg := NewRegistry(testLogger())

	assert.NotPanics(t, func() {
		reg.BroadcastAll("nobody-home", Envelope{Type: EventChatMessage})
	})
}

func TestRegistryLeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry(testLogger())

	s := newTestSession("room-a", "u1", 8)
	reg.Join(s)
	require.Equal(t, 1, reg.RoomSize("room-a"))

	reg.Leave(s)
	assert.Equal(t, 0, reg.RoomSize("room-a"))
	assert.NotPanics(t, func() { reg.Leave(s) })
}

func TestRegistryDropsSlowSession(t *testing.T) {
	reg := NewRegistry(testLogger())

	slow := newTestSession("room-a", "slow", 1)
	fast := newTestSession("room-a", "fast", 8)
	reg.Join(slow)
	reg.Join(fast)

	// Fill the slow session's queue, then broadcast once more.
	reg.BroadcastAll("room-a", Envelope{Type: EventChatMessage})
	reg.BroadcastAll("room-a", Envelope{Type: EventChatMessage})

	require.Eventually(t, func() bool {
		return reg.RoomSize("room-a") == 1
	}, time.Second, 10*time.Millisecond, "slow session should be dropped")
	assert.Len(t, drain(fast), 2)
}
