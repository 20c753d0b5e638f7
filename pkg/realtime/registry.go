package realtime

import (
	"log/slog"
	"sync"
)

// Registry maps room identifiers to live sessions and fans events out to
// them. Rooms correspond 1:1 to workspaces, and membership is process-local:
// there is no cross-process fan-out.
//
// The single most important correctness property here is room isolation: a
// broadcast must never reach a session bound to a different workspace.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Session]struct{}
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]map[*Session]struct{}),
		logger: logger,
	}
}

// Join adds the session to its room, creating the room on first join.
func (r *Registry) Join(s *Session) {
	r.mu.Lock()
	room, ok := r.rooms[s.roomID]
	if !ok {
		room = make(map[*Session]struct{})
		r.rooms[s.roomID] = room
	}
	room[s] = struct{}{}
	r.mu.Unlock()

	ActiveConnections.Inc()
	r.logger.Info("session joined room",
		"room_id", s.roomID, "user_id", s.claims.UserID)
}

// Leave removes the session from its room and releases its send queue.
// Safe to call more than once.
func (r *Registry) Leave(s *Session) {
	r.mu.Lock()
	room, ok := r.rooms[s.roomID]
	if ok {
		if _, member := room[s]; member {
			delete(room, s)
			close(s.send)
			ActiveConnections.Dec()
			if len(room) == 0 {
				delete(r.rooms, s.roomID)
			}
			r.mu.Unlock()
			r.logger.Info("session left room",
				"room_id", s.roomID, "user_id", s.claims.UserID)
			return
		}
	}
	r.mu.Unlock()
}

// BroadcastAll delivers an event to every session in the room, including
// any original sender. Broadcasting to an unknown or empty room is a no-op.
func (r *Registry) BroadcastAll(roomID string, env Envelope) {
	r.broadcast(roomID, nil, env)
}

// BroadcastExcept delivers an event to every session in the room except the
// given sender.
func (r *Registry) BroadcastExcept(roomID string, sender *Session, env Envelope) {
	r.broadcast(roomID, sender, env)
}

func (r *Registry) broadcast(roomID string, exclude *Session, env Envelope) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for s := range r.rooms[roomID] {
		if s == exclude {
			continue
		}
		if !s.enqueue(env) {
			BackpressureDrops.Inc()
			r.logger.Warn("dropping slow session",
				"room_id", roomID, "user_id", s.claims.UserID)
			go func(s *Session) {
				r.Leave(s)
				s.close()
			}(s)
		}
	}
}

// RoomSize returns the number of live sessions in a room.
func (r *Registry) RoomSize(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomID])
}

// Shutdown closes every session and empties all rooms.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	rooms := r.rooms
	r.rooms = make(map[string]map[*Session]struct{})
	r.mu.Unlock()

	for _, room := range rooms {
		for s := range room {
			close(s.send)
			s.close()
			ActiveConnections.Dec()
		}
	}
}
