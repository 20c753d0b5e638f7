package realtime

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/odvcencio/devroom/pkg/auth"
	"github.com/odvcencio/devroom/pkg/workspace"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	sendBufferSize = 64
)

// Session is the live, authenticated binding of one connection to one
// identity and one workspace. It exists from successful handshake to
// disconnect and is owned by the Gateway/Registry for that lifetime.
type Session struct {
	conn   *websocket.Conn
	claims *auth.Claims

	// roomID equals the bound workspace identifier.
	roomID string

	// ws is the workspace snapshot resolved at handshake time. It may be
	// nil: a missing lookup result does not block admission.
	ws *workspace.Workspace

	limiter *rate.Limiter
	send    chan Envelope

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// enqueue offers an event to the session's send queue without blocking.
// It reports false when the queue is full, which drops the session.
func (s *Session) enqueue(env Envelope) bool {
	select {
	case s.send <- env:
		EventsSent.Inc()
		return true
	default:
		return false
	}
}

// writePump is the single writer for the connection. It drains the send
// queue and keeps the connection alive with pings.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-s.send:
			if !ok {
				s.writeMu.Lock()
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				s.writeMu.Unlock()
				return
			}
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteJSON(env)
			s.writeMu.Unlock()
			if err != nil {
				return
			}

		case <-ticker.C:
			s.writeMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		if s.conn == nil {
			return
		}
		s.writeMu.Lock()
		_ = s.conn.Close()
		s.writeMu.Unlock()
	})
}
