package realtime

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/odvcencio/devroom/pkg/auth"
	"github.com/odvcencio/devroom/pkg/workspace"
)

// GatewayConfig wires the gateway's collaborators and limits.
type GatewayConfig struct {
	Verifier   *auth.TokenManager
	Workspaces workspace.Store
	Registry   *Registry
	Router     *Router
	Logger     *slog.Logger

	// MaxConnections caps concurrent sessions; 0 means unlimited.
	MaxConnections int

	// MessagesPerSecond rate-limits inbound chat per session; 0 disables.
	MessagesPerSecond float64
	MessageBurst      int
}

// Gateway performs the per-connection handshake: it validates the workspace
// identifier, verifies the bearer credential, and binds the admitted
// session to its room.
type Gateway struct {
	cfg      GatewayConfig
	limiter  *connLimiter
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewGateway constructs a gateway.
func NewGateway(cfg GatewayConfig) *Gateway {
	return &Gateway{
		cfg:     cfg,
		limiter: newConnLimiter(cfg.MaxConnections),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: cfg.Logger,
	}
}

// tokenFromHandshake pulls the bearer credential from the handshake: the
// explicit token query field first, then the Authorization header.
func tokenFromHandshake(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return ""
}

// ServeHTTP admits or rejects one connection attempt. Rejections happen
// before the websocket upgrade, so a failed handshake never touches any
// room. Revocation is deliberately not consulted here: realtime admission
// trusts signature and expiry alone, unlike the HTTP middleware.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	workspaceID := r.URL.Query().Get("workspaceId")
	if err := workspace.ValidateID(workspaceID); err != nil {
		AdmissionRejections.WithLabelValues("invalid_workspace_id").Inc()
		http.Error(w, "invalid workspaceId", http.StatusBadRequest)
		return
	}

	// Best-effort lookup. A missing workspace does not block admission;
	// the session simply carries a nil workspace reference. Questionable
	// policy, preserved deliberately.
	ws, err := g.cfg.Workspaces.Load(r.Context(), workspaceID)
	if err != nil {
		if !errors.Is(err, workspace.ErrNotFound) {
			g.logger.Warn("workspace lookup failed during handshake",
				"workspace_id", workspaceID, "error", err)
		}
		ws = nil
	}

	token := tokenFromHandshake(r)
	if token == "" {
		AdmissionRejections.WithLabelValues("missing_token").Inc()
		http.Error(w, "unauthorized: token missing", http.StatusUnauthorized)
		return
	}

	claims, err := g.cfg.Verifier.Verify(token)
	if err != nil {
		reason := "invalid_token"
		if errors.Is(err, auth.ErrExpiredToken) {
			reason = "expired_token"
		}
		AdmissionRejections.WithLabelValues(reason).Inc()
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if !g.limiter.Acquire() {
		AdmissionRejections.WithLabelValues("too_many_connections").Inc()
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.limiter.Release()
		g.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	var msgLimiter *rate.Limiter
	if g.cfg.MessagesPerSecond > 0 {
		burst := g.cfg.MessageBurst
		if burst < 1 {
			burst = 1
		}
		msgLimiter = rate.NewLimiter(rate.Limit(g.cfg.MessagesPerSecond), burst)
	}

	s := &Session{
		conn:    conn,
		claims:  claims,
		roomID:  workspaceID,
		ws:      ws,
		limiter: msgLimiter,
		send:    make(chan Envelope, sendBufferSize),
	}

	g.cfg.Registry.Join(s)
	go s.writePump()
	go g.readPump(s)
}

// readPump consumes inbound events for one session until disconnect.
func (g *Gateway) readPump(s *Session) {
	defer func() {
		g.cfg.Registry.Leave(s)
		s.close()
		g.limiter.Release()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env inboundEnvelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				g.logger.Warn("websocket read error",
					"room_id", s.roomID, "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch env.Type {
		case EventChatMessage:
			var payload ChatPayload
			if err := json.Unmarshal(env.Payload, &payload); err != nil {
				g.logger.Warn("malformed chat payload",
					"room_id", s.roomID, "error", err)
				continue
			}
			if s.limiter != nil && !s.limiter.Allow() {
				g.logger.Warn("inbound message rate exceeded, dropping",
					"room_id", s.roomID, "user_id", s.claims.UserID)
				continue
			}
			MessagesReceived.Inc()
			g.cfg.Router.HandleChat(s, payload.Body)

		default:
			g.logger.Warn("unknown event type", "type", env.Type)
		}
	}
}
