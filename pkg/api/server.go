// Package api provides the devroom HTTP surface: token issuance, workspace
// management, the editor save flow, metrics, and the realtime endpoint.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/odvcencio/devroom/pkg/auth"
	"github.com/odvcencio/devroom/pkg/config"
	"github.com/odvcencio/devroom/pkg/realtime"
	"github.com/odvcencio/devroom/pkg/workspace"
)

// ServerConfig wires the API server's collaborators.
type ServerConfig struct {
	Config      *config.Config
	Tokens      *auth.TokenManager
	Revocations auth.RevocationStore
	Workspaces  workspace.Store
	Registry    *realtime.Registry
	Gateway     *realtime.Gateway
	Logger      *slog.Logger
}

// Server is the devroom HTTP server.
type Server struct {
	cfg        ServerConfig
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer constructs the server and its routes.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		logger: cfg.Logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.corsMiddleware)
	s.router.Use(securityHeadersMiddleware)

	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)
	s.router.Get("/ws", s.cfg.Gateway.ServeHTTP)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/token", s.handleIssueToken)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.cfg.Tokens, s.cfg.Revocations, s.logger))
			r.Post("/auth/logout", s.handleLogout)
			r.Post("/workspaces", s.handleCreateWorkspace)
			r.Get("/workspaces/{id}", s.handleGetWorkspace)
			r.Put("/workspaces/{id}/filetree", s.handleSaveFileTree)
		})
	})
}

// Router returns the HTTP handler, for tests and embedding.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving on the configured bind address. It blocks until the
// listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Config.Server.Bind,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server listening", "addr", s.cfg.Config.Server.Bind)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener and closes all realtime sessions.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cfg.Registry != nil {
		s.cfg.Registry.Shutdown()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
