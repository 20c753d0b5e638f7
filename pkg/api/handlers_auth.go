package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/odvcencio/devroom/pkg/auth"
)

type issueTokenRequest struct {
	UserID string `json:"userId"`
	Label  string `json:"label"`
}

type issueTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// handleIssueToken signs a credential for a participant. Identity
// provisioning (passwords, directories) is out of scope; the caller names
// the identity and the server vouches for it with a signed token.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Label == "" {
		req.Label = req.UserID
	}

	ttl := s.cfg.Config.Auth.TokenTTL
	token, err := s.cfg.Tokens.Issue(req.UserID, req.Label, ttl)
	if err != nil {
		s.logger.Error("token issuance failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, issueTokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(ttl).UTC().Format(time.RFC3339),
	})
}

// handleLogout revokes the presented credential. Every later HTTP request
// bearing it is rejected; a realtime session admitted earlier keeps running
// until it disconnects.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	expiresAt, err := auth.Expiry(token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed token")
		return
	}

	if err := s.cfg.Revocations.Revoke(r.Context(), token, expiresAt); err != nil {
		s.logger.Error("token revocation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
