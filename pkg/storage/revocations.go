package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

func hashSecret(secret string) string {
	trimmed := strings.TrimSpace(secret)
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:])
}

// Revoke records a token hash so every later HTTP-boundary check rejects
// it. The entry carries the token's own expiry so cleanup can drop it once
// the token would have died anyway.
func (s *Store) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO revoked_tokens (token_hash, expires_at)
        VALUES (?, ?)
        ON CONFLICT(token_hash) DO NOTHING
    `, hashSecret(token), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token has been revoked. Errors must be
// treated as internal faults by callers, never as "not revoked".
func (s *Store) IsRevoked(ctx context.Context, token string) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrStoreClosed
	}
	var hash string
	err := s.db.QueryRowContext(ctx, `
        SELECT token_hash FROM revoked_tokens WHERE token_hash = ?
    `, hashSecret(token)).Scan(&hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("revocation lookup: %w", err)
	}
	return true, nil
}

// CleanupRevokedTokens removes revocation entries whose tokens have
// expired on their own.
func (s *Store) CleanupRevokedTokens(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cleanup revoked tokens: %w", err)
	}
	return nil
}
