// Package sessionstore keeps the operator profile and bearer token between
// runs of the shell.
package sessionstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/mamadbah2/milkcenter/internal/domain/models"
)

const (
	// ProfileKey holds the {username, role} profile.
	ProfileKey = "msr-milk-center-auth"
	// TokenKey holds the bearer token.
	TokenKey = "auth-token"
)

// Store holds the two halves of a session: the lightweight profile used for
// role gating and the opaque token used for API calls. Either half missing
// means logged out.
type Store struct {
	kv     KeyValue
	logger *zap.Logger
	now    func() time.Time
}

// New wraps kv.
func New(kv KeyValue, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger, now: time.Now}
}

// Save persists both halves of a session.
func (s *Store) Save(principal models.Principal, token string) error {
	raw, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Set(TokenKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := s.kv.Set(ProfileKey, string(raw)); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

// Profile returns the stored principal, if any.
func (s *Store) Profile() (models.Principal, bool) {
	raw, ok, err := s.kv.Get(ProfileKey)
	if err != nil {
		s.logger.Error("failed to read profile", zap.Error(err))
		return models.Principal{}, false
	}
	if !ok || raw == "" {
		return models.Principal{}, false
	}

	var p models.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("discarding unreadable profile", zap.Error(err))
		return models.Principal{}, false
	}
	return p, true
}

// Token returns the stored bearer token or "".
func (s *Store) Token() string {
	token, ok, err := s.kv.Get(TokenKey)
	if err != nil {
		s.logger.Error("failed to read token", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// IsAuthenticated requires both a profile and a token. Tokens that are JWTs
// with an expiry in the past count as missing; opaque tokens are trusted.
func (s *Store) IsAuthenticated() bool {
	if _, ok := s.Profile(); !ok {
		return false
	}
	token := s.Token()
	if token == "" {
		return false
	}
	return !s.expired(token)
}

// Clear removes both halves of the session.
func (s *Store) Clear() error {
	if err := s.kv.Remove(ProfileKey, TokenKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// TokenExpiry reports the exp claim of a JWT token, when there is one.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func (s *Store) expired(token string) bool {
	exp, ok := TokenExpiry(token)
	if !ok {
		return false
	}
	if s.now().After(exp) {
		s.logger.Info("stored token has expired", zap.Time("expired_at", exp))
		return true
	}
	return false
}
