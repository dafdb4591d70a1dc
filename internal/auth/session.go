package auth

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the client side of a login: it holds the bearer token the
// dashboard sends to the API. The token signature is not checked here since
// the client never sees the server secret; only role and expiry are.
type Session struct {
	mu    sync.RWMutex
	token string
	path  string
}

func NewSession(token string) *Session {
	return &Session{token: token}
}

// LoadSession reads a token previously written by Save. A missing file
// yields an empty, logged-out session.
func LoadSession(path string) (*Session, error) {
	s := &Session{path: path}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	s.token = strings.TrimSpace(string(b))
	return s, nil
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Save stores token in memory and, for file-backed sessions, on disk.
func (s *Session) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if s.path == "" {
		return nil
	}
	if err := os.WriteFile(s.path, []byte(token), 0600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// IsClientLoggedIn reports whether the session holds an unexpired client token.
func (s *Session) IsClientLoggedIn() bool {
	return s.loggedInAt(time.Now())
}

func (s *Session) loggedInAt(now time.Time) bool {
	tok := s.Token()
	if tok == "" {
		return false
	}

	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return false
	}
	if claims.Role != RoleClient {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return now.Before(claims.ExpiresAt.Time)
}
