package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionCookie is the name of the authentication cookie.
const SessionCookie = "zeit.sid"

// DefaultSessionTTL bounds how long a login survives without activity.
const DefaultSessionTTL = 30 * 24 * time.Hour

type sessionRecord struct {
	User      string `json:"user"`
	ExpiresAt int64  `json:"expiresAt"`
}

// SessionStore keeps login sessions as JSON files under a directory, keyed
// by an HMAC-signed session id, so logins persist across server restarts.
// Resolving a session renews its expiry (sliding renewal on activity).
type SessionStore struct {
	dir    string
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu sync.Mutex
}

// NewSessionStore creates the session directory if needed.
func NewSessionStore(dir string, secret []byte, ttl time.Duration) (*SessionStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{dir: dir, secret: secret, ttl: ttl, now: time.Now}, nil
}

func (s *SessionStore) sign(id string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *SessionStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Issue creates a fresh session for user and returns the cookie value.
func (s *SessionStore) Issue(user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	rec := sessionRecord{User: user, ExpiresAt: s.now().Add(s.ttl).UnixMilli()}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("encoding session record: %w", err)
	}
	if err := os.WriteFile(s.path(id), data, 0600); err != nil {
		return "", fmt.Errorf("writing session record: %w", err)
	}
	return id + "." + s.sign(id), nil
}

// Resolve verifies the cookie value and returns the logged-in user. A
// resolved session has its expiry pushed out by the full TTL.
func (s *SessionStore) Resolve(value string) (string, bool) {
	id, sig, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}
	// Reject ids that could escape the session directory before touching
	// the filesystem.
	if id != filepath.Base(id) {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(id))) {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		return "", false
	}
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", false
	}
	now := s.now()
	if now.UnixMilli() >= rec.ExpiresAt {
		_ = os.Remove(s.path(id))
		return "", false
	}

	rec.ExpiresAt = now.Add(s.ttl).UnixMilli()
	if data, err := json.Marshal(rec); err == nil {
		_ = os.WriteFile(s.path(id), data, 0600)
	}
	return rec.User, true
}

// Revoke removes the session referenced by the cookie value, if any.
func (s *SessionStore) Revoke(value string) {
	id, _, ok := strings.Cut(value, ".")
	if !ok || id == "" || id != filepath.Base(id) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = os.Remove(s.path(id))
}
