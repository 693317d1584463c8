// Package session holds the authenticated user state persisted between
// runs: the bearer token, its expiry, and the profile fields the backend
// returned at login. The store owns its file; nothing else reads or
// writes it.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var ErrNotAuthenticated = errors.New("not logged in or session expired")

// Session is the persisted login state.
type Session struct {
	Token    string    `json:"token"`
	ExpireAt time.Time `json:"expire_at"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
}

// Valid reports whether the session can still authenticate requests.
func (s Session) Valid() bool {
	return s.Token != "" && time.Now().Before(s.ExpireAt)
}

// Store loads, saves, and clears the session file.
type Store struct {
	mu   sync.Mutex
	path string
	ttl  time.Duration
	cur  Session
}

// NewStore creates a store bound to path. An existing session file is
// loaded immediately; a missing or unreadable file leaves the store empty.
func NewStore(path string, ttl time.Duration) *Store {
	s := &Store{path: path, ttl: ttl}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return
	}
	s.cur = sess
}

// Current returns the session, or ErrNotAuthenticated if none is valid.
func (s *Store) Current() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cur.Valid() {
		return Session{}, ErrNotAuthenticated
	}
	return s.cur, nil
}

// Token returns the bearer token for request signing, or empty when the
// session is missing or expired.
func (s *Store) Token() string {
	sess, err := s.Current()
	if err != nil {
		return ""
	}
	return sess.Token
}

// Establish persists a fresh session after login. The expiry is derived
// from the configured TTL; the backend does not return one.
func (s *Store) Establish(token, name, username string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := Session{
		Token:    token,
		ExpireAt: time.Now().Add(s.ttl),
		Name:     name,
		Username: username,
	}

	if err := s.write(sess); err != nil {
		return Session{}, err
	}
	s.cur = sess
	return sess, nil
}

func (s *Store) write(sess Session) error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create session directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	// 0600: the file carries a bearer token.
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Clear forgets the session and removes the file. Missing file is fine.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cur = Session{}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
