// Package client is the Go counterpart of the browser frontend: a thin API
// client over the marketplace REST surface plus the "current user" session
// slot the original app kept in local storage.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// sessionFileName is the fixed application key the session is persisted
// under, mirroring the frontend's local-storage key.
const sessionFileName = "agriloop_session.json"

// Session is the client-held projection of the logged-in user. It carries
// exactly what login returns: the user fields minus the password hash, plus
// the session token.
type Session struct {
	UserID   string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
	Token    string `json:"token"`
}

// SessionStore persists the session to a JSON file. Persistence is an
// explicit side effect separated from the in-memory slot so the two can be
// tested independently.
type SessionStore struct {
	path string
}

// NewSessionStore creates a store rooted at dir. An empty dir falls back to
// the user config directory.
func NewSessionStore(dir string) (*SessionStore, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("client: resolve config dir: %w", err)
		}
		dir = filepath.Join(configDir, "agriloop")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("client: create session dir: %w", err)
	}
	return &SessionStore{path: filepath.Join(dir, sessionFileName)}, nil
}

// Load restores the persisted session. Returns (nil, nil) when no session
// has been saved.
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("client: load session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("client: decode session: %w", err)
	}
	return &session, nil
}

// Save writes the session to disk.
func (s *SessionStore) Save(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("client: encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("client: save session: %w", err)
	}
	return nil
}

// Clear removes the persisted session. Clearing an absent session is not an
// error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("client: clear session: %w", err)
	}
	return nil
}
