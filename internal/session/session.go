// Package session holds the logged-in user's identity and bearer token, and
// persists it across restarts under ~/.ecopoints/session.json. Exactly one
// session is active at a time; its absence gates the client to the
// authentication commands.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultDir is the directory under the user's home for client state.
const DefaultDir = ".ecopoints"

const sessionFile = "session.json"

// Session is the authenticated user's identity. It is created on successful
// login and destroyed on explicit logout.
type Session struct {
	UserID      string    `json:"usuario_id"`
	DisplayName string    `json:"usuario_nombre"`
	Email       string    `json:"usuario_correo"`
	Token       string    `json:"token"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store reads and writes the session file.
type Store struct {
	dir string
}

// NewStore creates a store rooted at the given directory. An empty dir uses
// ~/.ecopoints.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("determining home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDir)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path() string {
	return filepath.Join(s.dir, sessionFile)
}

// Load reads the persisted session. Returns (nil, nil) when no session exists.
func (s *Store) Load() (*Session, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session %s: %w", s.path(), err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parsing session: %w", err)
	}
	if sess.UserID == "" || sess.Token == "" {
		// A session without identity or credential is useless; treat as absent.
		return nil, nil
	}
	return &sess, nil
}

// Save persists the session. Called once, on successful login.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	return os.WriteFile(s.path(), data, 0o600)
}

// Clear removes the persisted session. Safe to call when none exists.
func (s *Store) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
