// Package store holds all twin state in memory.
package store

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecopoints-app/ecopoints/internal/kvstore"
	"github.com/ecopoints-app/ecopoints/internal/station"
)

var (
	// ErrEmailTaken is returned when registering an already-used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrBadCredentials is returned when email or password do not match.
	ErrBadCredentials = errors.New("invalid credentials")
	// ErrNotFound is returned for unknown users or stations.
	ErrNotFound = errors.New("not found")
)

// MemoryStore holds all twin state.
type MemoryStore struct {
	Users        *kvstore.Store[User]
	Transactions *kvstore.Store[Transaction]
	Stations     *kvstore.Store[Station]
	ResetCodes   *kvstore.Store[ResetCode]
	Clock        *kvstore.Clock
}

// New creates an empty MemoryStore with the default stations seeded.
func New() *MemoryStore {
	s := &MemoryStore{
		Users:        kvstore.New[User]("usr"),
		Transactions: kvstore.New[Transaction]("txn"),
		Stations:     kvstore.New[Station]("st"),
		ResetCodes:   kvstore.New[ResetCode]("rst"),
		Clock:        kvstore.NewClock(),
	}
	s.seedStations()
	return s
}

func (s *MemoryStore) seedStations() {
	for _, st := range []Station{
		{ID: "STATION-1", Material: station.MaterialPlastic, Location: "Parque Kennedy, Miraflores"},
		{ID: "STATION-2", Material: station.MaterialGlass, Location: "Plaza San Miguel"},
		{ID: "STATION-3", Material: station.MaterialPaper, Location: "C.C. Jockey Plaza"},
		{ID: "STATION-4", Material: station.MaterialMetal, Location: "Mercado de Surquillo"},
	} {
		s.Stations.Set(st.ID, st)
	}
}

// CreateUser registers a new user with a bcrypt-hashed password.
func (s *MemoryStore) CreateUser(name, email, password string) (User, error) {
	email = normalizeEmail(email)
	if _, err := s.FindUserByEmail(email); err == nil {
		return User{}, ErrEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.Clock.Now(),
	}
	s.Users.Set(u.ID, u)
	return u, nil
}

// Authenticate checks email and password, returning the user on success.
func (s *MemoryStore) Authenticate(email, password string) (User, error) {
	u, err := s.FindUserByEmail(email)
	if err != nil {
		return User{}, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	return u, nil
}

// FindUserByEmail looks a user up by normalized email.
func (s *MemoryStore) FindUserByEmail(email string) (User, error) {
	email = normalizeEmail(email)
	matches := s.Users.Filter(func(_ string, u User) bool {
		return u.Email == email
	})
	if len(matches) == 0 {
		return User{}, ErrNotFound
	}
	return matches[0], nil
}

// SetPassword replaces a user's password hash.
func (s *MemoryStore) SetPassword(userID, password string) error {
	u, ok := s.Users.Get(userID)
	if !ok {
		return ErrNotFound
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	s.Users.Set(u.ID, u)
	return nil
}

// AddTransaction appends a ledger entry and adjusts the user's balance.
func (s *MemoryStore) AddTransaction(userID, kind string, points int, description, location string) (Transaction, error) {
	u, ok := s.Users.Get(userID)
	if !ok {
		return Transaction{}, ErrNotFound
	}
	tx := Transaction{
		ID:          s.Transactions.NextID(),
		UserID:      userID,
		Kind:        kind,
		Points:      points,
		Description: description,
		Location:    location,
		Date:        s.Clock.Now(),
	}
	s.Transactions.Set(tx.ID, tx)

	u.Points += points
	if u.Points < 0 {
		u.Points = 0
	}
	s.Users.Set(u.ID, u)
	return tx, nil
}

// HistoryFor returns a user's transactions in insertion order. Ordering is
// deliberately whatever the store yields; clients sort for display.
func (s *MemoryStore) HistoryFor(userID string) []Transaction {
	return s.Transactions.Filter(func(_ string, t Transaction) bool {
		return t.UserID == userID
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
