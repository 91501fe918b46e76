package store

import (
	"time"

	"github.com/ecopoints-app/ecopoints/internal/station"
)

// User is a registered account. Points is the authoritative balance.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Points       int
	CreatedAt    time.Time
}

// Transaction is an immutable ledger entry mirroring the wire shape the
// client decodes.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Kind        string    `json:"type"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	Location    string    `json:"location,omitempty"`
	Date        time.Time `json:"date"`
}

// Station is a registered recycling station whose display rotates QR codes.
type Station struct {
	ID       string
	Material station.Material
	Location string
}

// ResetCode is an emailed password-reset code, single use.
type ResetCode struct {
	Code      string
	Email     string
	UserID    string
	ExpiresAt time.Time
	Used      bool
}
