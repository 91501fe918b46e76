package api

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes. Session tokens are deliberately short; there is no
// refresh endpoint, so expiry forces a fresh login.
const (
	sessionTokenTTL = 24 * time.Hour
	resetTokenTTL   = 10 * time.Minute
)

// purposes embedded in the "use" claim.
const (
	useSession = "session"
	useReset   = "reset"
)

// TokenManager mints and verifies the twin's HS256 bearer tokens. The secret
// is generated per process, so tokens never survive a restart.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager creates a TokenManager with a fresh random secret.
func NewTokenManager(now func() time.Time) (*TokenManager, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generating token secret: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: secret, now: now}, nil
}

// MintSession creates a session token for the given user.
func (m *TokenManager) MintSession(userID string) (string, error) {
	return m.mint(userID, useSession, sessionTokenTTL)
}

// MintReset creates a short-lived token for the password-reset flow.
func (m *TokenManager) MintReset(userID string) (string, error) {
	return m.mint(userID, useReset, resetTokenTTL)
}

func (m *TokenManager) mint(userID, use string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := jwt.MapClaims{
		"iss": "ecopoints-twin",
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"use": use,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// ErrInvalidToken marks tokens that are garbled, missigned, expired, or used
// for the wrong purpose.
var ErrInvalidToken = errors.New("invalid token")

// VerifySession validates a session token and returns the user ID.
func (m *TokenManager) VerifySession(token string) (string, error) {
	return m.verify(token, useSession)
}

// VerifyReset validates a password-reset token and returns the user ID.
func (m *TokenManager) VerifyReset(token string) (string, error) {
	return m.verify(token, useReset)
}

func (m *TokenManager) verify(token, use string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	if u, _ := claims["use"].(string); u != use {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
