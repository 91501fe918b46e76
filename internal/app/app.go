// Package app ties the API client, session store, and local state together
// into the flows the user-facing surfaces drive: login, balance, history,
// redemption. Authenticated state lives here; screens only render it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ecopoints-app/ecopoints/internal/api"
	"github.com/ecopoints-app/ecopoints/internal/session"
)

// MsgSessionExpired is shown whenever the API rejects the bearer token. There
// is no refresh; the only recovery is a fresh login.
const MsgSessionExpired = "Sesión expirada. Inicia sesión nuevamente."

// ErrNotLoggedIn gates the authenticated screens.
var ErrNotLoggedIn = errors.New("not logged in")

// App is the authenticated application core.
type App struct {
	Sessions *session.Store
	Logger   *slog.Logger

	client *api.Client

	mu      sync.Mutex
	current *session.Session
	balance Balance
}

// New builds an App over the given API client and session store. The stored
// session, if any, is loaded lazily on first use.
func New(client *api.Client, sessions *session.Store, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{Sessions: sessions, Logger: logger, client: client}
}

// Current returns the active session, loading it from disk on first call.
// It returns ErrNotLoggedIn when no valid session exists.
func (a *App) Current() (*session.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentLocked()
}

func (a *App) currentLocked() (*session.Session, error) {
	if a.current != nil {
		return a.current, nil
	}
	s, err := a.Sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if s == nil {
		return nil, ErrNotLoggedIn
	}
	a.current = s
	return s, nil
}

// Client returns the API client, carrying the session token when logged in.
func (a *App) Client() *api.Client {
	a.mu.Lock()
	defer a.mu.Unlock()
	if s, err := a.currentLocked(); err == nil {
		return a.client.WithToken(s.Token)
	}
	return a.client
}

// Login authenticates and persists the session. Any previous session is
// replaced.
func (a *App) Login(ctx context.Context, email, password string) (*session.Session, error) {
	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	s := &session.Session{
		UserID:      res.User.ID,
		DisplayName: res.User.Name,
		Email:       res.User.Email,
		Token:       res.Token,
		CreatedAt:   time.Now(),
	}
	if err := a.Sessions.Save(s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	a.mu.Lock()
	a.current = s
	a.balance = Balance{}
	a.mu.Unlock()
	a.Logger.Info("logged in", "user_id", s.UserID)
	return s, nil
}

// Register creates an account. It does not log the user in.
func (a *App) Register(ctx context.Context, name, email, password string) (string, error) {
	return a.client.Register(ctx, name, email, password)
}

// Logout clears the persisted session. It is safe to call when logged out.
func (a *App) Logout() error {
	a.mu.Lock()
	a.current = nil
	a.balance = Balance{}
	a.mu.Unlock()
	return a.Sessions.Clear()
}

// History fetches the transaction ledger and sorts it newest first. The
// server makes no ordering promise, so ordering is applied here.
func (a *App) History(ctx context.Context) ([]api.Transaction, error) {
	s, err := a.Current()
	if err != nil {
		return nil, err
	}
	txs, err := a.Client().History(ctx, s.UserID)
	if err != nil {
		return nil, a.classify(err)
	}
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
	return txs, nil
}

// classify maps a 401 to the forced-relogin path: the stored session is
// dropped so the next action lands on the login screen.
func (a *App) classify(err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		a.Logger.Warn("session rejected, forcing re-login")
		if cerr := a.Logout(); cerr != nil {
			a.Logger.Error("clearing session", "error", cerr)
		}
		return fmt.Errorf("%s: %w", MsgSessionExpired, api.ErrUnauthorized)
	}
	return err
}
