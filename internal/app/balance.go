package app

import (
	"context"
	"time"
)

// Balance is the locally cached point balance. Provisional is set whenever a
// local delta (a scan or a redemption) has been applied that the server has
// not yet confirmed; the next authoritative fetch overwrites it.
type Balance struct {
	Points      int
	Provisional bool
	FetchedAt   time.Time
}

// Balance returns the cached balance snapshot.
func (a *App) Balance() Balance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// ApplyDelta adjusts the balance optimistically and marks it provisional.
// The adjusted value is display-only; it is never sent to the server.
func (a *App) ApplyDelta(delta int) Balance {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balance.Points += delta
	if a.balance.Points < 0 {
		a.balance.Points = 0
	}
	a.balance.Provisional = true
	return a.balance
}

// RefreshBalance fetches the authoritative balance and replaces the cached
// value, clearing any provisional mark. Drift between the optimistic value
// and the server's is logged, never reconciled locally.
func (a *App) RefreshBalance(ctx context.Context) (Balance, error) {
	s, err := a.Current()
	if err != nil {
		return Balance{}, err
	}
	points, err := a.Client().Points(ctx, s.UserID)
	if err != nil {
		return Balance{}, a.classify(err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance.Provisional && a.balance.Points != points {
		a.Logger.Info("balance drift corrected",
			"optimistic", a.balance.Points, "authoritative", points)
	}
	a.balance = Balance{Points: points, FetchedAt: time.Now()}
	return a.balance, nil
}
