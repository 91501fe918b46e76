package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecopoints-app/ecopoints/internal/api"
	"github.com/ecopoints-app/ecopoints/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newLoggedInApp builds an App over a test server with a stored session.
func newLoggedInApp(t *testing.T, handler http.Handler) (*App, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sessions, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	if err := sessions.Save(&session.Session{
		UserID: "u1", DisplayName: "María", Email: "maria@example.com", Token: "tok-1",
	}); err != nil {
		t.Fatalf("saving session: %v", err)
	}
	return New(api.New(srv.URL), sessions, discardLogger()), sessions
}

func TestLoginStampsSessionCreation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"mensaje":"Inicio de sesión exitoso","token":"tok-9",
			"usuario":{"id":"u9","nombre":"Ana","correo":"ana@example.com"}}`))
	}))
	t.Cleanup(srv.Close)

	sessions, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	a := New(api.New(srv.URL), sessions, discardLogger())

	before := time.Now()
	s, err := a.Login(context.Background(), "ana@example.com", "secreto")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.CreatedAt.Before(before) || s.CreatedAt.After(time.Now()) {
		t.Errorf("CreatedAt = %v, want stamped at login time", s.CreatedAt)
	}

	stored, err := sessions.Load()
	if err != nil || stored == nil {
		t.Fatalf("Load after login: %v, %v", stored, err)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("persisted session must carry the login time")
	}
}

func TestHistorySortedNewestFirst(t *testing.T) {
	a, _ := newLoggedInApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Served deliberately out of order.
		w.Write([]byte(`[
			{"id":"t1","type":"scan","points":10,"description":"a","date":"2026-01-05T10:00:00Z"},
			{"id":"t2","type":"scan","points":20,"description":"b","date":"2026-03-01T10:00:00Z"},
			{"id":"t3","type":"redeem","points":-150,"description":"c","date":"2026-02-10T10:00:00Z"}
		]`))
	}))

	txs, err := a.History(context.Background())
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txs))
	}
	if txs[0].ID != "t2" || txs[1].ID != "t3" || txs[2].ID != "t1" {
		t.Errorf("expected newest-first order t2,t3,t1, got %s,%s,%s",
			txs[0].ID, txs[1].ID, txs[2].ID)
	}
}

func TestBalanceProvisionalOverwrittenByFetch(t *testing.T) {
	a, _ := newLoggedInApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"puntos":150}`))
	}))

	bal := a.ApplyDelta(25)
	if !bal.Provisional || bal.Points != 25 {
		t.Fatalf("optimistic balance = %+v, want provisional 25", bal)
	}

	bal, err := a.RefreshBalance(context.Background())
	if err != nil {
		t.Fatalf("RefreshBalance: %v", err)
	}
	// The server's value wins; the provisional mark clears.
	if bal.Provisional || bal.Points != 150 {
		t.Errorf("refreshed balance = %+v, want authoritative 150", bal)
	}
	if bal.FetchedAt.IsZero() {
		t.Error("FetchedAt must be set on an authoritative fetch")
	}
}

func TestApplyDeltaFloorsAtZero(t *testing.T) {
	a, _ := newLoggedInApp(t, http.NotFoundHandler())
	a.ApplyDelta(100)
	if bal := a.ApplyDelta(-400); bal.Points != 0 {
		t.Errorf("balance = %d, want floor at 0", bal.Points)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	a, sessions := newLoggedInApp(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"Sesión expirada"}`))
	}))

	_, err := a.History(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("expected unauthorized classification, got %v", err)
	}

	// The stored session is gone; the next action lands on login.
	if s, _ := sessions.Load(); s != nil {
		t.Error("session must be cleared after a 401")
	}
	if _, err := a.Current(); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestHistoryRequiresSession(t *testing.T) {
	sessions, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a := New(api.New("http://127.0.0.1:0"), sessions, discardLogger())

	if _, err := a.History(context.Background()); !errors.Is(err, ErrNotLoggedIn) {
		t.Errorf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestNavigateGatesOnSession(t *testing.T) {
	sessions, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	a := New(api.New("http://127.0.0.1:0"), sessions, discardLogger())

	for _, screen := range []Screen{ScreenHome, ScreenScan, ScreenHistory, ScreenRewards, ScreenProfile} {
		if got := a.Navigate(screen); got != ScreenLogin {
			t.Errorf("Navigate(%s) without session = %s, want login", screen, got)
		}
	}
	if got := a.Navigate(ScreenLogin); got != ScreenLogin {
		t.Errorf("Navigate(login) = %s", got)
	}

	loggedIn, _ := newLoggedInApp(t, http.NotFoundHandler())
	if got := loggedIn.Navigate(ScreenScan); got != ScreenScan {
		t.Errorf("Navigate(scan) with session = %s, want scan", got)
	}
}

func TestResolveTheme(t *testing.T) {
	t.Setenv("ECOPOINTS_THEME", "")
	t.Setenv("COLORFGBG", "")

	if got := ResolveTheme("dark"); got != ThemeDark {
		t.Errorf("override dark = %s", got)
	}
	if got := ResolveTheme(""); got != ThemeLight {
		t.Errorf("default = %s, want light", got)
	}

	t.Setenv("ECOPOINTS_THEME", "dark")
	if got := ResolveTheme(""); got != ThemeDark {
		t.Errorf("env dark = %s", got)
	}
	// An explicit override still wins over the environment.
	if got := ResolveTheme("light"); got != ThemeLight {
		t.Errorf("override over env = %s, want light", got)
	}
}
