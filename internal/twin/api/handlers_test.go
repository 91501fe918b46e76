package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ecopoints-app/ecopoints/internal/station"
	"github.com/ecopoints-app/ecopoints/internal/testutil"
	"github.com/ecopoints-app/ecopoints/internal/twin"
	"github.com/ecopoints-app/ecopoints/internal/twin/store"
)

func newTestTwin(t *testing.T) (*testutil.Client, *store.MemoryStore) {
	t.Helper()
	tw := twin.New(&twin.Config{Name: "ecopoints-test"})
	s := store.New()
	tokens, err := NewTokenManager(s.Clock.Now)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	h := NewHandler(s, tokens, tw.Logger)
	h.Routes(tw.Router)

	srv := httptest.NewServer(tw)
	t.Cleanup(srv.Close)
	return testutil.NewClient(t, srv), s
}

// registerAndLogin creates an account and returns an authenticated client
// plus the user ID.
func registerAndLogin(t *testing.T, c *testutil.Client, email string) (*testutil.Client, string) {
	t.Helper()
	c.Post("/registrarUsuario", map[string]string{
		"nombre":   "María García",
		"email":    email,
		"password": "secreto1",
	}).AssertStatus(http.StatusCreated)

	body := c.Post("/logeoUsuario", map[string]string{
		"email":    email,
		"password": "secreto1",
	}).AssertStatus(http.StatusOK).JSONMap()

	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("login returned no token")
	}
	usuario, _ := body["usuario"].(map[string]any)
	id, _ := usuario["id"].(string)
	if id == "" {
		t.Fatal("login returned no user id")
	}
	return c.WithToken(token), id
}

// currentPayload returns the payload a station display would be showing
// right now according to the twin's clock.
func currentPayload(t *testing.T, s *store.MemoryStore, stationID string) string {
	t.Helper()
	st, ok := s.Stations.Get(stationID)
	if !ok {
		t.Fatalf("unknown station %s", stationID)
	}
	g := &station.Generator{StationID: st.ID, Material: st.Material, Now: s.Clock.Now}
	raw, err := g.Encode()
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestRegisterAndLogin(t *testing.T) {
	c, _ := newTestTwin(t)
	auth, userID := registerAndLogin(t, c, "maria@example.com")

	body := auth.Get("/obtenerPuntos?usuario_id=" + userID).
		AssertStatus(http.StatusOK).JSONMap()
	if pts, _ := body["puntos"].(float64); pts != 0 {
		t.Errorf("new user balance = %v, want 0", pts)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	c, _ := newTestTwin(t)
	registerAndLogin(t, c, "maria@example.com")

	c.Post("/registrarUsuario", map[string]string{
		"nombre":   "Otra María",
		"email":    "MARIA@example.com", // case-insensitive match
		"password": "secreto2",
	}).AssertStatus(http.StatusBadRequest).
		AssertBodyContains("El correo ya está registrado")
}

func TestRegisterValidation(t *testing.T) {
	c, _ := newTestTwin(t)
	c.Post("/registrarUsuario", map[string]string{
		"nombre":   "X",
		"email":    "x@example.com",
		"password": "ab", // too short
	}).AssertStatus(http.StatusBadRequest)
}

func TestLoginBadCredentials(t *testing.T) {
	c, _ := newTestTwin(t)
	registerAndLogin(t, c, "maria@example.com")

	c.Post("/logeoUsuario", map[string]string{
		"email":    "maria@example.com",
		"password": "wrong",
	}).AssertStatus(http.StatusUnauthorized).
		AssertBodyContains("Correo o contraseña incorrectos")
}

func TestProtectedEndpointsRequireToken(t *testing.T) {
	c, _ := newTestTwin(t)

	c.Get("/obtenerPuntos?usuario_id=u1").
		AssertStatus(http.StatusUnauthorized).
		AssertBodyContains("Sesión expirada")
	c.Get("/obtenerHistorial?usuario_id=u1").
		AssertStatus(http.StatusUnauthorized)
	c.Post("/validarQR", map[string]string{"codigo_qr": "x"}).
		AssertStatus(http.StatusUnauthorized)

	c.WithToken("garbage").Get("/obtenerPuntos?usuario_id=u1").
		AssertStatus(http.StatusUnauthorized)
}

func TestPointsOnlyForOwnUser(t *testing.T) {
	c, _ := newTestTwin(t)
	auth, _ := registerAndLogin(t, c, "maria@example.com")

	auth.Get("/obtenerPuntos?usuario_id=someone-else").
		AssertStatus(http.StatusForbidden)
}

func TestValidateQRAwardsPoints(t *testing.T) {
	c, s := newTestTwin(t)
	auth, userID := registerAndLogin(t, c, "maria@example.com")

	body := auth.Post("/validarQR", map[string]string{
		"codigo_qr": currentPayload(t, s, "STATION-1"),
	}).AssertStatus(http.StatusOK).JSONMap()

	if pts, _ := body["puntos_obtenidos"].(float64); pts != 25 {
		t.Errorf("puntos_obtenidos = %v, want 25 for plastic", pts)
	}
	if loc, _ := body["ubicacion"].(string); loc == "" {
		t.Error("expected ubicacion in response")
	}

	// The balance moved and a scan transaction was appended.
	bal := auth.Get("/obtenerPuntos?usuario_id=" + userID).JSONMap()
	if pts, _ := bal["puntos"].(float64); pts != 25 {
		t.Errorf("balance = %v, want 25", pts)
	}
	txs := s.HistoryFor(userID)
	if len(txs) != 1 || txs[0].Kind != "scan" || txs[0].Points != 25 {
		t.Errorf("unexpected ledger: %+v", txs)
	}
}

func TestValidateQRGarbled(t *testing.T) {
	c, _ := newTestTwin(t)
	auth, _ := registerAndLogin(t, c, "maria@example.com")

	for _, payload := range []string{"", "not json", `{"stationId":"STATION-1"}`} {
		auth.Post("/validarQR", map[string]string{"codigo_qr": payload}).
			AssertStatus(http.StatusBadRequest).
			AssertBodyContains("Código QR inválido o expirado")
	}
}

func TestValidateQRExpired(t *testing.T) {
	c, s := newTestTwin(t)
	auth, _ := registerAndLogin(t, c, "maria@example.com")

	payload := currentPayload(t, s, "STATION-1")
	s.Clock.Advance(2 * station.RotationInterval)

	auth.Post("/validarQR", map[string]string{"codigo_qr": payload}).
		AssertStatus(http.StatusBadRequest).
		AssertBodyContains("Código QR inválido o expirado")
}

func TestValidateQRUnknownStation(t *testing.T) {
	c, s := newTestTwin(t)
	auth, _ := registerAndLogin(t, c, "maria@example.com")

	g := &station.Generator{StationID: "STATION-99", Material: station.MaterialPlastic, Now: s.Clock.Now}
	raw, _ := g.Encode()
	auth.Post("/validarQR", map[string]string{"codigo_qr": raw}).
		AssertStatus(http.StatusBadRequest)
}

func TestHistoryInsertionOrder(t *testing.T) {
	c, s := newTestTwin(t)
	auth, userID := registerAndLogin(t, c, "maria@example.com")

	// Seed entries whose dates run against insertion order.
	s.Transactions.Set("txn_a", store.Transaction{
		ID: "txn_a", UserID: userID, Kind: "scan", Points: 10,
		Description: "a", Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Transactions.Set("txn_b", store.Transaction{
		ID: "txn_b", UserID: userID, Kind: "scan", Points: 20,
		Description: "b", Date: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	var txs []store.Transaction
	auth.Get("/obtenerHistorial?usuario_id="+userID).
		AssertStatus(http.StatusOK).JSON(&txs)

	// The server returns insertion order; sorting is the client's job.
	if len(txs) != 2 || txs[0].ID != "txn_a" || txs[1].ID != "txn_b" {
		t.Errorf("unexpected order: %+v", txs)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	c, s := newTestTwin(t)
	registerAndLogin(t, c, "maria@example.com")

	c.Post("/solicitarReset", map[string]string{"email": "maria@example.com"}).
		AssertStatus(http.StatusOK)

	rc, ok := s.ResetCodes.Get("maria@example.com")
	if !ok {
		t.Fatal("expected a stored reset code")
	}

	body := c.Post("/verificarCodigo", map[string]string{
		"email":  "maria@example.com",
		"codigo": rc.Code,
	}).AssertStatus(http.StatusOK).JSONMap()

	tempToken, _ := body["token_temporal"].(string)
	resetUserID, _ := body["usuario_id"].(string)
	if tempToken == "" || resetUserID == "" {
		t.Fatalf("incomplete verification response: %v", body)
	}

	c.Post("/actualizarContrasena", map[string]string{
		"usuario_id":       resetUserID,
		"token_temporal":   tempToken,
		"nueva_contrasena": "nuevaClave1",
	}).AssertStatus(http.StatusOK).
		AssertBodyContains("Contraseña actualizada exitosamente")

	// Old password is gone, the new one works.
	c.Post("/logeoUsuario", map[string]string{
		"email": "maria@example.com", "password": "secreto1",
	}).AssertStatus(http.StatusUnauthorized)
	c.Post("/logeoUsuario", map[string]string{
		"email": "maria@example.com", "password": "nuevaClave1",
	}).AssertStatus(http.StatusOK)

	// The code is single use.
	c.Post("/verificarCodigo", map[string]string{
		"email": "maria@example.com", "codigo": rc.Code,
	}).AssertStatus(http.StatusBadRequest)
}

func TestResetUnknownEmailDoesNotLeak(t *testing.T) {
	c, s := newTestTwin(t)
	c.Post("/solicitarReset", map[string]string{"email": "nadie@example.com"}).
		AssertStatus(http.StatusOK)
	if s.ResetCodes.Count() != 0 {
		t.Error("no code may be stored for an unknown email")
	}
}

func TestSessionTokenExpiry(t *testing.T) {
	c, s := newTestTwin(t)
	auth, userID := registerAndLogin(t, c, "maria@example.com")

	s.Clock.Advance(25 * time.Hour)
	auth.Get("/obtenerPuntos?usuario_id=" + userID).
		AssertStatus(http.StatusUnauthorized).
		AssertBodyContains("Sesión expirada")
}
