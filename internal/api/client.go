// Package api provides the HTTP client for the remote EcoPoints REST API.
// All business logic (point calculation, QR validation, persistence) lives
// server-side; this client only shapes requests and classifies failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnauthorized marks responses with HTTP 401: the bearer token is missing,
// invalid, or expired. There is no token refresh; the caller must force a
// fresh login.
var ErrUnauthorized = errors.New("sesión expirada")

// Error is a non-2xx response from the API.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

// Is reports ErrUnauthorized for 401 responses so callers can use errors.Is.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// User is the identity block returned by /logeoUsuario.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"nombre"`
	Email string `json:"correo"`
}

// LoginResult is the response of a successful login.
type LoginResult struct {
	Message string `json:"mensaje"`
	Token   string `json:"token"`
	User    User   `json:"usuario"`
}

// TransactionKind distinguishes point-earning scans from redemptions.
type TransactionKind string

const (
	KindScan   TransactionKind = "scan"
	KindRedeem TransactionKind = "redeem"
)

// Transaction is a server-issued, immutable ledger entry. The server does not
// guarantee any ordering; display code sorts by timestamp descending.
type Transaction struct {
	ID          string          `json:"id"`
	Kind        TransactionKind `json:"type"`
	Points      int             `json:"points"`
	Description string          `json:"description"`
	Location    string          `json:"location,omitempty"`
	Date        time.Time       `json:"date"`
}

// ScanResult is the response of a validated QR scan.
type ScanResult struct {
	Points   int    `json:"puntos_obtenidos"`
	Message  string `json:"mensaje"`
	Location string `json:"ubicacion,omitempty"`
}

// ResetVerification is the response of a verified password-reset code.
type ResetVerification struct {
	Message   string `json:"mensaje"`
	TempToken string `json:"token_temporal"`
	UserID    string `json:"usuario_id"`
}

// Client talks to the EcoPoints API. Token may be empty for the
// unauthenticated endpoints (login, register, password reset).
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client with a 5-second timeout.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

// WithToken returns a copy of the client authenticating with the given bearer
// token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Login authenticates with email and password via POST /logeoUsuario.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.post(ctx, "/logeoUsuario", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.Token == "" || res.User.ID == "" {
		return nil, fmt.Errorf("api: login response missing token or user")
	}
	return &res, nil
}

// Register creates an account via POST /registrarUsuario and returns the
// server message. Registration does not log the user in.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var res struct {
		Message string `json:"mensaje"`
	}
	err := c.post(ctx, "/registrarUsuario", map[string]string{
		"nombre":   name,
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

// Points fetches the user's current balance via GET /obtenerPuntos. The value
// is a volatile snapshot, fetched fresh per screen, never a local source of
// truth.
func (c *Client) Points(ctx context.Context, userID string) (int, error) {
	var res struct {
		Points int `json:"puntos"`
	}
	err := c.get(ctx, "/obtenerPuntos?usuario_id="+url.QueryEscape(userID), &res)
	if err != nil {
		return 0, err
	}
	return res.Points, nil
}

// History fetches the transaction ledger via GET /obtenerHistorial, in
// whatever order the server returns it.
func (c *Client) History(ctx context.Context, userID string) ([]Transaction, error) {
	var res []Transaction
	err := c.get(ctx, "/obtenerHistorial?usuario_id="+url.QueryEscape(userID), &res)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// ValidateQR submits an opaque scanned payload via POST /validarQR. The client
// never interprets the payload; the server validates the station signature and
// awards points.
func (c *Client) ValidateQR(ctx context.Context, payload string) (*ScanResult, error) {
	var res ScanResult
	err := c.post(ctx, "/validarQR", map[string]string{"codigo_qr": payload}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RequestReset starts a password reset via POST /solicitarReset.
func (c *Client) RequestReset(ctx context.Context, email string) (string, error) {
	var res struct {
		Message string `json:"mensaje"`
	}
	err := c.post(ctx, "/solicitarReset", map[string]string{"email": email}, &res)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

// VerifyResetCode exchanges an emailed code for a temporary token via
// POST /verificarCodigo.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (*ResetVerification, error) {
	var res ResetVerification
	err := c.post(ctx, "/verificarCodigo", map[string]string{
		"email":  email,
		"codigo": code,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdatePassword sets a new password via POST /actualizarContrasena using the
// temporary token from VerifyResetCode.
func (c *Client) UpdatePassword(ctx context.Context, userID, tempToken, newPassword string) (string, error) {
	var res struct {
		Message string `json:"mensaje"`
	}
	err := c.post(ctx, "/actualizarContrasena", map[string]string{
		"usuario_id":       userID,
		"token_temporal":   tempToken,
		"nueva_contrasena": newPassword,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("api: request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("api: reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decoding response: %w", err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body. The API
// is inconsistent about the field name, so both "error" and "mensaje" are
// tried.
func errorMessage(body []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"mensaje"`
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return strings.TrimSpace(string(body))
	}
	if m.Error != "" {
		return m.Error
	}
	return m.Message
}
