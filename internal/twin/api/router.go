// Package api implements the EcoPoints API endpoints over the in-memory
// store. Response shapes and error strings match the production API, Spanish
// messages included.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ecopoints-app/ecopoints/internal/twin"
	"github.com/ecopoints-app/ecopoints/internal/twin/store"
)

type contextKey string

const userIDCtxKey contextKey = "user_id"

// Handler holds all API handler state.
type Handler struct {
	store  *store.MemoryStore
	tokens *TokenManager
	logger *slog.Logger
}

// NewHandler creates an API handler. A nil logger defaults to slog.Default.
func NewHandler(s *store.MemoryStore, tokens *TokenManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{store: s, tokens: tokens, logger: logger}
}

// Routes mounts the API endpoints.
func (h *Handler) Routes(r chi.Router) {
	// Unauthenticated: account lifecycle and password reset.
	r.Post("/logeoUsuario", h.Login)
	r.Post("/registrarUsuario", h.Register)
	r.Post("/solicitarReset", h.RequestReset)
	r.Post("/verificarCodigo", h.VerifyResetCode)
	r.Post("/actualizarContrasena", h.UpdatePassword)

	// Bearer-token protected.
	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Get("/obtenerPuntos", h.GetPoints)
		r.Get("/obtenerHistorial", h.GetHistory)
		r.Post("/validarQR", h.ValidateQR)
	})
}

// authMiddleware validates the bearer token and stores the user ID in the
// request context. Any failure is a 401; there is no refresh path.
func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token == "" {
			twin.Error(w, http.StatusUnauthorized, "Sesión expirada")
			return
		}
		userID, err := h.tokens.VerifySession(token)
		if err != nil {
			twin.Error(w, http.StatusUnauthorized, "Sesión expirada")
			return
		}
		ctx := context.WithValue(r.Context(), userIDCtxKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userID returns the authenticated user ID from the request context.
func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDCtxKey).(string)
	return id
}
