package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/ecopoints-app/ecopoints/internal/twin"
	"github.com/ecopoints-app/ecopoints/internal/twin/store"
)

const resetCodeTTL = 10 * time.Minute

type registerRequest struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /registrarUsuario.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twin.Error(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		twin.Error(w, http.StatusBadRequest, "Todos los campos son obligatorios y la contraseña debe tener al menos 6 caracteres")
		return
	}

	u, err := h.store.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrEmailTaken) {
			twin.Error(w, http.StatusBadRequest, "El correo ya está registrado")
			return
		}
		twin.Error(w, http.StatusInternalServerError, "Error al registrar usuario")
		return
	}
	h.logger.Info("user registered", "user_id", u.ID, "email", u.Email)
	twin.JSON(w, http.StatusCreated, map[string]string{
		"mensaje": "Usuario registrado exitosamente",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /logeoUsuario. A successful login mints a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twin.Error(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	u, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		twin.Error(w, http.StatusUnauthorized, "Correo o contraseña incorrectos")
		return
	}
	token, err := h.tokens.MintSession(u.ID)
	if err != nil {
		twin.Error(w, http.StatusInternalServerError, "Error al iniciar sesión")
		return
	}
	twin.JSON(w, http.StatusOK, map[string]any{
		"mensaje": "Inicio de sesión exitoso",
		"token":   token,
		"usuario": map[string]string{
			"id":     u.ID,
			"nombre": u.Name,
			"correo": u.Email,
		},
	})
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestReset handles POST /solicitarReset. The code is logged instead of
// emailed; the response does not reveal whether the account exists.
func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twin.Error(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	if u, err := h.store.FindUserByEmail(req.Email); err == nil {
		code := fmt.Sprintf("%06d", rand.Intn(1000000))
		h.store.ResetCodes.Set(u.Email, store.ResetCode{
			Code:      code,
			Email:     u.Email,
			UserID:    u.ID,
			ExpiresAt: h.store.Clock.Now().Add(resetCodeTTL),
		})
		h.logger.Info("reset code issued", "email", u.Email, "code", code)
	}
	twin.JSON(w, http.StatusOK, map[string]string{
		"mensaje": "Si el correo está registrado, recibirás un código de verificación",
	})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"codigo"`
}

// VerifyResetCode handles POST /verificarCodigo, exchanging a valid code for
// a temporary token.
func (h *Handler) VerifyResetCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twin.Error(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	rc, ok := h.store.ResetCodes.Get(email)
	if !ok || rc.Used || rc.Code != req.Code || h.store.Clock.Now().After(rc.ExpiresAt) {
		twin.Error(w, http.StatusBadRequest, "Código inválido o expirado")
		return
	}
	rc.Used = true
	h.store.ResetCodes.Set(email, rc)

	token, err := h.tokens.MintReset(rc.UserID)
	if err != nil {
		twin.Error(w, http.StatusInternalServerError, "Error al verificar el código")
		return
	}
	twin.JSON(w, http.StatusOK, map[string]string{
		"mensaje":        "Código verificado",
		"token_temporal": token,
		"usuario_id":     rc.UserID,
	})
}

type updatePasswordRequest struct {
	UserID      string `json:"usuario_id"`
	TempToken   string `json:"token_temporal"`
	NewPassword string `json:"nueva_contrasena"`
}

// UpdatePassword handles POST /actualizarContrasena using the temporary
// token from VerifyResetCode.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twin.Error(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	userID, err := h.tokens.VerifyReset(req.TempToken)
	if err != nil || userID != req.UserID {
		twin.Error(w, http.StatusUnauthorized, "Token temporal inválido o expirado")
		return
	}
	if len(req.NewPassword) < 6 {
		twin.Error(w, http.StatusBadRequest, "La contraseña debe tener al menos 6 caracteres")
		return
	}
	if err := h.store.SetPassword(userID, req.NewPassword); err != nil {
		twin.Error(w, http.StatusInternalServerError, "Error al actualizar la contraseña")
		return
	}
	h.logger.Info("password updated", "user_id", userID)
	twin.JSON(w, http.StatusOK, map[string]string{
		"mensaje": "Contraseña actualizada exitosamente",
	})
}
