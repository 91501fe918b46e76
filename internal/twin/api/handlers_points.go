package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ecopoints-app/ecopoints/internal/station"
	"github.com/ecopoints-app/ecopoints/internal/twin"
	"github.com/ecopoints-app/ecopoints/internal/twin/store"
)

// GetPoints handles GET /obtenerPuntos?usuario_id=. A user may only read
// their own balance.
func (h *Handler) GetPoints(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("usuario_id")
	if uid == "" || uid != userID(r) {
		twin.Error(w, http.StatusForbidden, "No autorizado")
		return
	}
	u, ok := h.store.Users.Get(uid)
	if !ok {
		twin.Error(w, http.StatusNotFound, "Usuario no encontrado")
		return
	}
	twin.JSON(w, http.StatusOK, map[string]int{"puntos": u.Points})
}

// GetHistory handles GET /obtenerHistorial?usuario_id=. Entries come back in
// insertion order; ordering for display is the client's job.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("usuario_id")
	if uid == "" || uid != userID(r) {
		twin.Error(w, http.StatusForbidden, "No autorizado")
		return
	}
	txs := h.store.HistoryFor(uid)
	if txs == nil {
		txs = []store.Transaction{}
	}
	twin.JSON(w, http.StatusOK, txs)
}

type validateQRRequest struct {
	Payload string `json:"codigo_qr"`
}

// materialNames maps material identifiers to the Spanish display names used
// in transaction descriptions.
var materialNames = map[station.Material]string{
	station.MaterialPlastic: "plástico",
	station.MaterialGlass:   "vidrio",
	station.MaterialPaper:   "papel",
	station.MaterialMetal:   "metal",
	station.MaterialOrganic: "orgánico",
}

// ValidateQR handles POST /validarQR. The payload must be a current station
// payload; points are awarded by the station's registered material and a
// scan transaction is appended.
func (h *Handler) ValidateQR(w http.ResponseWriter, r *http.Request) {
	var req validateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		twin.Error(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	p, err := station.Parse(req.Payload)
	if err != nil {
		twin.Error(w, http.StatusBadRequest, "Código QR inválido o expirado")
		return
	}
	if err := p.Verify(h.store.Clock.Now()); err != nil {
		twin.Error(w, http.StatusBadRequest, "Código QR inválido o expirado")
		return
	}
	st, ok := h.store.Stations.Get(p.StationID)
	if !ok {
		twin.Error(w, http.StatusBadRequest, "Código QR inválido o expirado")
		return
	}

	points := station.Points(st.Material)
	name := materialNames[st.Material]
	desc := fmt.Sprintf("Reciclaje de %s", name)

	tx, err := h.store.AddTransaction(userID(r), "scan", points, desc, st.Location)
	if err != nil {
		twin.Error(w, http.StatusInternalServerError, "Error al registrar el reciclaje")
		return
	}
	h.logger.Info("scan validated",
		"user_id", tx.UserID, "station", st.ID, "points", points)

	twin.JSON(w, http.StatusOK, map[string]any{
		"puntos_obtenidos": points,
		"mensaje":          "¡Reciclaje exitoso!",
		"ubicacion":        st.Location,
	})
}
