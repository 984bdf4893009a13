package adminapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"rentwatch/internal/logs"
	"rentwatch/internal/middleware"
	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

type Handler struct {
	d Dependencies
}

func writeErr(w http.ResponseWriter, err error) {
	switch {
	case repo.IsValidation(err):
		models.WriteProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), nil)
	case errors.Is(err, repo.ErrNotFound):
		models.WriteProblem(w, http.StatusNotFound, "Not Found", err.Error(), nil)
	case errors.Is(err, repo.ErrForbidden):
		models.WriteProblem(w, http.StatusForbidden, "Forbidden", err.Error(), nil)
	default:
		logs.Logger.Errorf("admin api error: %v", err)
		models.WriteProblem(w, http.StatusInternalServerError,
			"Internal Server Error", "unexpected server error", nil)
	}
}

// GET /api/devices/monitor — живая сводка по парку.
func (h *Handler) Monitor(w http.ResponseWriter, r *http.Request) {
	offlineAfter := h.d.Settings.GetInt(r.Context(), repo.KeyOfflineAfterMinutes, 15)
	sum, rows, err := h.d.Devices.Monitor(r.Context(), time.Duration(offlineAfter)*time.Minute)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": sum,
		"data":    rows,
	})
}

// PUT /api/devices/{id}/mode — явное переключение NORMAL/SUPERWATCH.
func (h *Handler) SwitchMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode   string `json:"mode"`
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, repo.Invalid("malformed JSON body"))
		return
	}
	claims := middleware.GetClaims(r)
	dev, err := h.d.Ctrl.Switch(r.Context(), mux.Vars(r)["id"], req.Mode, req.Reason, claims.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Device switched to " + req.Mode + " mode",
		"data": map[string]any{
			"deviceId": dev.ID,
			"mode":     dev.TrackingMode,
			"reason":   dev.SuperwatchReason,
		},
	})
}

// GET /api/alerts?severity=&deviceId= — нерешённые, свежие первыми.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	f := repo.AlertFilter{Severity: r.URL.Query().Get("severity")}
	if raw := r.URL.Query().Get("deviceId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeErr(w, repo.Invalid("deviceId must be numeric"))
			return
		}
		f.DeviceID = uint(id)
	}
	rows, err := h.d.Events.ListUnresolved(r.Context(), f)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   len(rows),
		"data":    rows,
	})
}

// PUT /api/alerts/{id}/resolve
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	var req struct {
		ResolveNote string `json:"resolveNote"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req) // тело опционально
	}
	claims := middleware.GetClaims(r)
	if err := h.d.Events.Resolve(r.Context(), uint(alertID), claims.UserID, req.ResolveNote); err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Alert resolved",
	})
}

func (h *Handler) findDevice(w http.ResponseWriter, r *http.Request) (*models.Device, bool) {
	dev, err := h.d.Devices.FindByIdent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeErr(w, err)
		return nil, false
	}
	return dev, true
}

// GET /api/devices/{id}/events?limit=&unresolved=
func (h *Handler) DeviceEvents(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.findDevice(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.d.Events.HistoryByDevice(r.Context(), dev.ID, limit,
		r.URL.Query().Get("unresolved") == "true")
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   len(rows),
		"data":    rows,
	})
}

// GET /api/devices/{id}/stats?limit=
func (h *Handler) DeviceStats(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.findDevice(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.d.Stats.History(r.Context(), dev.ID, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   len(rows),
		"data":    rows,
	})
}

// GET /api/devices/{id}/screenshots?limit= — без самих картинок.
func (h *Handler) DeviceScreenshots(w http.ResponseWriter, r *http.Request) {
	dev, ok := h.findDevice(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := h.d.Shots.ListByDevice(r.Context(), dev.ID, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"total":   len(rows),
		"data":    rows,
	})
}

// GET /api/screenshots/{id} — одна запись вместе с данными.
func (h *Handler) Screenshot(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	shot, err := h.d.Shots.Get(r.Context(), uint(id))
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    shot,
		"image":   base64.StdEncoding.EncodeToString(shot.Data),
	})
}

// GET /api/settings?category= — сгруппировано по категориям.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	grouped, err := h.d.Settings.ListGrouped(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    grouped,
	})
}

// PUT /api/settings/{key}
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	// value может прийти и строкой, и числом, и bool — нормализуем
	var req struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, repo.Invalid("malformed JSON body"))
		return
	}
	if req.Value == nil {
		writeErr(w, repo.Invalid("missing value"))
		return
	}
	value := fmt.Sprint(req.Value)
	claims := middleware.GetClaims(r)
	if err := h.d.Settings.Update(r.Context(), key, value, claims.UserID); err != nil {
		writeErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Setting '" + key + "' updated",
		"data":    map[string]string{"key": key, "value": value},
	})
}
