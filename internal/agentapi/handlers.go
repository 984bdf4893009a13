package agentapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"rentwatch/internal/ingest"
	"rentwatch/internal/logs"
	"rentwatch/internal/models"
	"rentwatch/internal/repo"
)

// Handler — агентские ручки. Аутентификации нет намеренно: агент
// на устройстве клиента, секрет ему доверить нельзя.
type Handler struct {
	svc      *ingest.Service
	devices  *repo.DeviceStore
	validate *validator.Validate
}

func New(svc *ingest.Service, devices *repo.DeviceStore) *Handler {
	return &Handler{svc: svc, devices: devices, validate: validator.New()}
}

// writeAgentErr — ошибки в формате, который разбирает агент
// (success/message), а не problem+json.
func writeAgentErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := "internal server error"
	switch {
	case repo.IsValidation(err):
		code, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, repo.ErrNotFound):
		code, msg = http.StatusNotFound, "device not found"
	case errors.Is(err, repo.ErrForbidden):
		code, msg = http.StatusForbidden, "screenshots only allowed in SUPERWATCH mode"
	default:
		logs.Logger.Errorf("agent api error: %v", err)
	}
	models.WriteJSON(w, code, map[string]any{
		"success":    false,
		"message":    msg,
		"lockStatus": false,
	})
}

func (h *Handler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return repo.Invalid("malformed JSON body")
	}
	if err := h.validate.Struct(v); err != nil {
		return repo.Invalid(err.Error())
	}
	return nil
}

// POST /api/devices/stats
func (h *Handler) SubmitStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := h.decode(r, &req); err != nil {
		writeAgentErr(w, err)
		return
	}

	resp, err := h.svc.Submit(r.Context(), ingest.SubmitInput{
		DeviceIdent:            req.DeviceID,
		Timestamp:              time.Time(req.Timestamp),
		CPUUsage:               req.CPUUsage,
		RAMUsage:               req.RAMUsage,
		DiskUsage:              req.DiskUsage,
		IPAddress:              req.IPAddress,
		ActiveMACAddress:       req.ActiveMACAddress,
		LanMACAddress:          req.LanMACAddress,
		ConnectionType:         req.ConnectionType,
		ComputerName:           req.ComputerName,
		LoggedInUser:           req.LoggedInUser,
		IsOnline:               req.IsOnline,
		RestartCount24h:        req.RestartCount24h,
		AbruptShutdownCount24h: req.AbruptShutdownCount24h,
		CPUTemp:                req.CPUTemp,
		HDDTemp:                req.HDDTemp,
		UptimeMinutes:          req.UptimeMinutes,
		ActiveWindow:           req.ActiveWindow,
	})
	if err != nil {
		writeAgentErr(w, err)
		return
	}

	models.WriteJSON(w, http.StatusOK, StatsResponse{
		Success:                   true,
		Message:                   "Stats received",
		LockStatus:                resp.LockStatus,
		DeviceStatus:              resp.DeviceStatus,
		TrackingMode:              resp.TrackingMode,
		ReportIntervalSeconds:     resp.Cadence.ReportIntervalSeconds,
		ScreenshotIntervalMinutes: resp.Cadence.ScreenshotIntervalMinutes,
	})
}

// POST /api/devices/event
func (h *Handler) ReportEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := h.decode(r, &req); err != nil {
		writeAgentErr(w, err)
		return
	}

	severity, err := h.svc.ReportEvent(r.Context(), ingest.EventInput{
		DeviceIdent: req.DeviceID,
		EventType:   req.EventType,
		EventData:   req.EventData,
		Severity:    req.Severity,
	})
	if err != nil {
		writeAgentErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, EventResponse{
		Success:  true,
		Message:  "Event recorded",
		Severity: severity,
	})
}

// POST /api/devices/screenshot
func (h *Handler) UploadScreenshot(w http.ResponseWriter, r *http.Request) {
	var req ScreenshotRequest
	if err := h.decode(r, &req); err != nil {
		writeAgentErr(w, err)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ScreenshotData)
	if err != nil {
		writeAgentErr(w, repo.Invalid("screenshotData must be base64"))
		return
	}

	err = h.svc.AcceptScreenshot(r.Context(), ingest.ScreenshotInput{
		DeviceIdent:  req.DeviceID,
		Data:         data,
		FileSizeKB:   req.FileSizeKB,
		Width:        req.Width,
		Height:       req.Height,
		ActiveWindow: req.ActiveWindow,
		TriggeredBy:  req.TriggeredBy,
		Meta:         req.Meta,
	})
	if err != nil {
		writeAgentErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Screenshot saved",
	})
}

// POST /api/devices/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decode(r, &req); err != nil {
		writeAgentErr(w, err)
		return
	}

	dev, err := h.devices.Register(r.Context(), repo.RegisterInput{
		DeviceType: req.DeviceType,
		Brand:      req.Brand,
		Model:      req.Model,
	})
	if err != nil {
		writeAgentErr(w, err)
		return
	}
	models.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Success:      true,
		Message:      "Device registered",
		SerialNumber: dev.SerialNumber,
	})
}
