package adminapi

import (
	"github.com/gorilla/mux"

	"rentwatch/internal/middleware"
	"rentwatch/internal/models"
	"rentwatch/internal/repo"
	"rentwatch/internal/tracking"
)

type Dependencies struct {
	Devices  *repo.DeviceStore
	Events   *repo.EventStore
	Stats    *repo.StatsStore
	Shots    *repo.ScreenshotStore
	Settings *repo.SettingsStore
	Ctrl     *tracking.Controller
}

// Attach вешает админские ручки под JWT + ролевой фильтр.
func Attach(r *mux.Router, d Dependencies, jwtSecret string) {
	h := &Handler{d: d}
	sub := r.PathPrefix("/api").Subrouter()
	sub.Use(
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(models.RoleSuperAdmin, models.RoleAdmin, models.RoleStaff),
	)

	sub.HandleFunc("/devices/monitor", h.Monitor).Methods("GET")
	sub.HandleFunc("/devices/{id}/mode", h.SwitchMode).Methods("PUT")
	sub.HandleFunc("/devices/{id}/events", h.DeviceEvents).Methods("GET")
	sub.HandleFunc("/devices/{id}/stats", h.DeviceStats).Methods("GET")
	sub.HandleFunc("/devices/{id}/screenshots", h.DeviceScreenshots).Methods("GET")
	sub.HandleFunc("/screenshots/{id:[0-9]+}", h.Screenshot).Methods("GET")

	sub.HandleFunc("/alerts", h.Alerts).Methods("GET")
	sub.HandleFunc("/alerts/{id:[0-9]+}/resolve", h.ResolveAlert).Methods("PUT")

	sub.HandleFunc("/settings", h.Settings).Methods("GET")
	sub.HandleFunc("/settings/{key}", h.UpdateSetting).Methods("PUT")
}
