package agentapi

import "github.com/gorilla/mux"

func RegisterRoutes(r *mux.Router, h *Handler) {
	sub := r.PathPrefix("/api/devices").Subrouter()
	sub.HandleFunc("/stats", h.SubmitStats).Methods("POST")
	sub.HandleFunc("/event", h.ReportEvent).Methods("POST")
	sub.HandleFunc("/screenshot", h.UploadScreenshot).Methods("POST")
	sub.HandleFunc("/register", h.Register).Methods("POST")
}
