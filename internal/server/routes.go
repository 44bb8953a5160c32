package server

import (
	"encoding/json"
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)

	// Integration credential lifecycle
	mux.HandleFunc("GET /api/integrations", s.handleListIntegrations)
	mux.HandleFunc("POST /api/integrations/{provider}/disconnect", s.handleDisconnectIntegration)
	mux.HandleFunc("PATCH /api/integrations/{provider}/settings", s.handleUpdateIntegrationSettings)

	// Sandboxed browser automation
	mux.HandleFunc("POST /api/automation/execute", s.handleAutomationExecute)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": s.app.Config.Environment,
	})
}

// ownerID identifies the requesting owner. The dashboard gateway sets the
// header after authenticating the user.
func ownerID(r *http.Request) string {
	if owner := r.Header.Get("X-Owner-ID"); owner != "" {
		return owner
	}
	return "default"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
