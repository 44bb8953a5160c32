package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kantoorhq/kantoor/internal/models"
	"github.com/kantoorhq/kantoor/internal/services/credentials"
)

var knownProviders = []string{
	models.ProviderGoogle,
	models.ProviderMicrosoft,
	models.ProviderDropbox,
}

func isKnownProvider(provider string) bool {
	for _, known := range knownProviders {
		if provider == known {
			return true
		}
	}
	return false
}

// handleListIntegrations returns the connection status of every provider
// for the requesting owner. Reads only; no refresh is triggered.
func (s *Server) handleListIntegrations(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)

	statuses := make([]*models.ConnectionStatus, 0, len(knownProviders))
	for _, provider := range knownProviders {
		status, err := s.app.Credentials(provider, owner).GetStatus(r.Context())
		if err != nil {
			s.app.Logger.Warn().
				Err(err).
				Str("provider", provider).
				Msg("Failed to read integration status")
			writeError(w, http.StatusInternalServerError, "failed to read integration status")
			return
		}
		statuses = append(statuses, status)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"integrations": statuses})
}

func (s *Server) handleDisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if !isKnownProvider(provider) {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	err := s.app.Credentials(provider, ownerID(r)).Disconnect(r.Context())
	if err != nil {
		if errors.Is(err, credentials.ErrNotConnected) {
			writeError(w, http.StatusNotFound, "integration not connected")
			return
		}
		s.app.Logger.Warn().Err(err).Str("provider", provider).Msg("Disconnect failed")
		writeError(w, http.StatusInternalServerError, "disconnect failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

func (s *Server) handleUpdateIntegrationSettings(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	if !isKnownProvider(provider) {
		writeError(w, http.StatusNotFound, "unknown provider")
		return
	}

	var partial map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, "invalid settings payload")
		return
	}

	err := s.app.Credentials(provider, ownerID(r)).UpdateSettings(r.Context(), partial)
	if err != nil {
		if errors.Is(err, credentials.ErrNotConnected) {
			writeError(w, http.StatusNotFound, "integration not connected")
			return
		}
		s.app.Logger.Warn().Err(err).Str("provider", provider).Msg("Settings update failed")
		writeError(w, http.StatusInternalServerError, "settings update failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}
