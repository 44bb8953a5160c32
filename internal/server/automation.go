package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/kantoorhq/kantoor/internal/models"
)

type automationRequest struct {
	Actions []json.RawMessage `json:"actions"`
}

type automationResponse struct {
	RequestID string                 `json:"request_id"`
	Completed bool                   `json:"completed"`
	Results   []*models.ActionResult `json:"results"`
}

// handleAutomationExecute runs an ordered action sequence in a fresh
// sandboxed browser session. The session lives exactly as long as this
// request; Close runs on every path.
func (s *Server) handleAutomationExecute(w http.ResponseWriter, r *http.Request) {
	var request automationRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(request.Actions) == 0 {
		writeError(w, http.StatusBadRequest, "actions list is empty")
		return
	}

	actions, err := models.ParseActions(request.Actions)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requestID := uuid.NewString()
	s.app.Logger.Info().
		Str("request_id", requestID).
		Int("actions", len(actions)).
		Msg("Automation sequence started")

	controller := s.app.NewBrowserSession()
	defer controller.Close()

	results := controller.ExecuteSequence(r.Context(), actions)

	completed := len(results) == len(actions)
	for _, result := range results {
		if !result.Success {
			completed = false
		}
	}

	s.app.Logger.Info().
		Str("request_id", requestID).
		Bool("completed", completed).
		Int("executed", len(results)).
		Msg("Automation sequence finished")

	writeJSON(w, http.StatusOK, automationResponse{
		RequestID: requestID,
		Completed: completed,
		Results:   results,
	})
}
