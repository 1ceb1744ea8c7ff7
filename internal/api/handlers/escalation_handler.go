package handlers

import (
	"context"
	"encoding/json"
	"net/http"
)

// EscalationService defines the interface for volunteer escalation operations
type EscalationService interface {
	VolunteerAction(ctx context.Context, appointmentID, action string) error
}

// EscalationHandler handles volunteer resolution requests
type EscalationHandler struct {
	service EscalationService
}

// NewEscalationHandler creates a new escalation handler
func NewEscalationHandler(service EscalationService) *EscalationHandler {
	return &EscalationHandler{
		service: service,
	}
}

type volunteerActionRequest struct {
	Action string `json:"action"`
}

// ResolveEscalation handles POST /api/appointments/{id}/action. The assigned
// volunteer reports how their outreach ended: confirm, reschedule or transfer.
func (h *EscalationHandler) ResolveEscalation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var req volunteerActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if req.Action == "" {
		respondWithError(w, http.StatusBadRequest, "action is required")
		return
	}

	if err := h.service.VolunteerAction(r.Context(), id, req.Action); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "resolved",
		"action": req.Action,
	})
}
