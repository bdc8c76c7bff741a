// Package handler contains the HTTP handlers exposing the booking wizard
// to the website front end.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/model"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/wizard"
)

// WizardHandler serves the session-scoped wizard endpoints.
type WizardHandler struct {
	sessions *wizard.Sessions
}

// NewWizardHandler creates a handler over the session manager.
func NewWizardHandler(sessions *wizard.Sessions) *WizardHandler {
	return &WizardHandler{sessions: sessions}
}

// stateResponse is the full wizard view returned after most operations.
type stateResponse struct {
	SessionID  string               `json:"session_id,omitempty"`
	Draft      model.BookingDraft   `json:"draft"`
	Breakdown  model.PriceBreakdown `json:"breakdown"`
	Protection string               `json:"protection_state"`
	Vehicles   []model.Vehicle      `json:"vehicles,omitempty"`
}

func (h *WizardHandler) state(w *wizard.Wizard, sessionID string, withCatalog bool) stateResponse {
	resp := stateResponse{
		SessionID:  sessionID,
		Draft:      w.Draft(),
		Breakdown:  w.Breakdown(),
		Protection: string(w.ProtectionState()),
	}
	if withCatalog {
		resp.Vehicles = w.Vehicles()
	}
	return resp
}

// CreateSession handles POST /api/v1/wizard
//
// Mounts a fresh wizard, loads the reference catalog, and returns the
// session id with the initial state.
func (h *WizardHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, wiz := h.sessions.Create()
	if err := wiz.Load(r.Context()); err != nil {
		log.Printf("[handler] reference load failed: %v", err)
		h.sessions.Delete(id)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "reference data unavailable, please retry",
		})
		return
	}
	writeJSON(w, http.StatusCreated, h.state(wiz, id, true))
}

// GetState handles GET /api/v1/wizard/{session_id}
func (h *WizardHandler) GetState(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.state(wiz, "", true))
}

// PatchFields handles PATCH /api/v1/wizard/{session_id}/fields
//
// Body: {"field_name": "value", ...}. Each field is validated inline;
// the response carries the refreshed draft and breakdown.
func (h *WizardHandler) PatchFields(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	for name, value := range fields {
		wiz.SetField(name, value)
	}
	writeJSON(w, http.StatusOK, h.state(wiz, "", false))
}

// SetExtra handles POST /api/v1/wizard/{session_id}/extras
//
// Body: {"id": "champagne", "selected": true}
func (h *WizardHandler) SetExtra(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	var req struct {
		ID       string `json:"id"`
		Selected bool   `json:"selected"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}
	wiz.SetExtra(req.ID, req.Selected)
	writeJSON(w, http.StatusOK, h.state(wiz, "", false))
}

// SetCoordinates handles POST /api/v1/wizard/{session_id}/coordinates
//
// Body: {"endpoint": "pickup"|"dropoff", "lat": ..., "lon": ...}
// The mileage estimate resolves asynchronously; the front end receives it
// on the next state read or via the breakdown refresh.
func (h *WizardHandler) SetCoordinates(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	var req struct {
		Endpoint string  `json:"endpoint"`
		Lat      float64 `json:"lat"`
		Lon      float64 `json:"lon"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}
	if req.Endpoint != "pickup" && req.Endpoint != "dropoff" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "endpoint must be pickup or dropoff"})
		return
	}
	// The estimate may resolve after this response is written; it must
	// not be cancelled with the request, so it runs on its own context.
	wiz.SetCoordinates(context.Background(), req.Endpoint, model.Coordinates{Lat: req.Lat, Lon: req.Lon})
	writeJSON(w, http.StatusAccepted, h.state(wiz, "", false))
}

// Advance handles POST /api/v1/wizard/{session_id}/advance
func (h *WizardHandler) Advance(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	if err := wiz.Advance(); err != nil {
		switch {
		case errors.Is(err, wizard.ErrValidationFailed):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation_failed",
				"step":   wiz.Draft().CurrentStep,
				"errors": wiz.Draft().FieldErrors,
			})
		case errors.Is(err, wizard.ErrAtLastStep):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "already_on_last_step"})
		default:
			log.Printf("[handler] advance error: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, h.state(wiz, "", false))
}

// Back handles POST /api/v1/wizard/{session_id}/back
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	if err := wiz.Back(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already_on_first_step"})
		return
	}
	writeJSON(w, http.StatusOK, h.state(wiz, "", false))
}

// Submit handles POST /api/v1/wizard/{session_id}/submit
//
// On success returns the payment redirect and the booking reference; the
// session's draft is reset. On a collaborator failure the draft is
// retained and the response signals a retryable error.
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	redirect, reference, err := wiz.Submit(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, wizard.ErrValidationFailed):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation_failed",
				"errors": wiz.Draft().FieldErrors,
			})
		case errors.Is(err, wizard.ErrNotOnFinalStep):
			writeJSON(w, http.StatusConflict, map[string]any{
				"error": "not_on_final_step",
				"step":  wiz.Draft().CurrentStep,
			})
		case errors.Is(err, wizard.ErrProtectionPending):
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":   "protection_pending",
				"message": "Submit or close the protection enquiry first.",
			})
		case errors.Is(err, wizard.ErrSubmission):
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":   "submission_failed",
				"message": "Something went wrong, please try again. Your details are saved.",
			})
		default:
			log.Printf("[handler] submit error: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"reference":    reference,
		"redirect_url": redirect,
	})
}

// Abandon handles DELETE /api/v1/wizard/{session_id}
func (h *WizardHandler) Abandon(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(mux.Vars(r)["session_id"])
	w.WriteHeader(http.StatusNoContent)
}

// lookupSession resolves the session or writes a 404.
func lookupSession(s *wizard.Sessions, w http.ResponseWriter, r *http.Request) (*wizard.Wizard, bool) {
	wiz, err := s.Get(mux.Vars(r)["session_id"])
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   "session_not_found",
			"message": "Unknown or expired booking session.",
		})
		return nil, false
	}
	return wiz, true
}

// writeJSON is a helper that writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
