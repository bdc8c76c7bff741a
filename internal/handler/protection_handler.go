package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/protection"
	"github.com/GHULAM-1/supreme-drive-suite-sub000/internal/wizard"
)

// ProtectionHandler serves the close-protection sub-flow endpoints nested
// under a wizard session.
type ProtectionHandler struct {
	sessions *wizard.Sessions
}

// NewProtectionHandler creates a handler over the session manager.
func NewProtectionHandler(sessions *wizard.Sessions) *ProtectionHandler {
	return &ProtectionHandler{sessions: sessions}
}

// Open handles POST /api/v1/wizard/{session_id}/protection/open
func (h *ProtectionHandler) Open(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	wiz.OpenProtection()
	writeJSON(w, http.StatusOK, map[string]string{"state": string(wiz.ProtectionState())})
}

// PatchFields handles PATCH /api/v1/wizard/{session_id}/protection/fields
//
// Body: {"field_name": "value", ...}
func (h *ProtectionHandler) PatchFields(w http.ResponseWriter, r *http.Request) {
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
		if err := wiz.SetProtectionField(name, value); err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error":   "form_not_open",
				"message": "Open the protection enquiry before editing it.",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(wiz.ProtectionState())})
}

// Submit handles POST /api/v1/wizard/{session_id}/protection/submit
//
// Field failures come back per field with 422; a successful submission
// merges the details into the draft.
func (h *ProtectionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	errs, err := wiz.SubmitProtection()
	if err != nil {
		switch {
		case errors.Is(err, protection.ErrInvalidForm):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation_failed",
				"errors": errs,
			})
		case errors.Is(err, protection.ErrNotOpen):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "form_not_open"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(wiz.ProtectionState())})
}

// Cancel handles POST /api/v1/wizard/{session_id}/protection/cancel
func (h *ProtectionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	wiz.CancelProtection()
	writeJSON(w, http.StatusOK, map[string]string{"state": string(wiz.ProtectionState())})
}

// Disable handles DELETE /api/v1/wizard/{session_id}/protection
func (h *ProtectionHandler) Disable(w http.ResponseWriter, r *http.Request) {
	wiz, ok := lookupSession(h.sessions, w, r)
	if !ok {
		return
	}
	wiz.DisableProtection()
	writeJSON(w, http.StatusOK, map[string]string{"state": string(wiz.ProtectionState())})
}
