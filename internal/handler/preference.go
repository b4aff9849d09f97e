package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicaqs/crm-engine/internal/preference"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// PreferenceHandler implements HTTP handlers for per-user notification
// preferences.
type PreferenceHandler struct {
	store *preference.Store
}

func NewPreferenceHandler(store *preference.Store) *PreferenceHandler {
	return &PreferenceHandler{store: store}
}

// Get returns a user's preferences, defaults included for unknown users.
// GET /v1/preferences/{userId}
func (h *PreferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	writeJSON(w, http.StatusOK, h.store.Get(r.Context(), userID))
}

// Put replaces a user's preferences. The path user id wins over any id in
// the body.
// PUT /v1/preferences/{userId}
func (h *PreferenceHandler) Put(w http.ResponseWriter, r *http.Request) {
	var p types.NotificationPreferences
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	p.UserID = chi.URLParam(r, "userId")
	if err := h.store.Put(r.Context(), p); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Get(r.Context(), p.UserID))
}

// Preview runs a hypothetical notification through the gate for a user,
// so the portal can explain why something would or wouldn't be delivered.
// POST /v1/preferences/{userId}/preview
func (h *PreferenceHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var n types.Notification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	pref := h.store.Get(r.Context(), chi.URLParam(r, "userId"))
	decision := preference.ShouldDeliver(pref, n, time.Now())
	writeJSON(w, http.StatusOK, decision)
}
