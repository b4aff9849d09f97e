// Package handler implements the engine's HTTP surface: the notification
// center, preferences, lead scoring, escalation inspection, and event
// ingestion.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicaqs/crm-engine/internal/event"
	"github.com/dynamicaqs/crm-engine/internal/metrics"
	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// NotificationHandler implements HTTP handlers for the notification center.
type NotificationHandler struct {
	store   notification.Store
	tracker event.Tracker
}

// NewNotificationHandler creates a NotificationHandler. tracker may be nil
// when escalation is disabled.
func NewNotificationHandler(store notification.Store, tracker event.Tracker) *NotificationHandler {
	return &NotificationHandler{store: store, tracker: tracker}
}

// List returns notifications matching the query filter, newest first.
// GET /v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.Query(r.Context(), parseFilter(r))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if results == nil {
		results = []types.Notification{}
	}
	writeJSON(w, http.StatusOK, struct {
		Notifications []types.Notification `json:"notifications"`
		Count         int                  `json:"count"`
	}{results, len(results)})
}

// Get returns a single notification by id.
// GET /v1/notifications/{id}
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Create adds a notification directly, bypassing event ingestion. Used by
// integration adapters that already shape their own notifications.
// POST /v1/notifications
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var n types.Notification
	if err := decodeJSON(r, &n); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}
	stored, err := h.store.Add(r.Context(), n)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	metrics.NotificationsCreated.WithLabelValues(string(stored.Category)).Inc()
	if h.tracker != nil {
		h.tracker.Track(stored)
	}
	writeJSON(w, http.StatusCreated, stored)
}

// MarkRead marks a notification read. Idempotent.
// POST /v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.store.MarkRead)
}

// Archive archives a notification. Idempotent.
// POST /v1/notifications/{id}/archive
func (h *NotificationHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.store.Archive)
}

// Delete removes a notification permanently.
// DELETE /v1/notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) mutate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, id string) error) {
	id := chi.URLParam(r, "id")
	if err := op(r.Context(), id); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	n, err := h.store.Get(r.Context(), id)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
