package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicaqs/crm-engine/internal/event"
)

// EventHandler ingests CRM domain events posted by integration adapters.
type EventHandler struct {
	recorder event.Recorder
}

func NewEventHandler(recorder event.Recorder) *EventHandler {
	return &EventHandler{recorder: recorder}
}

// Ingest accepts one event by type. The payload shape depends on the type;
// an unknown type is a 400.
// POST /v1/events/{type}
func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	eventType := chi.URLParam(r, "type")

	var evt event.DomainEvent
	switch eventType {
	case "quote_submitted":
		var p event.QuoteSubmittedPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
		evt = event.NewQuoteSubmitted(p)
	case "order_shipped":
		var p event.OrderShippedPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
		evt = event.NewOrderShipped(p)
	case "order_delayed":
		var p event.OrderDelayedPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
		evt = event.NewOrderDelayed(p)
	case "lead_score_changed":
		var p event.LeadScoreChangedPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
		evt = event.NewLeadScoreChanged(p)
	case "training_expiring":
		var p event.TrainingExpiringPayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
		evt = event.NewTrainingExpiring(p)
	case "integration_failure":
		var p event.IntegrationFailurePayload
		if err := decodeJSON(r, &p); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
			return
		}
		evt = event.NewIntegrationFailure(p)
	default:
		writeError(w, http.StatusBadRequest, "UNKNOWN_EVENT_TYPE", "unknown event type: "+eventType)
		return
	}

	stored, err := h.recorder.Record(r.Context(), evt)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, struct {
		EventID      string `json:"eventId"`
		Notification string `json:"notificationId"`
	}{evt.ID, stored.ID})
}
