package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicaqs/crm-engine/internal/event"
	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

func eventRouter(store notification.Store) *chi.Mux {
	recorder := event.NewNotificationRecorder(store)
	r := chi.NewRouter()
	r.Post("/v1/events/{type}", NewEventHandler(recorder).Ingest)
	return r
}

func TestEventHandler_IngestQuote(t *testing.T) {
	store := notification.NewMemoryStore()
	router := eventRouter(store)

	body := `{"quoteId":"48291","dealerId":"northside","dealerName":"Northside Mechanical","value":125400,"unitCount":12,"salesPhase":"proposal","segment":"commercial"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/events/quote_submitted", strings.NewReader(body)))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		EventID        string `json:"eventId"`
		NotificationID string `json:"notificationId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.NotificationID == "" {
		t.Fatal("no notification id returned")
	}

	n, err := store.Get(context.Background(), resp.NotificationID)
	if err != nil {
		t.Fatalf("stored notification missing: %v", err)
	}
	if n.Category != types.CategoryCommercialQuote || n.Priority != types.PriorityUrgent {
		t.Errorf("notification = %s/%s, want commercial_quote/urgent", n.Category, n.Priority)
	}
	if v, _ := n.MetadataNumber("value"); v != 125400 {
		t.Errorf("value metadata = %v", v)
	}
}

func TestEventHandler_UnknownType(t *testing.T) {
	router := eventRouter(notification.NewMemoryStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/events/meteor_strike", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
