package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

func scoreRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Post("/v1/leads/{leadId}/score", NewScoreHandler().Compute)
	return r
}

func TestScoreHandler_Compute(t *testing.T) {
	body := `{"factors":[
		{"name":"email_opens","weight":0.4,"impact":"positive","score":80},
		{"name":"website_visits","weight":0.3,"impact":"positive","score":70},
		{"name":"company_size","weight":0.3,"impact":"positive","score":60}
	]}`

	rec := httptest.NewRecorder()
	scoreRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/leads/columbia-facilities/score", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var score types.AILeadScore
	if err := json.Unmarshal(rec.Body.Bytes(), &score); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if score.LeadID != "columbia-facilities" {
		t.Errorf("leadId = %q", score.LeadID)
	}
	if score.OverallScore < 0 || score.OverallScore > 100 {
		t.Errorf("overallScore = %d, out of range", score.OverallScore)
	}
	if score.UpdatedAt.IsZero() {
		t.Error("updatedAt not set")
	}
	if len(score.Factors) != 3 {
		t.Errorf("factors = %d, want 3", len(score.Factors))
	}
}

func TestScoreHandler_InvalidFactors(t *testing.T) {
	cases := map[string]string{
		"empty":           `{"factors":[]}`,
		"negative weight": `{"factors":[{"name":"x","weight":-1,"score":50}]}`,
		"score too high":  `{"factors":[{"name":"x","weight":1,"score":150}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			scoreRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/leads/l1/score", strings.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}
