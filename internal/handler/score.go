package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dynamicaqs/crm-engine/internal/scoring"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// ScoreHandler computes AI lead scores from weighted factor sets.
type ScoreHandler struct{}

func NewScoreHandler() *ScoreHandler { return &ScoreHandler{} }

// Compute scores a lead from the submitted factors.
// POST /v1/leads/{leadId}/score
func (h *ScoreHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Factors []types.ScoreFactor `json:"factors"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid JSON body")
		return
	}

	score, err := scoring.ComputeScore(body.Factors)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	score.LeadID = chi.URLParam(r, "leadId")
	score.UpdatedAt = time.Now().UTC()
	writeJSON(w, http.StatusOK, score)
}
