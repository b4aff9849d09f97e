package handler

import (
	"net/http"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/history"
)

// EscalationHandler exposes the scheduler's rule set, pairing state, and
// fired-step history, plus an operator-triggered tick for debugging stuck
// escalations.
type EscalationHandler struct {
	sched     *escalation.Scheduler
	history   *history.Store
	rulesPath string
}

// NewEscalationHandler creates an EscalationHandler. rulesPath may be
// empty when the engine runs on built-in rules; Reload then fails with 400.
func NewEscalationHandler(sched *escalation.Scheduler, hist *history.Store, rulesPath string) *EscalationHandler {
	return &EscalationHandler{sched: sched, history: hist, rulesPath: rulesPath}
}

// Rules returns the active rule set.
// GET /v1/escalation/rules
func (h *EscalationHandler) Rules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Rules any `json:"rules"`
	}{h.sched.Rules()})
}

// Pairings returns all tracked (notification, rule) pairings.
// GET /v1/escalation/pairings
func (h *EscalationHandler) Pairings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Pairings []escalation.Pairing `json:"pairings"`
	}{h.sched.Pairings()})
}

// Tick runs one scheduler tick immediately and returns the fired steps.
// POST /v1/escalation/tick
func (h *EscalationHandler) Tick(w http.ResponseWriter, r *http.Request) {
	fired, err := h.sched.Tick(r.Context(), time.Now().UTC())
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	if h.history != nil {
		h.history.Append(r.Context(), fired...)
	}
	if fired == nil {
		fired = []escalation.FiredStep{}
	}
	writeJSON(w, http.StatusOK, struct {
		Fired []escalation.FiredStep `json:"fired"`
	}{fired})
}

// History returns previously fired steps, most recent first.
// GET /v1/escalation/history
func (h *EscalationHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, http.StatusOK, struct {
			Fired []escalation.FiredStep `json:"fired"`
		}{[]escalation.FiredStep{}})
		return
	}
	q := r.URL.Query()
	opts := history.QueryOptions{
		NotificationID: q.Get("notificationId"),
		RuleID:         q.Get("ruleId"),
	}
	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			opts.Since = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			opts.Limit = n
		}
	}
	fired := h.history.Query(r.Context(), opts)
	if fired == nil {
		fired = []escalation.FiredStep{}
	}
	writeJSON(w, http.StatusOK, struct {
		Fired []escalation.FiredStep `json:"fired"`
	}{fired})
}

// Reload re-reads the rules file and swaps the rule set atomically. A file
// that fails validation leaves the running rules untouched.
// POST /v1/escalation/rules/reload
func (h *EscalationHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if h.rulesPath == "" {
		writeError(w, http.StatusBadRequest, "NO_RULES_FILE", "engine is running on built-in rules; no file to reload")
		return
	}
	rules, err := escalation.LoadRules(h.rulesPath)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	h.sched.SetRules(rules)
	writeJSON(w, http.StatusOK, map[string]int{"rules": len(rules)})
}
