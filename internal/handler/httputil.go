package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/preference"
	"github.com/dynamicaqs/crm-engine/internal/scoring"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON encode error: %v", err)
	}
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// storeErrorToHTTP maps the engine's sentinel errors to HTTP responses.
func storeErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, notification.ErrDuplicateID):
		writeError(w, http.StatusConflict, "DUPLICATE_ID", err.Error())
	case errors.Is(err, notification.ErrInvalidInput),
		errors.Is(err, scoring.ErrInvalidInput),
		errors.Is(err, preference.ErrInvalidPreferences):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, escalation.ErrRuleValidation):
		writeError(w, http.StatusBadRequest, "RULE_VALIDATION", err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// parsePositiveInt parses a strictly positive integer query parameter.
func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("must be positive")
	}
	return n, nil
}

// parseFilter builds a notification filter from query parameters.
// Comma-separated lists for categories/types/priorities; read/archived as
// booleans; since/until as RFC3339; limit capped by the store.
func parseFilter(r *http.Request) notification.Filter {
	q := r.URL.Query()
	var f notification.Filter

	if cats := q.Get("categories"); cats != "" {
		for _, c := range strings.Split(cats, ",") {
			f.Categories = append(f.Categories, types.Category(strings.TrimSpace(c)))
		}
	}
	if ts := q.Get("types"); ts != "" {
		for _, t := range strings.Split(ts, ",") {
			f.Types = append(f.Types, types.NotificationType(strings.TrimSpace(t)))
		}
	}
	if ps := q.Get("priorities"); ps != "" {
		for _, p := range strings.Split(ps, ",") {
			f.Priorities = append(f.Priorities, types.Priority(strings.TrimSpace(p)))
		}
	}
	if v := q.Get("read"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Read = &b
		}
	}
	if v := q.Get("archived"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Archived = &b
		}
	}
	if v := q.Get("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.CreatedFrom = &t
		}
	}
	if v := q.Get("until"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.CreatedTo = &t
		}
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.Limit = n
		}
	}
	return f
}
