// Package history keeps an audit trail of fired escalation steps, so
// operators can answer "who was paged for this notification, and when".
package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
)

// QueryOptions filter the escalation history. Zero values impose no
// constraint.
type QueryOptions struct {
	NotificationID string
	RuleID         string
	Since          *time.Time
	Limit          int
}

// Store records fired escalation steps in memory. The history is an
// observability aid, not a source of truth — it resets with the process.
type Store struct {
	mu    sync.RWMutex
	fired []escalation.FiredStep
}

func NewStore() *Store {
	return &Store{}
}

// Append records fired steps. Safe for concurrent use with Query.
func (s *Store) Append(_ context.Context, steps ...escalation.FiredStep) {
	if len(steps) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired = append(s.fired, steps...)
}

// Query returns matching fired steps, most recent first.
func (s *Store) Query(_ context.Context, opts QueryOptions) []escalation.FiredStep {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []escalation.FiredStep
	for _, f := range s.fired {
		if opts.NotificationID != "" && f.NotificationID != opts.NotificationID {
			continue
		}
		if opts.RuleID != "" && f.RuleID != opts.RuleID {
			continue
		}
		if opts.Since != nil && f.FiredAt.Before(*opts.Since) {
			continue
		}
		matched = append(matched, f)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].FiredAt.After(matched[j].FiredAt)
	})

	limit := opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
