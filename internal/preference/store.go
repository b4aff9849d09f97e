package preference

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// ErrInvalidPreferences is returned when stored preferences carry unknown
// categories, priorities, or frequencies.
var ErrInvalidPreferences = errors.New("invalid preferences")

// Store holds per-user notification preferences in memory. Unknown users
// get defaults, so the gate never has to special-case a missing record.
type Store struct {
	mu    sync.RWMutex
	prefs map[string]types.NotificationPreferences
}

// NewStore creates a new empty preference store.
func NewStore() *Store {
	return &Store{prefs: make(map[string]types.NotificationPreferences)}
}

// Defaults returns the preferences applied to users who never saved any:
// every category enabled on both channels, immediate delivery, no quiet
// hours.
func Defaults(userID string) types.NotificationPreferences {
	categories := make(map[types.Category]types.CategoryPreference, len(types.Categories()))
	for _, c := range types.Categories() {
		categories[c] = types.CategoryPreference{Enabled: true, Email: true, Push: true}
	}
	return types.NotificationPreferences{
		UserID:       userID,
		Categories:   categories,
		EmailEnabled: true,
		PushEnabled:  true,
		Frequency:    types.FrequencyImmediate,
	}
}

// Get returns the stored preferences for a user, or defaults.
func (s *Store) Get(_ context.Context, userID string) types.NotificationPreferences {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prefs[userID]; ok {
		return copyPreferences(p)
	}
	return Defaults(userID)
}

// Put validates and replaces a user's preferences.
func (s *Store) Put(_ context.Context, p types.NotificationPreferences) error {
	if p.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidPreferences)
	}
	if !p.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidPreferences, p.Frequency)
	}
	for c, cat := range p.Categories {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidPreferences, c)
		}
		if cat.Priority != "" && !cat.Priority.Valid() {
			return fmt.Errorf("%w: unknown priority %q for category %q", ErrInvalidPreferences, cat.Priority, c)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs[p.UserID] = copyPreferences(p)
	return nil
}

func copyPreferences(p types.NotificationPreferences) types.NotificationPreferences {
	categories := make(map[types.Category]types.CategoryPreference, len(p.Categories))
	for c, cat := range p.Categories {
		categories[c] = cat
	}
	p.Categories = categories
	return p
}
