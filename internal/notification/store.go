// Package notification provides the notification store interface and
// implementations backing the CRM notification center.
package notification

import (
	"context"
	"errors"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

var (
	// ErrNotFound is returned for operations on an unknown notification id.
	ErrNotFound = errors.New("notification not found")

	// ErrDuplicateID is returned when Add sees an id that already exists.
	ErrDuplicateID = errors.New("notification id already exists")

	// ErrInvalidInput is returned when a notification carries an unknown
	// type, category, or priority.
	ErrInvalidInput = errors.New("invalid notification")
)

// Filter selects notifications in Query. All set fields are ANDed; unset
// fields impose no constraint. CreatedFrom and CreatedTo bound CreatedAt
// inclusively.
type Filter struct {
	Categories  []types.Category
	Types       []types.NotificationType
	Priorities  []types.Priority
	Read        *bool
	Archived    *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int // max results (default: 100, max: 500)
}

// Store is the interface for reading and writing notifications.
//
// Implementations serialize mutations (single writer); Query returns a
// consistent snapshot whose elements do not alias store state. Results are
// ordered by CreatedAt descending; equal timestamps preserve insertion
// order. Each mutation is atomic: on error the store is unchanged.
type Store interface {
	// Add stores a new notification and returns it as stored: a zero
	// CreatedAt is set to now, a missing id is generated, defaults are
	// filled.
	Add(ctx context.Context, n types.Notification) (types.Notification, error)

	// Get returns a single notification by id.
	Get(ctx context.Context, id string) (types.Notification, error)

	// MarkRead marks a notification read. Idempotent; UpdatedAt is bumped
	// only when the flag actually changes.
	MarkRead(ctx context.Context, id string) error

	// Archive marks a notification archived. Idempotent. Archiving does
	// not force the read flag; the two stay independent.
	Archive(ctx context.Context, id string) error

	// Remove deletes a notification.
	Remove(ctx context.Context, id string) error

	// Query returns notifications matching the filter, most recent first.
	Query(ctx context.Context, f Filter) ([]types.Notification, error)

	// TagEscalated records in the notification's metadata that an
	// escalation rule fired for it. This is the only notification
	// mutation the escalation engine performs.
	TagEscalated(ctx context.Context, id, ruleID string) error
}

// normalize fills defaults and validates enum fields on an incoming
// notification. Shared by both store implementations.
func normalize(n types.Notification, now time.Time) (types.Notification, error) {
	if n.Type == "" {
		n.Type = types.TypeInfo
	}
	if n.Priority == "" {
		n.Priority = types.PriorityMedium
	}
	if !n.Type.Valid() {
		return n, errInvalid("type", string(n.Type))
	}
	if !n.Category.Valid() {
		return n, errInvalid("category", string(n.Category))
	}
	if !n.Priority.Valid() {
		return n, errInvalid("priority", string(n.Priority))
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.Before(n.CreatedAt) {
		n.UpdatedAt = n.CreatedAt
	}
	return n, nil
}

func errInvalid(field, value string) error {
	return &fieldError{field: field, value: value}
}

// fieldError wraps ErrInvalidInput with the offending field.
type fieldError struct {
	field string
	value string
}

func (e *fieldError) Error() string {
	return "invalid notification: unknown " + e.field + " " + `"` + e.value + `"`
}

func (e *fieldError) Unwrap() error { return ErrInvalidInput }

// matches reports whether n satisfies every set filter field.
func (f Filter) matches(n types.Notification) bool {
	if len(f.Categories) > 0 && !containsCategory(f.Categories, n.Category) {
		return false
	}
	if len(f.Types) > 0 && !containsType(f.Types, n.Type) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, n.Priority) {
		return false
	}
	if f.Read != nil && n.Read != *f.Read {
		return false
	}
	if f.Archived != nil && n.Archived != *f.Archived {
		return false
	}
	if f.CreatedFrom != nil && n.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && n.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

// limit returns the effective result cap for the filter.
func (f Filter) limit() int {
	if f.Limit <= 0 || f.Limit > 500 {
		if f.Limit > 500 {
			return 500
		}
		return 100
	}
	return f.Limit
}

func containsCategory(s []types.Category, v types.Category) bool {
	for _, c := range s {
		if c == v {
			return true
		}
	}
	return false
}

func containsType(s []types.NotificationType, v types.NotificationType) bool {
	for _, t := range s {
		if t == v {
			return true
		}
	}
	return false
}

func containsPriority(s []types.Priority, v types.Priority) bool {
	for _, p := range s {
		if p == v {
			return true
		}
	}
	return false
}
