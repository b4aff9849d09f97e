package event

import (
	"context"

	"github.com/dynamicaqs/crm-engine/internal/metrics"
	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// Recorder ingests a domain event into the notification center and
// returns the stored notification.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) (types.Notification, error)
}

// Publisher sends domain events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// Tracker registers a stored notification with the escalation scheduler.
type Tracker interface {
	Track(n types.Notification) int
}

// NotificationRecorder implements Recorder: it persists the event's
// notification, registers it for escalation, and publishes the event to the
// bus. The store write is authoritative — a failed write records nothing.
type NotificationRecorder struct {
	store   notification.Store
	tracker Tracker
	bus     Publisher
}

// NewNotificationRecorder creates a recorder backed by the given store.
func NewNotificationRecorder(store notification.Store) *NotificationRecorder {
	return &NotificationRecorder{store: store}
}

// SetTracker attaches an escalation scheduler. New notifications are
// evaluated against the rule set after the store write succeeds.
func (r *NotificationRecorder) SetTracker(t Tracker) {
	r.tracker = t
}

// SetPublisher attaches an event bus. Events are published after store writes.
func (r *NotificationRecorder) SetPublisher(p Publisher) {
	r.bus = p
}

// Record persists the event's notification and fans the event out.
func (r *NotificationRecorder) Record(ctx context.Context, evt DomainEvent) (types.Notification, error) {
	stored, err := r.store.Add(ctx, evt.Notification)
	if err != nil {
		return types.Notification{}, err
	}
	evt.Notification = stored
	metrics.EventsIngested.WithLabelValues(evt.EventType).Inc()
	metrics.NotificationsCreated.WithLabelValues(string(stored.Category)).Inc()

	if r.tracker != nil {
		r.tracker.Track(stored)
	}
	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return stored, nil
}
