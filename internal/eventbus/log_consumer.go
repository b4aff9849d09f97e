package eventbus

import (
	"context"
	"log"

	"github.com/dynamicaqs/crm-engine/internal/event"
)

// LogConsumer logs all domain events for observability.
type LogConsumer struct{}

func NewLogConsumer() *LogConsumer { return &LogConsumer{} }

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	n := evt.Notification
	log.Printf("event: %s [%s/%s] %s — notification=%s",
		evt.EventType, n.Category, n.Priority, evt.Summary, n.ID)
	return nil
}
