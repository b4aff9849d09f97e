package eventbus

import (
	"context"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/delivery"
	"github.com/dynamicaqs/crm-engine/internal/event"
	"github.com/dynamicaqs/crm-engine/internal/preference"
)

// DeliveryConsumer runs each event's notification through the preference
// gate and hands the decision to the dispatcher. The recipient is taken
// from the notification's "recipient" metadata, falling back to a
// configured default inbox.
type DeliveryConsumer struct {
	prefs            *preference.Store
	dispatcher       *delivery.Dispatcher
	defaultRecipient string
}

// NewDeliveryConsumer creates the consumer. defaultRecipient receives
// notifications that name no recipient of their own.
func NewDeliveryConsumer(prefs *preference.Store, d *delivery.Dispatcher, defaultRecipient string) *DeliveryConsumer {
	return &DeliveryConsumer{
		prefs:            prefs,
		dispatcher:       d,
		defaultRecipient: defaultRecipient,
	}
}

func (c *DeliveryConsumer) HandleEvent(ctx context.Context, evt event.DomainEvent) error {
	n := evt.Notification

	recipient := c.defaultRecipient
	if r, ok := n.MetadataString("recipient"); ok && r != "" {
		recipient = r
	}

	pref := c.prefs.Get(ctx, recipient)
	decision := preference.ShouldDeliver(pref, n, time.Now())
	c.dispatcher.Dispatch(ctx, recipient, n, decision)
	return nil
}
