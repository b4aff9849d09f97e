package delivery

import (
	"context"
	"log"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/metrics"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

// FailureFunc receives asynchronous delivery failures. Channel is "email",
// "push", or "sms".
type FailureFunc func(channel, recipient string, n types.Notification, err error)

// Dispatcher fans a delivery decision out to the configured channel
// senders. Each channel gets exactly one attempt per decision; there are
// no internal retries.
type Dispatcher struct {
	email     EmailSender
	push      PushSender
	sms       SMSSender
	onFailure FailureFunc
}

// NewDispatcher creates a dispatcher over the given senders. A nil sender
// disables its channel.
func NewDispatcher(email EmailSender, push PushSender, sms SMSSender) *Dispatcher {
	return &Dispatcher{
		email: email,
		push:  push,
		sms:   sms,
		onFailure: func(channel, recipient string, n types.Notification, err error) {
			log.Printf("delivery: %s to %s failed for %s: %v", channel, recipient, n.ID, err)
		},
	}
}

// SetFailureFunc replaces the default failure logger.
func (d *Dispatcher) SetFailureFunc(f FailureFunc) {
	if f != nil {
		d.onFailure = f
	}
}

// Dispatch acts on a gate decision for one notification. A deferred
// decision is counted and dropped: deferred notifications reach the user
// through the notification center, not a channel send.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient string, n types.Notification, decision types.DeliveryDecision) {
	if !decision.Email && !decision.Push {
		return
	}
	if decision.Defer != nil {
		metrics.DeliveriesDeferred.Inc()
		log.Printf("delivery: %s deferred until %s for %s", n.ID, decision.Defer.Format(time.RFC3339), recipient)
		return
	}
	if decision.Email && d.email != nil {
		d.attempt(ctx, "email", recipient, n, d.email.SendEmail)
	}
	if decision.Push && d.push != nil {
		d.attempt(ctx, "push", recipient, n, d.push.SendPush)
	}
}

// DispatchStep delivers a fired escalation step to every recipient over
// every method the step names. Escalation sends bypass the preference
// gate: the rule author chose the audience.
func (d *Dispatcher) DispatchStep(ctx context.Context, n types.Notification, fired escalation.FiredStep) {
	for _, recipient := range fired.Step.Recipients {
		for _, method := range fired.Step.NotificationMethods {
			switch method {
			case "email":
				if d.email != nil {
					d.attempt(ctx, "email", recipient, n, d.email.SendEmail)
				}
			case "push":
				if d.push != nil {
					d.attempt(ctx, "push", recipient, n, d.push.SendPush)
				}
			case "sms":
				if d.sms != nil {
					d.attempt(ctx, "sms", recipient, n, d.sms.SendSMS)
				}
			}
		}
	}
}

type sendFunc func(ctx context.Context, recipient string, n types.Notification) error

func (d *Dispatcher) attempt(ctx context.Context, channel, recipient string, n types.Notification, send sendFunc) {
	metrics.DeliveriesAttempted.WithLabelValues(channel).Inc()
	go func() {
		if err := send(ctx, recipient, n); err != nil {
			metrics.DeliveryFailures.WithLabelValues(channel).Inc()
			d.onFailure(channel, recipient, n, err)
		}
	}()
}
