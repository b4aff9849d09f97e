// Package worker contains the background loops that drive the engine's
// clocks: the escalation tick loop.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/delivery"
	"github.com/dynamicaqs/crm-engine/internal/escalation"
	"github.com/dynamicaqs/crm-engine/internal/feed"
	"github.com/dynamicaqs/crm-engine/internal/history"
	"github.com/dynamicaqs/crm-engine/internal/metrics"
	"github.com/dynamicaqs/crm-engine/internal/notification"
)

// EscalationLoop drives the scheduler from a wall-clock ticker and fans
// fired steps out to delivery and the live feed. The scheduler serialises
// ticks internally; the loop itself is a single goroutine.
type EscalationLoop struct {
	sched      *escalation.Scheduler
	store      notification.Store
	dispatcher *delivery.Dispatcher
	hub        *feed.Hub
	history    *history.Store
	interval   time.Duration
}

// NewEscalationLoop creates the loop. hub and hist may be nil when the
// feed or audit trail is disabled.
func NewEscalationLoop(sched *escalation.Scheduler, store notification.Store, d *delivery.Dispatcher, hub *feed.Hub, hist *history.Store, interval time.Duration) *EscalationLoop {
	if interval <= 0 {
		interval = time.Minute
	}
	return &EscalationLoop{
		sched:      sched,
		store:      store,
		dispatcher: d,
		hub:        hub,
		history:    hist,
		interval:   interval,
	}
}

// Run ticks until the context is cancelled.
func (l *EscalationLoop) Run(ctx context.Context) {
	log.Printf("escalation: loop started, tick interval %s", l.interval)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("escalation: loop stopped")
			return
		case now := <-ticker.C:
			l.tick(ctx, now.UTC())
		}
	}
}

func (l *EscalationLoop) tick(ctx context.Context, now time.Time) {
	start := time.Now()
	fired, err := l.sched.Tick(ctx, now)
	metrics.EscalationTickDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.Printf("escalation: tick error: %v", err)
	}
	if l.history != nil {
		l.history.Append(ctx, fired...)
	}

	for _, step := range fired {
		metrics.EscalationStepsFired.WithLabelValues(step.RuleID).Inc()
		log.Printf("escalation: rule %s step %d fired for %s -> %v via %v",
			step.RuleID, step.StepIndex, step.NotificationID, step.Step.Recipients, step.Step.NotificationMethods)

		n, err := l.store.Get(ctx, step.NotificationID)
		if err != nil {
			if !errors.Is(err, notification.ErrNotFound) {
				log.Printf("escalation: loading %s: %v", step.NotificationID, err)
			}
			continue
		}
		l.dispatcher.DispatchStep(ctx, n, step)
		if l.hub != nil {
			l.hub.BroadcastEscalation(ctx, step)
		}
	}
}
