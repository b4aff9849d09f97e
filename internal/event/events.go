// Package event defines the CRM domain events the engine ingests and the
// recorder that turns them into notifications.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// DomainEvent is the canonical shape of every CRM event. Each event carries
// the notification it raises; the recorder persists that notification and
// publishes the event to downstream consumers.
type DomainEvent struct {
	ID           string             `json:"id"`
	EventType    string             `json:"eventType"`
	OccurredAt   time.Time          `json:"occurredAt"`
	Summary      string             `json:"summary"`
	Notification types.Notification `json:"notification"`
	Payload      json.RawMessage    `json:"payload,omitempty"`
}

func newID() string { return uuid.New().String() }

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// ── Quote events ─────────────────────────────────────────────────────────────

// QuoteSubmittedPayload carries event-specific data for QuoteSubmitted.
type QuoteSubmittedPayload struct {
	QuoteID    string  `json:"quoteId"`
	DealerID   string  `json:"dealerId"`
	DealerName string  `json:"dealerName"`
	Value      float64 `json:"value"`
	UnitCount  int     `json:"unitCount"`
	SalesPhase string  `json:"salesPhase"`
	Segment    string  `json:"segment"`
}

// NewQuoteSubmitted raises a notification for a freshly submitted quote.
// Quotes at or above 50k are urgent; the rest are high.
func NewQuoteSubmitted(p QuoteSubmittedPayload) DomainEvent {
	priority := types.PriorityHigh
	if p.Value >= 50000 {
		priority = types.PriorityUrgent
	}
	now := time.Now().UTC()
	return DomainEvent{
		ID:         newID(),
		EventType:  "quote_submitted",
		OccurredAt: now,
		Summary:    fmt.Sprintf("Quote %s submitted by %s ($%.0f)", p.QuoteID, p.DealerName, p.Value),
		Notification: types.Notification{
			Title:       fmt.Sprintf("Quote #%s awaiting review", p.QuoteID),
			Message:     fmt.Sprintf("%s submitted a quote for %d units ($%.0f).", p.DealerName, p.UnitCount, p.Value),
			Type:        types.TypeWarning,
			Category:    types.CategoryCommercialQuote,
			Priority:    priority,
			CreatedAt:   now,
			ActionURL:   "/quotes/" + p.QuoteID,
			ActionLabel: "Review quote",
			Metadata: map[string]any{
				"quoteId":    p.QuoteID,
				"dealerId":   p.DealerID,
				"value":      p.Value,
				"salesPhase": p.SalesPhase,
				"segment":    p.Segment,
			},
		},
		Payload: mustJSON(p),
	}
}

// ── Order events ─────────────────────────────────────────────────────────────

// OrderShippedPayload carries event-specific data for OrderShipped.
type OrderShippedPayload struct {
	OrderID  string    `json:"orderId"`
	DealerID string    `json:"dealerId"`
	Carrier  string    `json:"carrier"`
	ETA      time.Time `json:"eta"`
}

func NewOrderShipped(p OrderShippedPayload) DomainEvent {
	now := time.Now().UTC()
	return DomainEvent{
		ID:         newID(),
		EventType:  "order_shipped",
		OccurredAt: now,
		Summary:    fmt.Sprintf("Order %s shipped via %s", p.OrderID, p.Carrier),
		Notification: types.Notification{
			Title:     fmt.Sprintf("Order #%s shipped", p.OrderID),
			Message:   fmt.Sprintf("Shipment is on its way via %s; ETA %s.", p.Carrier, p.ETA.Format("Monday, Jan 2")),
			Type:      types.TypeSuccess,
			Category:  types.CategoryOrder,
			Priority:  types.PriorityMedium,
			CreatedAt: now,
			ActionURL: "/orders/" + p.OrderID,
			Metadata: map[string]any{
				"orderId":  p.OrderID,
				"dealerId": p.DealerID,
				"carrier":  p.Carrier,
			},
		},
		Payload: mustJSON(p),
	}
}

// OrderDelayedPayload carries event-specific data for OrderDelayed.
type OrderDelayedPayload struct {
	OrderID   string `json:"orderId"`
	DealerID  string `json:"dealerId"`
	DelayDays int    `json:"delayDays"`
	Reason    string `json:"reason"`
}

func NewOrderDelayed(p OrderDelayedPayload) DomainEvent {
	now := time.Now().UTC()
	return DomainEvent{
		ID:         newID(),
		EventType:  "order_delayed",
		OccurredAt: now,
		Summary:    fmt.Sprintf("Order %s delayed %d days", p.OrderID, p.DelayDays),
		Notification: types.Notification{
			Title:     fmt.Sprintf("Order #%s delayed", p.OrderID),
			Message:   fmt.Sprintf("%s pushed the ship date out %d days.", p.Reason, p.DelayDays),
			Type:      types.TypeError,
			Category:  types.CategoryOrder,
			Priority:  types.PriorityHigh,
			CreatedAt: now,
			ActionURL: "/orders/" + p.OrderID,
			Metadata: map[string]any{
				"orderId":   p.OrderID,
				"dealerId":  p.DealerID,
				"delayDays": float64(p.DelayDays),
			},
		},
		Payload: mustJSON(p),
	}
}

// ── Lead events ──────────────────────────────────────────────────────────────

// LeadScoreChangedPayload carries event-specific data for LeadScoreChanged.
type LeadScoreChangedPayload struct {
	LeadID   string `json:"leadId"`
	LeadName string `json:"leadName"`
	OldScore int    `json:"oldScore"`
	NewScore int    `json:"newScore"`
	Trigger  string `json:"trigger"`
}

// NewLeadScoreChanged raises a notification when a lead's score moves.
// Crossing 80 marks the lead hot and bumps the priority.
func NewLeadScoreChanged(p LeadScoreChangedPayload) DomainEvent {
	priority := types.PriorityMedium
	title := fmt.Sprintf("Lead score updated: %s", p.LeadName)
	if p.NewScore >= 80 && p.OldScore < 80 {
		priority = types.PriorityHigh
		title = fmt.Sprintf("Hot lead: %s", p.LeadName)
	}
	now := time.Now().UTC()
	return DomainEvent{
		ID:         newID(),
		EventType:  "lead_score_changed",
		OccurredAt: now,
		Summary:    fmt.Sprintf("Lead %s score %d -> %d", p.LeadID, p.OldScore, p.NewScore),
		Notification: types.Notification{
			Title:     title,
			Message:   fmt.Sprintf("AI score moved from %d to %d after %s.", p.OldScore, p.NewScore, p.Trigger),
			Type:      types.TypeInfo,
			Category:  types.CategoryLead,
			Priority:  priority,
			CreatedAt: now,
			ActionURL: "/leads/" + p.LeadID,
			Metadata: map[string]any{
				"leadId": p.LeadID,
				"score":  float64(p.NewScore),
			},
		},
		Payload: mustJSON(p),
	}
}

// ── Training events ──────────────────────────────────────────────────────────

// TrainingExpiringPayload carries event-specific data for TrainingExpiring.
type TrainingExpiringPayload struct {
	UserID        string `json:"userId"`
	Certification string `json:"certification"`
	DaysLeft      int    `json:"daysLeft"`
}

func NewTrainingExpiring(p TrainingExpiringPayload) DomainEvent {
	priority := types.PriorityLow
	if p.DaysLeft <= 14 {
		priority = types.PriorityMedium
	}
	now := time.Now().UTC()
	return DomainEvent{
		ID:         newID(),
		EventType:  "training_expiring",
		OccurredAt: now,
		Summary:    fmt.Sprintf("%s certification expires in %d days for %s", p.Certification, p.DaysLeft, p.UserID),
		Notification: types.Notification{
			Title:     "Certification expiring",
			Message:   fmt.Sprintf("Your %s certification expires in %d days.", p.Certification, p.DaysLeft),
			Type:      types.TypeWarning,
			Category:  types.CategoryTraining,
			Priority:  priority,
			CreatedAt: now,
			ActionURL: "/training/renewals",
			Metadata: map[string]any{
				"recipient":     p.UserID,
				"certification": p.Certification,
				"daysLeft":      float64(p.DaysLeft),
			},
		},
		Payload: mustJSON(p),
	}
}

// ── Integration events ───────────────────────────────────────────────────────

// IntegrationFailurePayload carries event-specific data for IntegrationFailure.
type IntegrationFailurePayload struct {
	Integration  string `json:"integration"`
	FailureCount int    `json:"failureCount"`
	Detail       string `json:"detail"`
}

// NewIntegrationFailure raises a notification for a failing integration.
// Repeated failures (3+) are urgent.
func NewIntegrationFailure(p IntegrationFailurePayload) DomainEvent {
	priority := types.PriorityHigh
	if p.FailureCount >= 3 {
		priority = types.PriorityUrgent
	}
	now := time.Now().UTC()
	return DomainEvent{
		ID:         newID(),
		EventType:  "integration_failure",
		OccurredAt: now,
		Summary:    fmt.Sprintf("%s integration failed (%d attempts)", p.Integration, p.FailureCount),
		Notification: types.Notification{
			Title:     fmt.Sprintf("%s sync failing", p.Integration),
			Message:   p.Detail,
			Type:      types.TypeError,
			Category:  types.CategoryIntegration,
			Priority:  priority,
			CreatedAt: now,
			ActionURL: "/settings/integrations",
			Metadata: map[string]any{
				"integration":  p.Integration,
				"failureCount": float64(p.FailureCount),
			},
		},
		Payload: mustJSON(p),
	}
}
