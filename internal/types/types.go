// Package types provides the shared domain types of the CRM notification
// engine: notifications, delivery preferences, escalation rules, and AI lead
// scores. JSON field names match the CRM front-end's data contract and must
// not change without a coordinated front-end release.
package types

import (
	"encoding/json"
	"time"
)

// NotificationType is the visual severity of a notification.
type NotificationType string

const (
	TypeInfo    NotificationType = "info"
	TypeSuccess NotificationType = "success"
	TypeWarning NotificationType = "warning"
	TypeError   NotificationType = "error"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Category identifies the CRM subsystem a notification originates from.
type Category string

const (
	CategoryOrder                 Category = "order"
	CategoryTraining              Category = "training"
	CategoryCustomer              Category = "customer"
	CategorySystem                Category = "system"
	CategoryLead                  Category = "lead"
	CategoryIntegration           Category = "integration"
	CategoryCommercialOpportunity Category = "commercial_opportunity"
	CategoryCommercialQuote       Category = "commercial_quote"
	CategoryCommercialEngineer    Category = "commercial_engineer"
	CategoryCommercialRep         Category = "commercial_rep"
)

// Categories returns the closed set of notification categories in
// presentation order.
func Categories() []Category {
	return []Category{
		CategoryOrder, CategoryTraining, CategoryCustomer, CategorySystem,
		CategoryLead, CategoryIntegration, CategoryCommercialOpportunity,
		CategoryCommercialQuote, CategoryCommercialEngineer, CategoryCommercialRep,
	}
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Priority orders notifications by urgency. Urgent bypasses quiet hours
// and frequency batching.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// priorityRank maps each priority to its ordinal; higher means more urgent.
var priorityRank = map[Priority]int{
	PriorityLow:    1,
	PriorityMedium: 2,
	PriorityHigh:   3,
	PriorityUrgent: 4,
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	_, ok := priorityRank[p]
	return ok
}

// AtLeast reports whether p is at least as urgent as min.
func (p Priority) AtLeast(min Priority) bool {
	return priorityRank[p] >= priorityRank[min]
}

// Notification is a single entry in a user's notification center.
// ID, Title, Message, Type, Category and Priority are immutable after
// creation; Read and Archived are the only mutable flags.
type Notification struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Type        NotificationType `json:"type"`
	Category    Category         `json:"category"`
	Priority    Priority         `json:"priority"`
	Read        bool             `json:"read"`
	Archived    bool             `json:"archived"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	ActionURL   string           `json:"actionUrl,omitempty"`
	ActionLabel string           `json:"actionLabel,omitempty"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// MetadataNumber reads a numeric metadata value. JSON unmarshaling produces
// float64 for all numbers; stored values may also be int.
func (n Notification) MetadataNumber(key string) (float64, bool) {
	v, ok := n.Metadata[key]
	if !ok {
		return 0, false
	}
	switch num := v.(type) {
	case float64:
		return num, true
	case int:
		return float64(num), true
	case int64:
		return float64(num), true
	case json.Number:
		f, err := num.Float64()
		return f, err == nil
	}
	return 0, false
}

// MetadataString reads a string metadata value.
func (n Notification) MetadataString(key string) (string, bool) {
	s, ok := n.Metadata[key].(string)
	return s, ok
}

// CategoryPreference holds a user's delivery settings for one category.
type CategoryPreference struct {
	Enabled  bool     `json:"enabled"`
	Email    bool     `json:"email"`
	Push     bool     `json:"push"`
	Priority Priority `json:"priority"`
}

// QuietHours is a user-configured window during which non-urgent delivery
// is deferred. Start and End are "HH:MM" in the user's local time; the
// window may wrap across midnight (e.g. 22:00–06:00).
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Frequency controls delivery batching for non-urgent notifications.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyHourly, FrequencyDaily:
		return true
	}
	return false
}

// NotificationPreferences holds one user's delivery configuration.
// Categories missing from the map default to enabled with both channels on.
type NotificationPreferences struct {
	UserID       string                          `json:"userId"`
	Categories   map[Category]CategoryPreference `json:"categories"`
	EmailEnabled bool                            `json:"emailEnabled"`
	PushEnabled  bool                            `json:"pushEnabled"`
	QuietHours   QuietHours                      `json:"quietHours"`
	Frequency    Frequency                       `json:"frequency"`
}

// DeliveryDecision is the PreferenceGate's verdict for one notification.
// A nil Defer means deliver now (or not at all, when both channels are off).
type DeliveryDecision struct {
	Email bool       `json:"email"`
	Push  bool       `json:"push"`
	Defer *time.Time `json:"defer,omitempty"`
}

// RuleConditions gate whether an escalation rule applies to a notification.
// Unset fields impose no constraint; threshold comparisons are inclusive.
type RuleConditions struct {
	MinValue    *float64   `json:"minValue,omitempty"`    // metadata "value" >= MinValue
	MaxValue    *float64   `json:"maxValue,omitempty"`    // metadata "value" <= MaxValue
	Priorities  []Priority `json:"priorities,omitempty"`  // notification priority in set
	Categories  []Category `json:"categories,omitempty"`  // notification category in set
	SalesPhases []string   `json:"salesPhases,omitempty"` // metadata "salesPhase" in set
	Segments    []string   `json:"segments,omitempty"`    // metadata "segment" in set
}

// StepConditions gate whether an individual escalation step fires.
type StepConditions struct {
	// StillUnread requires the notification to be unread at fire time.
	StillUnread bool `json:"stillUnread,omitempty"`
	// FireAlways fires the step even after the notification is read or
	// archived. Without it, a read notification resolves the pairing.
	FireAlways bool `json:"fireAlways,omitempty"`
}

// EscalationStep is one timed follow-up in an escalation sequence.
// DelayMinutes is measured from the notification's CreatedAt, not from the
// previous step.
type EscalationStep struct {
	DelayMinutes        int             `json:"delayMinutes"`
	Recipients          []string        `json:"recipients"`
	NotificationMethods []string        `json:"notificationMethods"` // "email", "push", "sms"
	Template            string          `json:"template,omitempty"`
	Conditions          *StepConditions `json:"conditions,omitempty"`
}

// EscalationRule maps a notification's attributes to a sequence of timed
// follow-up actions. Rules are configured externally and read-only to the
// engine.
type EscalationRule struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Enabled         bool             `json:"enabled"`
	Conditions      RuleConditions   `json:"conditions"`
	EscalationSteps []EscalationStep `json:"escalationSteps"`
}

// ScoreFactor is one weighted input to a lead score.
type ScoreFactor struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Impact      string  `json:"impact"` // "positive", "negative", "neutral"
	Score       float64 `json:"score"`  // 0–100
	Description string  `json:"description,omitempty"`
}

// Confidence is the qualitative reliability label of a derived score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// AILeadScore is the derived 0–100 summary of a sales lead's conversion
// likelihood. OverallScore is the weight-normalized combination of Factors.
type AILeadScore struct {
	LeadID                string        `json:"leadId,omitempty"`
	OverallScore          int           `json:"overallScore"`
	EngagementScore       int           `json:"engagementScore"`
	BehaviorScore         int           `json:"behaviorScore"`
	DemographicScore      int           `json:"demographicScore"`
	ConversionProbability int           `json:"conversionProbability"`
	Confidence            Confidence    `json:"confidence"`
	Factors               []ScoreFactor `json:"factors"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}
