// Seed populates a notification store with demo data for local development.
package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// SeedDemoData populates the store with a realistic notification center
// snapshot for a dealer-portal demo: a high-value quote awaiting action,
// order flow updates, training reminders, and an integration failure.
func SeedDemoData(ctx context.Context, store Store) error {
	now := time.Now().UTC()

	demo := []types.Notification{
		{
			ID:          "seed-quote-48291",
			Title:       "Quote #48291 awaiting review",
			Message:     "Northside Mechanical submitted a quote for 12 rooftop units ($125,400). No engineer has claimed it.",
			Type:        types.TypeWarning,
			Category:    types.CategoryCommercialQuote,
			Priority:    types.PriorityUrgent,
			CreatedAt:   now.Add(-45 * time.Minute),
			ActionURL:   "/quotes/48291",
			ActionLabel: "Review quote",
			Metadata: map[string]any{
				"value":      125400.0,
				"salesPhase": "proposal",
				"segment":    "commercial",
				"dealerId":   "northside-mechanical",
			},
		},
		{
			ID:        "seed-order-1077",
			Title:     "Order #1077 shipped",
			Message:   "4 condenser units left the Dallas warehouse; ETA Thursday.",
			Type:      types.TypeSuccess,
			Category:  types.CategoryOrder,
			Priority:  types.PriorityMedium,
			CreatedAt: now.Add(-3 * time.Hour),
			ActionURL: "/orders/1077",
			Metadata:  map[string]any{"orderId": "1077", "carrier": "XPO"},
		},
		{
			ID:        "seed-order-1062",
			Title:     "Order #1062 delayed",
			Message:   "Compressor backorder pushed the ship date out 10 days. Customer has been notified.",
			Type:      types.TypeError,
			Category:  types.CategoryOrder,
			Priority:  types.PriorityHigh,
			CreatedAt: now.Add(-26 * time.Hour),
			ActionURL: "/orders/1062",
			Metadata:  map[string]any{"orderId": "1062", "delayDays": 10.0},
		},
		{
			ID:        "seed-lead-columbia",
			Title:     "Hot lead: Columbia Facilities Group",
			Message:   "AI score moved to 87 after a second pricing-page visit and a demo request.",
			Type:      types.TypeInfo,
			Category:  types.CategoryLead,
			Priority:  types.PriorityHigh,
			CreatedAt: now.Add(-2 * 24 * time.Hour),
			ActionURL: "/leads/columbia-facilities",
			Metadata:  map[string]any{"leadId": "columbia-facilities", "score": 87.0},
		},
		{
			ID:        "seed-training-cert",
			Title:     "Certification expiring",
			Message:   "Your VRF installation certification expires in 14 days. Two renewal sessions have open seats.",
			Type:      types.TypeWarning,
			Category:  types.CategoryTraining,
			Priority:  types.PriorityMedium,
			CreatedAt: now.Add(-3 * 24 * time.Hour),
			ActionURL: "/training/renewals",
		},
		{
			ID:        "seed-integration-qb",
			Title:     "QuickBooks sync failing",
			Message:   "Invoice export has failed 3 times since 02:00. Credentials may have expired.",
			Type:      types.TypeError,
			Category:  types.CategoryIntegration,
			Priority:  types.PriorityUrgent,
			CreatedAt: now.Add(-5 * time.Hour),
			ActionURL: "/settings/integrations",
			Metadata:  map[string]any{"integration": "quickbooks", "failureCount": 3.0},
		},
		{
			ID:        "seed-customer-renewal",
			Title:     "Service agreement renewal due",
			Message:   "Beacon Property Trust's maintenance agreement lapses at the end of the month.",
			Type:      types.TypeInfo,
			Category:  types.CategoryCustomer,
			Priority:  types.PriorityLow,
			CreatedAt: now.Add(-5 * 24 * time.Hour),
		},
	}

	seeded := 0
	for _, n := range demo {
		if _, err := store.Add(ctx, n); err != nil {
			return fmt.Errorf("seeding %s: %w", n.ID, err)
		}
		seeded++
	}

	log.Printf("seed: added %d demo notifications", seeded)
	return nil
}
