package history

import (
	"context"
	"testing"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/escalation"
)

func firedAt(notificationID, ruleID string, t time.Time) escalation.FiredStep {
	return escalation.FiredStep{
		NotificationID: notificationID,
		RuleID:         ruleID,
		FiredAt:        t,
	}
}

func TestStore_QueryFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.Append(ctx,
		firedAt("n1", "rule-a", base),
		firedAt("n1", "rule-b", base.Add(time.Hour)),
		firedAt("n2", "rule-a", base.Add(2*time.Hour)),
	)

	all := store.Query(ctx, QueryOptions{})
	if len(all) != 3 {
		t.Fatalf("all = %d, want 3", len(all))
	}
	if all[0].NotificationID != "n2" || all[2].RuleID != "rule-a" {
		t.Errorf("wrong order: %+v", all)
	}

	byNotification := store.Query(ctx, QueryOptions{NotificationID: "n1"})
	if len(byNotification) != 2 {
		t.Errorf("byNotification = %d, want 2", len(byNotification))
	}

	byRule := store.Query(ctx, QueryOptions{RuleID: "rule-a"})
	if len(byRule) != 2 {
		t.Errorf("byRule = %d, want 2", len(byRule))
	}

	since := base.Add(90 * time.Minute)
	recent := store.Query(ctx, QueryOptions{Since: &since})
	if len(recent) != 1 || recent[0].NotificationID != "n2" {
		t.Errorf("recent = %+v", recent)
	}

	limited := store.Query(ctx, QueryOptions{Limit: 1})
	if len(limited) != 1 || limited[0].NotificationID != "n2" {
		t.Errorf("limited = %+v", limited)
	}
}

func TestStore_EmptyQuery(t *testing.T) {
	store := NewStore()
	if got := store.Query(context.Background(), QueryOptions{}); len(got) != 0 {
		t.Errorf("empty store returned %+v", got)
	}
}
