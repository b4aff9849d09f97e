package escalation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamicaqs/crm-engine/internal/notification"
	"github.com/dynamicaqs/crm-engine/internal/types"
)

func twoStepRule() types.EscalationRule {
	return types.EscalationRule{
		ID:      "quote-followup",
		Name:    "Quote follow-up",
		Enabled: true,
		Conditions: types.RuleConditions{
			Categories: []types.Category{types.CategoryCommercialQuote},
		},
		EscalationSteps: []types.EscalationStep{
			{
				DelayMinutes:        30,
				Recipients:          []string{"sales-manager"},
				NotificationMethods: []string{"email"},
				Conditions:          &types.StepConditions{StillUnread: true},
			},
			{
				DelayMinutes:        120,
				Recipients:          []string{"regional-director"},
				NotificationMethods: []string{"email", "sms"},
				Conditions:          &types.StepConditions{StillUnread: true},
			},
		},
	}
}

func trackedNotification(t *testing.T, store notification.Store, sched *Scheduler, createdAt time.Time) types.Notification {
	t.Helper()
	n := types.Notification{
		ID:        "n-quote",
		Title:     "Quote awaiting review",
		Category:  types.CategoryCommercialQuote,
		Priority:  types.PriorityHigh,
		CreatedAt: createdAt,
	}
	added, err := store.Add(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, 1, sched.Track(added))
	return added
}

func TestScheduler_FiresStepsAtAbsoluteDelays(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{twoStepRule()})

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := trackedNotification(t, store, sched, t0)

	// Before the first delay nothing fires.
	fired, err := sched.Tick(ctx, t0.Add(29*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fired)

	// At t0+31m step 0 fires exactly once.
	fired, err = sched.Tick(ctx, t0.Add(31*time.Minute))
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, 0, fired[0].StepIndex)
	assert.Equal(t, "quote-followup", fired[0].RuleID)
	assert.Equal(t, []string{"sales-manager"}, fired[0].Step.Recipients)

	// Same instant again: no re-fire.
	fired, err = sched.Tick(ctx, t0.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fired)

	// At t0+121m, still unread, step 1 fires and the pairing exhausts.
	fired, err = sched.Tick(ctx, t0.Add(121*time.Minute))
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, 1, fired[0].StepIndex)

	pairings := sched.Pairings()
	require.Len(t, pairings, 1)
	assert.Equal(t, StateExhausted, pairings[0].State)

	// Exhausted pairings are never evaluated again.
	fired, err = sched.Tick(ctx, t0.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, fired)

	// The notification carries the escalation tag.
	got, err := store.Get(ctx, n.ID)
	require.NoError(t, err)
	escalated, ok := got.Metadata["escalated"].(bool)
	assert.True(t, ok && escalated)
}

func TestScheduler_ReadResolvesWithoutFiring(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{twoStepRule()})

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := trackedNotification(t, store, sched, t0)

	fired, err := sched.Tick(ctx, t0.Add(31*time.Minute))
	require.NoError(t, err)
	require.Len(t, fired, 1)

	require.NoError(t, store.MarkRead(ctx, n.ID))

	fired, err = sched.Tick(ctx, t0.Add(121*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fired, "step 1 must not fire after the notification is read")

	pairings := sched.Pairings()
	require.Len(t, pairings, 1)
	assert.Equal(t, StateResolved, pairings[0].State)
}

func TestScheduler_ArchiveResolves(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{twoStepRule()})

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := trackedNotification(t, store, sched, t0)
	require.NoError(t, store.Archive(ctx, n.ID))

	fired, err := sched.Tick(ctx, t0.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Equal(t, StateResolved, sched.Pairings()[0].State)
}

func TestScheduler_FireAlwaysIgnoresRead(t *testing.T) {
	ctx := context.Background()
	rule := types.EscalationRule{
		ID:      "integration-down",
		Name:    "Integration down",
		Enabled: true,
		Conditions: types.RuleConditions{
			Categories: []types.Category{types.CategoryIntegration},
		},
		EscalationSteps: []types.EscalationStep{{
			DelayMinutes:        60,
			Recipients:          []string{"portal-admin"},
			NotificationMethods: []string{"email"},
			Conditions:          &types.StepConditions{FireAlways: true},
		}},
	}
	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{rule})

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n, err := store.Add(ctx, types.Notification{
		ID:        "n-int",
		Title:     "Sync failing",
		Category:  types.CategoryIntegration,
		Priority:  types.PriorityUrgent,
		CreatedAt: t0,
	})
	require.NoError(t, err)
	require.Equal(t, 1, sched.Track(n))
	require.NoError(t, store.MarkRead(ctx, n.ID))

	fired, err := sched.Tick(ctx, t0.Add(61*time.Minute))
	require.NoError(t, err)
	require.Len(t, fired, 1, "fireAlways step must fire even after read")
	assert.Equal(t, StateExhausted, sched.Pairings()[0].State)
}

func TestScheduler_LateTickCatchesUp(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{twoStepRule()})

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trackedNotification(t, store, sched, t0)

	// A single late tick fires both overdue steps in order.
	fired, err := sched.Tick(ctx, t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, fired, 2)
	assert.Equal(t, 0, fired[0].StepIndex)
	assert.Equal(t, 1, fired[1].StepIndex)
	assert.Equal(t, StateExhausted, sched.Pairings()[0].State)
}

func TestScheduler_TrackOnlyMatchingRules(t *testing.T) {
	disabled := twoStepRule()
	disabled.ID = "disabled-rule"
	disabled.Enabled = false

	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{twoStepRule(), disabled})

	n, err := store.Add(context.Background(), types.Notification{
		ID:       "n-order",
		Title:    "Order shipped",
		Category: types.CategoryOrder,
		Priority: types.PriorityMedium,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, sched.Track(n), "order category matches no rule")

	q, err := store.Add(context.Background(), types.Notification{
		ID:       "n-q",
		Title:    "Quote",
		Category: types.CategoryCommercialQuote,
		Priority: types.PriorityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sched.Track(q), "disabled rule must not create a pairing")
}

func TestScheduler_RemovedNotificationDropsPairing(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{twoStepRule()})

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := trackedNotification(t, store, sched, t0)
	require.NoError(t, store.Remove(ctx, n.ID))

	fired, err := sched.Tick(ctx, t0.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Empty(t, sched.Pairings())
}

func TestScheduler_SetRulesDropsOrphanedPairings(t *testing.T) {
	ctx := context.Background()
	store := notification.NewMemoryStore()
	sched := NewScheduler(store, []types.EscalationRule{twoStepRule()})

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trackedNotification(t, store, sched, t0)

	sched.SetRules(nil)

	fired, err := sched.Tick(ctx, t0.Add(31*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, fired)
	assert.Empty(t, sched.Pairings())
}
