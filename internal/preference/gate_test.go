package preference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

func testPrefs() types.NotificationPreferences {
	return Defaults("dealer-42")
}

func testNotification(priority types.Priority) types.Notification {
	return types.Notification{
		ID:       "n1",
		Title:    "Quote submitted",
		Category: types.CategoryCommercialQuote,
		Type:     types.TypeInfo,
		Priority: priority,
	}
}

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.UTC)
}

func TestShouldDeliver_DefaultsDeliverImmediately(t *testing.T) {
	d := ShouldDeliver(testPrefs(), testNotification(types.PriorityMedium), at(14, 0))
	if !d.Email || !d.Push {
		t.Errorf("decision = %+v, want both channels", d)
	}
	if d.Defer != nil {
		t.Errorf("unexpected defer: %v", *d.Defer)
	}
}

func TestShouldDeliver_DisabledCategory(t *testing.T) {
	pref := testPrefs()
	pref.Categories[types.CategoryCommercialQuote] = types.CategoryPreference{Enabled: false}

	d := ShouldDeliver(pref, testNotification(types.PriorityUrgent), at(14, 0))
	if d.Email || d.Push || d.Defer != nil {
		t.Errorf("decision = %+v, want all-false with no defer", d)
	}
}

func TestShouldDeliver_MissingCategoryDefaultsEnabled(t *testing.T) {
	pref := testPrefs()
	delete(pref.Categories, types.CategoryCommercialQuote)

	d := ShouldDeliver(pref, testNotification(types.PriorityMedium), at(14, 0))
	if !d.Email || !d.Push {
		t.Errorf("decision = %+v, want enabled defaults for missing category", d)
	}
}

func TestShouldDeliver_GlobaltogglesAnded(t *testing.T) {
	pref := testPrefs()
	pref.EmailEnabled = false

	d := ShouldDeliver(pref, testNotification(types.PriorityMedium), at(14, 0))
	if d.Email {
		t.Error("email delivered despite global toggle off")
	}
	if !d.Push {
		t.Error("push should be unaffected")
	}
}

func TestShouldDeliver_CategoryPriorityThreshold(t *testing.T) {
	pref := testPrefs()
	pref.Categories[types.CategoryCommercialQuote] = types.CategoryPreference{
		Enabled: true, Email: true, Push: true, Priority: types.PriorityHigh,
	}

	if d := ShouldDeliver(pref, testNotification(types.PriorityMedium), at(14, 0)); d.Email || d.Push {
		t.Errorf("medium below high threshold should be suppressed, got %+v", d)
	}
	if d := ShouldDeliver(pref, testNotification(types.PriorityHigh), at(14, 0)); !d.Email {
		t.Errorf("high meets threshold, got %+v", d)
	}
}

func TestShouldDeliver_QuietHoursDefer(t *testing.T) {
	pref := testPrefs()
	pref.QuietHours = types.QuietHours{Enabled: true, Start: "22:00", End: "06:00"}

	// Medium priority at 23:00 defers until 06:00 the next day.
	d := ShouldDeliver(pref, testNotification(types.PriorityMedium), at(23, 0))
	if d.Defer == nil {
		t.Fatal("expected defer during quiet hours")
	}
	want := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)
	if !d.Defer.Equal(want) {
		t.Errorf("defer = %v, want %v", *d.Defer, want)
	}

	// Urgent at the same instant is not deferred.
	d = ShouldDeliver(pref, testNotification(types.PriorityUrgent), at(23, 0))
	if d.Defer != nil {
		t.Errorf("urgent must bypass quiet hours, got defer %v", *d.Defer)
	}
}

func TestShouldDeliver_QuietHoursAfterMidnight(t *testing.T) {
	pref := testPrefs()
	pref.QuietHours = types.QuietHours{Enabled: true, Start: "22:00", End: "06:00"}

	// 03:30 is inside the wrapped window; defer ends the same day.
	d := ShouldDeliver(pref, testNotification(types.PriorityLow), at(3, 30))
	if d.Defer == nil {
		t.Fatal("expected defer during quiet hours")
	}
	want := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	if !d.Defer.Equal(want) {
		t.Errorf("defer = %v, want %v", *d.Defer, want)
	}

	// 12:00 is outside the window.
	d = ShouldDeliver(pref, testNotification(types.PriorityLow), at(12, 0))
	if d.Defer != nil {
		t.Errorf("unexpected defer outside quiet hours: %v", *d.Defer)
	}
}

func TestShouldDeliver_HourlyBatching(t *testing.T) {
	pref := testPrefs()
	pref.Frequency = types.FrequencyHourly

	d := ShouldDeliver(pref, testNotification(types.PriorityMedium), at(14, 25))
	if d.Defer == nil {
		t.Fatal("expected batching defer")
	}
	want := at(15, 0)
	if !d.Defer.Equal(want) {
		t.Errorf("defer = %v, want %v", *d.Defer, want)
	}

	// Urgent bypasses batching.
	if d := ShouldDeliver(pref, testNotification(types.PriorityUrgent), at(14, 25)); d.Defer != nil {
		t.Errorf("urgent must bypass batching, got %v", *d.Defer)
	}
}

func TestShouldDeliver_DailyBatching(t *testing.T) {
	pref := testPrefs()
	pref.Frequency = types.FrequencyDaily

	d := ShouldDeliver(pref, testNotification(types.PriorityLow), at(9, 0))
	if d.Defer == nil {
		t.Fatal("expected batching defer")
	}
	want := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	if !d.Defer.Equal(want) {
		t.Errorf("defer = %v, want %v", *d.Defer, want)
	}
}

func TestShouldDeliver_QuietHoursAndBatchingLaterWins(t *testing.T) {
	pref := testPrefs()
	pref.QuietHours = types.QuietHours{Enabled: true, Start: "22:00", End: "06:00"}
	pref.Frequency = types.FrequencyHourly

	// At 23:10 the hourly boundary (00:00) is earlier than quiet-hours end
	// (06:00 next day) — quiet hours win.
	d := ShouldDeliver(pref, testNotification(types.PriorityMedium), at(23, 10))
	if d.Defer == nil {
		t.Fatal("expected defer")
	}
	want := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)
	if !d.Defer.Equal(want) {
		t.Errorf("defer = %v, want %v", *d.Defer, want)
	}
}

func TestShouldDeliver_MalformedQuietHoursIgnored(t *testing.T) {
	pref := testPrefs()
	pref.QuietHours = types.QuietHours{Enabled: true, Start: "25:99", End: "oops"}

	d := ShouldDeliver(pref, testNotification(types.PriorityMedium), at(23, 0))
	if d.Defer != nil {
		t.Errorf("malformed quiet hours must not defer, got %v", *d.Defer)
	}
	if !d.Email || !d.Push {
		t.Errorf("malformed quiet hours must not block delivery, got %+v", d)
	}
}

func TestStore_GetDefaultsAndPut(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	got := store.Get(ctx, "nobody")
	if !got.EmailEnabled || got.Frequency != types.FrequencyImmediate {
		t.Errorf("defaults = %+v", got)
	}
	if len(got.Categories) != len(types.Categories()) {
		t.Errorf("default categories = %d, want %d", len(got.Categories), len(types.Categories()))
	}

	p := Defaults("dealer-42")
	p.Frequency = types.FrequencyDaily
	if err := store.Put(ctx, p); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got := store.Get(ctx, "dealer-42"); got.Frequency != types.FrequencyDaily {
		t.Errorf("frequency = %q, want daily", got.Frequency)
	}
}

func TestStore_PutValidates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	p := Defaults("dealer-42")
	p.Frequency = types.Frequency("sometimes")
	if err := store.Put(ctx, p); !errors.Is(err, ErrInvalidPreferences) {
		t.Errorf("err = %v, want ErrInvalidPreferences", err)
	}

	p = Defaults("dealer-42")
	p.Categories[types.Category("bogus")] = types.CategoryPreference{Enabled: true}
	if err := store.Put(ctx, p); !errors.Is(err, ErrInvalidPreferences) {
		t.Errorf("err = %v, want ErrInvalidPreferences", err)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	p := store.Get(ctx, "dealer-42")
	p.Categories[types.CategoryOrder] = types.CategoryPreference{Enabled: false}

	again := store.Get(ctx, "dealer-42")
	if !again.Categories[types.CategoryOrder].Enabled {
		t.Error("store state mutated through Get result")
	}
}
