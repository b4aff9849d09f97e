// Package preference decides, per user and category, whether and how a
// notification is delivered: channel selection, quiet-hour suppression,
// and frequency batching.
package preference

import (
	"strconv"
	"strings"
	"time"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// ShouldDeliver applies a user's preferences to a candidate notification.
//
// Decision order: a disabled category (or a notification below the
// category's priority threshold) suppresses delivery outright; urgent
// notifications always deliver immediately; otherwise quiet hours and
// frequency batching may defer delivery, and when both apply the later
// instant wins. Pure function — the caller supplies the clock.
func ShouldDeliver(pref types.NotificationPreferences, n types.Notification, now time.Time) types.DeliveryDecision {
	cat := categorySettings(pref, n.Category)
	if !cat.Enabled {
		return types.DeliveryDecision{}
	}
	if cat.Priority != "" && !n.Priority.AtLeast(cat.Priority) {
		return types.DeliveryDecision{}
	}

	decision := types.DeliveryDecision{
		Email: cat.Email && pref.EmailEnabled,
		Push:  cat.Push && pref.PushEnabled,
	}
	if !decision.Email && !decision.Push {
		return types.DeliveryDecision{}
	}

	// Urgent bypasses quiet hours and batching.
	if n.Priority == types.PriorityUrgent {
		return decision
	}

	var deferUntil time.Time
	if until, ok := quietHoursEnd(pref.QuietHours, now); ok {
		deferUntil = until
	}
	if boundary, ok := nextBatchBoundary(pref.Frequency, now); ok && boundary.After(deferUntil) {
		deferUntil = boundary
	}
	if !deferUntil.IsZero() {
		decision.Defer = &deferUntil
	}
	return decision
}

// categorySettings returns the user's settings for a category. A category
// missing from the map defaults to enabled with both channels on.
func categorySettings(pref types.NotificationPreferences, c types.Category) types.CategoryPreference {
	if cat, ok := pref.Categories[c]; ok {
		return cat
	}
	return types.CategoryPreference{Enabled: true, Email: true, Push: true}
}

// quietHoursEnd reports whether now falls inside the quiet window and, if
// so, the instant the window ends. The window may wrap across midnight.
// Malformed HH:MM values disable the window rather than blocking delivery.
func quietHoursEnd(q types.QuietHours, now time.Time) (time.Time, bool) {
	if !q.Enabled {
		return time.Time{}, false
	}
	start, ok := parseClock(q.Start)
	if !ok {
		return time.Time{}, false
	}
	end, ok := parseClock(q.End)
	if !ok || start == end {
		return time.Time{}, false
	}

	nowMin := now.Hour()*60 + now.Minute()
	endToday := time.Date(now.Year(), now.Month(), now.Day(), end/60, end%60, 0, 0, now.Location())

	if start < end {
		// Same-day window, e.g. 12:00–14:00.
		if nowMin >= start && nowMin < end {
			return endToday, true
		}
		return time.Time{}, false
	}

	// Wrapped window, e.g. 22:00–06:00.
	switch {
	case nowMin >= start:
		// Before midnight — the window ends tomorrow.
		return endToday.AddDate(0, 0, 1), true
	case nowMin < end:
		// After midnight — the window ends today.
		return endToday, true
	}
	return time.Time{}, false
}

// nextBatchBoundary returns the next delivery slot for batched frequencies:
// the top of the next hour for hourly, the next local midnight for daily.
func nextBatchBoundary(f types.Frequency, now time.Time) (time.Time, bool) {
	switch f {
	case types.FrequencyHourly:
		return now.Truncate(time.Hour).Add(time.Hour), true
	case types.FrequencyDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1), true
	}
	return time.Time{}, false
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
