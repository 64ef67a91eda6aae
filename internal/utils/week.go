package utils

import (
	"time"

	"github.com/flowstate/flowstate/internal/models"
)

// ComputeWeekWindow returns the Monday-to-Sunday week containing ref in loc.
// Boundaries are built from calendar dates rather than fixed 24h steps, so the
// window always spans seven local days even across a DST change.
func ComputeWeekWindow(ref time.Time, loc *time.Location) models.WeekWindow {
	local := ref.In(loc)
	sinceMonday := (int(local.Weekday()) + 6) % 7

	start := time.Date(local.Year(), local.Month(), local.Day()-sinceMonday, 0, 0, 0, 0, loc)
	nextMonday := time.Date(local.Year(), local.Month(), local.Day()-sinceMonday+7, 0, 0, 0, 0, loc)

	return models.WeekWindow{
		Start:    start.UTC(),
		End:      nextMonday.Add(-time.Millisecond).UTC(),
		ZonedNow: local,
	}
}

// ComputeWeekWindowOffset shifts ref by offsetDays before computing the window.
// Use multiples of 7 to move to the next or previous week.
func ComputeWeekWindowOffset(ref time.Time, loc *time.Location, offsetDays int) models.WeekWindow {
	w := ComputeWeekWindow(ref.In(loc).AddDate(0, 0, offsetDays), loc)
	w.ZonedNow = ref.In(loc)
	return w
}

// WeekWindowNow computes the window around the clock's current instant.
func WeekWindowNow(clock Clock, loc *time.Location, offsetDays int) models.WeekWindow {
	return ComputeWeekWindowOffset(clock.Now(), loc, offsetDays)
}
