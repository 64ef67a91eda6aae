package utils

import (
	"math"
	"time"

	"github.com/flowstate/flowstate/internal/models"
)

// ClipOverlap returns how much of [aStart, aEnd) falls inside [wStart, wEnd).
// Disjoint or inverted intervals yield 0.
func ClipOverlap(aStart, aEnd, wStart, wEnd time.Time) time.Duration {
	lo := aStart
	if wStart.After(lo) {
		lo = wStart
	}
	hi := aEnd
	if wEnd.Before(hi) {
		hi = wEnd
	}
	if d := hi.Sub(lo); d > 0 {
		return d
	}
	return 0
}

// Overlaps reports whether the two half-open intervals share any time.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return ClipOverlap(aStart, aEnd, bStart, bEnd) > 0
}

// SumScheduledHours totals the in-window duration of tasks that have both
// start and end set. Hours are rounded to one decimal.
func SumScheduledHours(tasks []models.Task, w models.WeekWindow) models.HoursSummary {
	var total time.Duration
	count := 0
	for _, t := range tasks {
		if !t.IsScheduled() {
			continue
		}
		d := ClipOverlap(*t.Start, *t.End, w.Start, w.End)
		if d <= 0 {
			continue
		}
		total += d
		count++
	}
	return models.HoursSummary{
		Hours: math.Round(total.Hours()*10) / 10,
		Count: count,
	}
}
