package models

import "time"

// Habit represents a recurring practice to track
type Habit struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspace_id"`
	Name        string       `json:"name"`
	TargetDays  int          `json:"target_days"` // check-ins per week
	CreatedAt   time.Time    `json:"created_at"`
	Checks      []HabitCheck `json:"checks,omitempty"`
}

// HabitCheck is a single day's check-in
type HabitCheck struct {
	HabitID string `json:"habit_id"`
	Day     string `json:"day"` // YYYY-MM-DD format
	Note    string `json:"note,omitempty"`
}

// CheckedOn reports whether the habit has a check-in on day (YYYY-MM-DD).
func (h Habit) CheckedOn(day string) bool {
	for _, c := range h.Checks {
		if c.Day == day {
			return true
		}
	}
	return false
}

// CompletionRate returns check-ins over target for the given days, capped at 1.
func (h Habit) CompletionRate(days []string) float64 {
	target := h.TargetDays
	if target <= 0 {
		target = len(days)
	}
	if target == 0 {
		return 0
	}
	done := 0
	for _, d := range days {
		if h.CheckedOn(d) {
			done++
		}
	}
	rate := float64(done) / float64(target)
	if rate > 1 {
		return 1
	}
	return rate
}
