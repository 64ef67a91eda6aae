package models

import (
	"fmt"
	"time"
)

// WeekWindow is a Monday 00:00 to Sunday 23:59:59.999 local week, held in UTC.
type WeekWindow struct {
	Start    time.Time `json:"week_start_utc"`
	End      time.Time `json:"week_end_utc"`
	ZonedNow time.Time `json:"zoned_now"`
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (w WeekWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the seven local dates (YYYY-MM-DD) of the window.
func (w WeekWindow) Days(loc *time.Location) []string {
	start := w.Start.In(loc)
	days := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		days = append(days, start.AddDate(0, 0, i).Format("2006-01-02"))
	}
	return days
}

type HoursSummary struct {
	Hours float64 `json:"hours"`
	Count int     `json:"count"`
}

type ProposedSlot struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Rank      int       `json:"priority_rank"`
	Rationale string    `json:"rationale"`
}

// Key identifies the slot for conflict checks within one batch.
func (s ProposedSlot) Key() string {
	return fmt.Sprintf("%s|%s", s.Start.UTC().Format(time.RFC3339), s.End.UTC().Format(time.RFC3339))
}

type Assignment struct {
	TaskID string    `json:"taskId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

type SkippedTask struct {
	TaskID string `json:"taskId"`
	Reason string `json:"reason"`
}

// FailedAssignment is a slot that was chosen but could not be written back.
type FailedAssignment struct {
	TaskID string    `json:"taskId"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Error  string    `json:"error"`
}

type BatchResult struct {
	Scheduled []Assignment       `json:"scheduled"`
	Skipped   []SkippedTask      `json:"skipped"`
	Failed    []FailedAssignment `json:"failed,omitempty"`
}
