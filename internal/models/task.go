package models

import (
	"slices"
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusNotStarted TaskStatus = "not_started"
	StatusInProgress TaskStatus = "in_progress"
	StatusDone       TaskStatus = "done"
)

type PriorityTier string

const (
	PriorityHigh   PriorityTier = "HIGH"
	PriorityMedium PriorityTier = "MEDIUM"
	PriorityLow    PriorityTier = "LOW"
)

// Rank orders tiers for sorting, HIGH first.
func (p PriorityTier) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type Task struct {
	ID             string     `json:"id"`
	WorkspaceID    string     `json:"workspace_id"`
	Name           string     `json:"name"`
	Status         TaskStatus `json:"status"`
	PriorityMatrix string     `json:"priority_matrix,omitempty"` // free text, e.g. "Urgent & Important"
	EstimateMin    int        `json:"estimate_min"`
	Start          *time.Time `json:"start,omitempty"`
	End            *time.Time `json:"end,omitempty"`
	Due            *time.Time `json:"due,omitempty"`
	Context        string     `json:"context,omitempty"` // e.g. "Deep Work", "Admin"
	Project        string     `json:"project,omitempty"`
	Area           string     `json:"area,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Priority derives the task's tier from its priority matrix text.
func (t Task) Priority() PriorityTier {
	return ParsePriorityTier(t.PriorityMatrix)
}

// IsScheduled reports whether both start and end are set.
func (t Task) IsScheduled() bool {
	return t.Start != nil && t.End != nil
}

// IsOverdue reports whether the task is unfinished and past its due instant.
func (t Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusDone && t.Due != nil && t.Due.Before(now)
}

// statusAliases are the normalised spellings each status is stored under
// across the app. Anything else reads as not started.
var statusAliases = map[TaskStatus][]string{
	StatusNotStarted: {"not_started", "notstarted", "todo", "to_do"},
	StatusInProgress: {"in_progress", "inprogress", "doing", "started", "active"},
	StatusDone:       {"done", "completed", "complete", "finished"},
}

// AllStatuses in workflow order.
var AllStatuses = []TaskStatus{StatusNotStarted, StatusInProgress, StatusDone}

// StatusAliases returns the normalised spellings that parse as s.
func StatusAliases(s TaskStatus) []string {
	return statusAliases[s]
}

// NormalizeStatusText lowercases s and folds spaces and hyphens to
// underscores, the form StatusAliases are written in.
func NormalizeStatusText(s string) string {
	n := strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(n)
}

// ParseStatus normalises the status spellings used across the app.
// Unknown values map to not started.
func ParseStatus(s string) TaskStatus {
	n := NormalizeStatusText(s)
	for _, st := range []TaskStatus{StatusInProgress, StatusDone} {
		if slices.Contains(statusAliases[st], n) {
			return st
		}
	}
	return StatusNotStarted
}

type tierRule struct {
	match func(string) bool
	tier  PriorityTier
}

func contains(sub string) func(string) bool {
	return func(s string) bool { return strings.Contains(s, sub) }
}

// Rules are evaluated in order; the first match wins. Explicit tier words
// beat Eisenhower quadrant wording, and the "not ..." forms are checked
// before the bare words they contain.
var tierRules = []tierRule{
	{contains("high"), PriorityHigh},
	{contains("medium"), PriorityMedium},
	{contains("low"), PriorityLow},
	{func(s string) bool {
		return strings.Contains(s, "not urgent") && strings.Contains(s, "not important")
	}, PriorityLow},
	{contains("not important"), PriorityMedium},
	{contains("not urgent"), PriorityMedium},
	{func(s string) bool {
		return strings.Contains(s, "urgent") && strings.Contains(s, "important")
	}, PriorityHigh},
	{contains("q1"), PriorityHigh},
	{contains("q2"), PriorityMedium},
	{contains("q3"), PriorityMedium},
	{contains("urgent"), PriorityMedium},
	{contains("important"), PriorityMedium},
}

// ParsePriorityTier maps free-text priority matrix values onto a tier.
// Empty or unrecognised text is LOW.
func ParsePriorityTier(matrix string) PriorityTier {
	s := strings.ToLower(strings.TrimSpace(matrix))
	if s == "" {
		return PriorityLow
	}
	for _, r := range tierRules {
		if r.match(s) {
			return r.tier
		}
	}
	return PriorityLow
}
