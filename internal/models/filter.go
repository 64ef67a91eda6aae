package models

import (
	"sort"
	"strings"
	"time"
)

// TaskFilter narrows a task list in memory. Zero values match everything.
type TaskFilter struct {
	Status  TaskStatus
	Context string
	Project string
	Query   string
}

// FilterTasks returns the tasks matching f, preserving input order.
func FilterTasks(tasks []Task, f TaskFilter) []Task {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Context != "" && !strings.EqualFold(t.Context, f.Context) {
			continue
		}
		if f.Project != "" && !strings.EqualFold(t.Project, f.Project) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Name), q) &&
			!strings.Contains(strings.ToLower(t.Context), q) &&
			!strings.Contains(strings.ToLower(t.Project), q) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Contexts returns the distinct non-empty context tags, sorted.
func Contexts(tasks []Task) []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range tasks {
		if t.Context == "" || seen[t.Context] {
			continue
		}
		seen[t.Context] = true
		out = append(out, t.Context)
	}
	sort.Strings(out)
	return out
}

// SortForScheduling orders tasks once for a batch run: overdue first, then
// priority tier, then earliest due, then oldest created, then id.
func SortForScheduling(tasks []Task, now time.Time) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if ao, bo := a.IsOverdue(now), b.IsOverdue(now); ao != bo {
			return ao
		}
		if ar, br := a.Priority().Rank(), b.Priority().Rank(); ar != br {
			return ar < br
		}
		switch {
		case a.Due != nil && b.Due != nil && !a.Due.Equal(*b.Due):
			return a.Due.Before(*b.Due)
		case a.Due != nil && b.Due == nil:
			return true
		case a.Due == nil && b.Due != nil:
			return false
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
