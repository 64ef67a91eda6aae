// Package validation checks task data before it is seeded or scheduled
// against.
package validation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingTaskID     ConflictType = "missing_task_id"
	ConflictDuplicateTaskID   ConflictType = "duplicate_task_id"
	ConflictInvertedRange     ConflictType = "inverted_range"
	ConflictHalfScheduled     ConflictType = "half_scheduled"
	ConflictNegativeEstimate  ConflictType = "negative_estimate"
	ConflictDuplicateTaskName ConflictType = "duplicate_task_name"
	ConflictOverlappingBlocks ConflictType = "overlapping_blocks"
)

// Conflict represents a detected problem in a task list
type Conflict struct {
	Type        ConflictType
	Description string
	TaskIDs     []string
}

// Blocking reports whether the conflict makes the data unusable. The rest
// are warnings: the scheduler tolerates them.
func (c Conflict) Blocking() bool {
	switch c.Type {
	case ConflictMissingTaskID, ConflictDuplicateTaskID, ConflictInvertedRange, ConflictHalfScheduled:
		return true
	}
	return false
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// Blocking returns the conflicts that must be fixed before use.
func (vr *ValidationResult) Blocking() []Conflict {
	var out []Conflict
	for _, c := range vr.Conflicts {
		if c.Blocking() {
			out = append(out, c)
		}
	}
	return out
}

// Err summarises the blocking conflicts, or returns nil.
func (vr *ValidationResult) Err() error {
	b := vr.Blocking()
	if len(b) == 0 {
		return nil
	}
	return fmt.Errorf("%d blocking conflict(s), first: %s", len(b), b[0].Description)
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		level := "warning"
		if c.Blocking() {
			level = "error"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", level, c.Description)
	}
	return b.String()
}

// Validator validates task lists for structural and scheduling conflicts
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ValidateTasks checks one workspace's tasks. Conflicts are returned in a
// stable order: per-task problems in input order, then name duplicates, then
// overlaps by start instant.
func (v *Validator) ValidateTasks(tasks []models.Task) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	seenIDs := make(map[string]bool)
	for i, t := range tasks {
		label := t.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		if t.ID == "" {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictMissingTaskID,
				Description: fmt.Sprintf("Task %q has no id", label),
			})
		} else if seenIDs[t.ID] {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictDuplicateTaskID,
				Description: fmt.Sprintf("Task id %s is used more than once", t.ID),
				TaskIDs:     []string{t.ID},
			})
		}
		seenIDs[t.ID] = true

		if (t.Start == nil) != (t.End == nil) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictHalfScheduled,
				Description: fmt.Sprintf("Task %q has only one of start and end set", label),
				TaskIDs:     []string{t.ID},
			})
		}
		if t.Start != nil && t.End != nil && !t.End.After(*t.Start) {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type: ConflictInvertedRange,
				Description: fmt.Sprintf("Task %q ends at %s, not after its start %s",
					label, t.End.Format(constants.TimeFormat), t.Start.Format(constants.TimeFormat)),
				TaskIDs: []string{t.ID},
			})
		}
		if t.EstimateMin < 0 {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictNegativeEstimate,
				Description: fmt.Sprintf("Task %q has a negative estimate (%d min)", label, t.EstimateMin),
				TaskIDs:     []string{t.ID},
			})
		}
	}

	result.Conflicts = append(result.Conflicts, duplicateNames(tasks)...)
	result.Conflicts = append(result.Conflicts, overlaps(tasks)...)
	return result
}

func duplicateNames(tasks []models.Task) []Conflict {
	byName := make(map[string][]string)
	var order []string
	for _, t := range tasks {
		if t.Name == "" || t.Status == models.StatusDone {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(t.Name))
		if _, ok := byName[key]; !ok {
			order = append(order, key)
		}
		byName[key] = append(byName[key], t.ID)
	}

	var out []Conflict
	for _, key := range order {
		if ids := byName[key]; len(ids) > 1 {
			out = append(out, Conflict{
				Type:        ConflictDuplicateTaskName,
				Description: fmt.Sprintf("Duplicate open task name: %q (IDs: %v)", key, ids),
				TaskIDs:     ids,
			})
		}
	}
	return out
}

// overlaps reports pairs of open scheduled tasks whose blocks intersect.
func overlaps(tasks []models.Task) []Conflict {
	var blocks []models.Task
	for _, t := range tasks {
		if t.Status == models.StatusDone || !t.IsScheduled() || !t.End.After(*t.Start) {
			continue
		}
		blocks = append(blocks, t)
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Start.Before(*blocks[j].Start)
	})

	var out []Conflict
	for i := range blocks {
		for j := i + 1; j < len(blocks); j++ {
			a, b := blocks[i], blocks[j]
			if !b.Start.Before(*a.End) {
				break
			}
			out = append(out, Conflict{
				Type:        ConflictOverlappingBlocks,
				Description: fmt.Sprintf("Blocks for %q and %q overlap", a.Name, b.Name),
				TaskIDs:     []string{a.ID, b.ID},
			})
		}
	}
	return out
}
