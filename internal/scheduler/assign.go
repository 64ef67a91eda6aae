package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/models"
)

// ErrPersistFailed wraps write-back failures reported by AssignBatch.
var ErrPersistFailed = errors.New("failed to persist assignment")

// PersistFunc writes an accepted assignment back to the task store.
type PersistFunc func(ctx context.Context, a models.Assignment) error

// Batch is one assignment run.
type Batch struct {
	// Tasks are processed in the given order. Callers sort once, before the
	// call; splitting one task set across several calls by priority bucket
	// gives different results than a single merged, sorted batch.
	Tasks          []models.Task
	Strategy       constants.Strategy
	MaxSlotsPerDay int
	Week           models.WeekWindow
	// Busy holds existing commitments in the week.
	Busy []Interval
}

// AssignBatch gives each task the first proposed slot not already claimed
// earlier in the run. It is greedy: O(tasks x candidates), with no global
// packing search.
//
// A task is only listed in Scheduled once persist succeeds. When persist
// fails the slot is released, the task is listed in Failed, and the failure
// is included in the returned error. A nil persist is a dry run.
func (s *Scheduler) AssignBatch(ctx context.Context, b Batch, persist PersistFunc) (models.BatchResult, error) {
	result := models.BatchResult{
		Scheduled: []models.Assignment{},
		Skipped:   []models.SkippedTask{},
	}
	claimed := make(map[string]bool)
	var errs []error

	for _, task := range b.Tasks {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var chosen *models.ProposedSlot
		for _, c := range s.proposeSlots(task, b.Strategy, b.MaxSlotsPerDay, b.Week, b.Busy) {
			if !claimed[c.Key()] {
				chosen = &c
				break
			}
		}
		if chosen == nil {
			result.Skipped = append(result.Skipped, models.SkippedTask{TaskID: task.ID, Reason: constants.ReasonNoSlots})
			continue
		}

		key := chosen.Key()
		claimed[key] = true
		a := models.Assignment{TaskID: task.ID, Start: chosen.Start, End: chosen.End}

		if persist != nil {
			if err := persist(ctx, a); err != nil {
				delete(claimed, key)
				result.Failed = append(result.Failed, models.FailedAssignment{
					TaskID: task.ID,
					Start:  a.Start,
					End:    a.End,
					Error:  err.Error(),
				})
				errs = append(errs, fmt.Errorf("%w: task %s: %w", ErrPersistFailed, task.ID, err))
				continue
			}
		}

		result.Scheduled = append(result.Scheduled, a)
	}

	return result, errors.Join(errs...)
}
