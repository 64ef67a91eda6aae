package demo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/retry"
	"github.com/flowstate/flowstate/internal/scheduler"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/utils"
)

type ScheduleRequest struct {
	Strategy       constants.Strategy
	MaxSlotsPerDay int
	DryRun         bool
}

type ScheduleRun struct {
	Source         constants.Source   `json:"source"`
	DryRun         bool               `json:"dryRun"`
	Strategy       constants.Strategy `json:"strategy"`
	MaxSlotsPerDay int                `json:"maxBlocksPerDay"`
	Week           models.WeekWindow  `json:"week"`
	Result         models.BatchResult `json:"result"`
}

// Candidates returns the open, unscheduled tasks in batch order.
func Candidates(tasks []models.Task, week models.WeekWindow) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == models.StatusDone || t.IsScheduled() {
			continue
		}
		out = append(out, t)
	}
	models.SortForScheduling(out, week.ZonedNow)
	return out
}

// BusyInWeek returns the scheduled intervals that touch week.
func BusyInWeek(tasks []models.Task, week models.WeekWindow) []scheduler.Interval {
	var inWeek []models.Task
	for _, t := range tasks {
		if t.IsScheduled() && utils.ClipOverlap(*t.Start, *t.End, week.Start, week.End) > 0 {
			inWeek = append(inWeek, t)
		}
	}
	return scheduler.BusyFromTasks(inWeek)
}

// openStatuses are the statuses the scheduler places.
var openStatuses = []models.TaskStatus{models.StatusNotStarted, models.StatusInProgress}

type batchInput struct {
	source     constants.Source
	candidates []models.Task
	busy       []scheduler.Interval
}

// batchInput reads what one scheduling run needs. Without a store, or with
// a store that holds no tasks, it uses the mock dataset. Any other store
// failure is returned rather than hidden behind the mock.
func (l *Loader) batchInput(ctx context.Context, week models.WeekWindow) (batchInput, error) {
	ws, err := retry.Value(ctx, l.workspace, l.Retry...)
	if errors.Is(err, ErrNoStore) {
		return l.mockInput(week), nil
	}
	if err != nil {
		return batchInput{source: constants.SourceEmpty}, fmt.Errorf("workspace %q: %w", l.slug(), err)
	}

	total, err := retry.Value(ctx, func(ctx context.Context) (int, error) {
		return l.Store.CountTasks(ctx, ws.ID, storage.TaskQuery{})
	}, l.Retry...)
	if err != nil {
		return batchInput{source: constants.SourceEmpty}, fmt.Errorf("count tasks: %w", err)
	}
	if total == 0 {
		logger.Info("Store has no tasks, scheduling the mock dataset", "workspace", ws.Slug)
		return l.mockInput(week), nil
	}

	var (
		wg                 sync.WaitGroup
		open, booked       []models.Task
		openErr, bookedErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		open, openErr = retry.Value(ctx, func(ctx context.Context) ([]models.Task, error) {
			return l.Store.ListTasks(ctx, ws.ID, storage.TaskQuery{Statuses: openStatuses, Unscheduled: true})
		}, l.Retry...)
	}()
	go func() {
		defer wg.Done()
		booked, bookedErr = retry.Value(ctx, func(ctx context.Context) ([]models.Task, error) {
			return l.Store.ListTasks(ctx, ws.ID, storage.TaskQuery{ScheduledWithin: &week})
		}, l.Retry...)
	}()
	wg.Wait()
	if err := errors.Join(openErr, bookedErr); err != nil {
		return batchInput{source: constants.SourceEmpty}, fmt.Errorf("list tasks: %w", err)
	}

	models.SortForScheduling(open, week.ZonedNow)
	return batchInput{
		source:     constants.SourceStore,
		candidates: open,
		busy:       scheduler.BusyFromTasks(booked),
	}, nil
}

func (l *Loader) mockInput(week models.WeekWindow) batchInput {
	ds, err := l.mockFunc()(week, l.location())
	if err != nil {
		logger.Error("Mock data unavailable", "collection", "tasks", "error", err)
		return batchInput{source: constants.SourceEmpty}
	}
	return batchInput{
		source:     constants.SourceMock,
		candidates: Candidates(ds.Tasks, week),
		busy:       BusyInWeek(ds.Tasks, week),
	}
}

// Schedule assigns the current week's open tasks in one sorted batch.
// Mock and empty data are never written back: the run is forced to a dry
// run unless the tasks came from the store.
func (l *Loader) Schedule(ctx context.Context, s *scheduler.Scheduler, req ScheduleRequest) (ScheduleRun, error) {
	week := utils.ComputeWeekWindow(s.Now(), s.Location())
	run := ScheduleRun{
		DryRun:         req.DryRun,
		Strategy:       req.Strategy,
		MaxSlotsPerDay: scheduler.ClampSlotsPerDay(req.MaxSlotsPerDay),
		Week:           week,
		Result: models.BatchResult{
			Scheduled: []models.Assignment{},
			Skipped:   []models.SkippedTask{},
			Failed:    []models.FailedAssignment{},
		},
	}

	in, err := l.batchInput(ctx, week)
	run.Source = in.source
	if err != nil {
		return run, fmt.Errorf("load tasks for scheduling: %w", err)
	}
	if in.source != constants.SourceStore {
		run.DryRun = true
	}

	var persist scheduler.PersistFunc
	if !run.DryRun {
		persist = func(ctx context.Context, a models.Assignment) error {
			return retry.Do(ctx, func(ctx context.Context) error {
				return l.Store.UpdateTaskSchedule(ctx, a.TaskID, a.Start, a.End)
			}, l.Retry...)
		}
	}

	result, err := s.AssignBatch(ctx, scheduler.Batch{
		Tasks:          in.candidates,
		Strategy:       run.Strategy,
		MaxSlotsPerDay: run.MaxSlotsPerDay,
		Week:           week,
		Busy:           in.busy,
	}, persist)
	run.Result = result

	logger.Info("Scheduling run finished",
		"source", run.Source,
		"dry_run", run.DryRun,
		"strategy", run.Strategy,
		"scheduled", len(result.Scheduled),
		"skipped", len(result.Skipped),
		"failed", len(result.Failed))
	if err != nil {
		return run, fmt.Errorf("schedule %s week: %w", week.Start.In(s.Location()).Format(constants.DateFormat), err)
	}
	return run, nil
}
