package demo

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/retry"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/utils"
)

var errTransient = errors.New("read ECONNRESET")

// fakeStore serves a fixed dataset and can fail individual reads.
type fakeStore struct {
	mu sync.Mutex
	ds storage.Dataset

	workspaceErr error
	tasksErr     error
	habitsErr    error
	journalErr   error
	projectsErr  error
	updateErr    error

	// failFirst makes the first n task reads fail with errTransient.
	failFirst int
	taskCalls int
	updates   []models.Assignment
}

var _ storage.Provider = (*fakeStore)(nil)

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) Load(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }
func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Name() string               { return "fake" }

func (f *fakeStore) GetWorkspace(_ context.Context, slug string) (models.Workspace, error) {
	if f.workspaceErr != nil {
		return models.Workspace{}, f.workspaceErr
	}
	if f.ds.Workspace.Slug != slug {
		return models.Workspace{}, storage.ErrNotFound
	}
	return f.ds.Workspace, nil
}

func (f *fakeStore) ListTasks(_ context.Context, _ string, q storage.TaskQuery) ([]models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskCalls++
	if f.taskCalls <= f.failFirst {
		return nil, errTransient
	}
	if f.tasksErr != nil {
		return nil, f.tasksErr
	}
	var out []models.Task
	for _, t := range f.ds.Tasks {
		if matches(t, q) {
			out = append(out, t)
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// matches applies q the way the SQL stores do.
func matches(t models.Task, q storage.TaskQuery) bool {
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, models.ParseStatus(string(t.Status))) {
		return false
	}
	if q.Unscheduled && t.IsScheduled() {
		return false
	}
	if w := q.ScheduledWithin; w != nil {
		if !t.IsScheduled() || t.Start.After(w.End) || !t.End.After(w.Start) {
			return false
		}
	}
	if w := q.CompletedWithin; w != nil {
		if t.CompletedAt == nil || t.CompletedAt.Before(w.Start) || t.CompletedAt.After(w.End) {
			return false
		}
	}
	return true
}

func (f *fakeStore) CountTasks(ctx context.Context, ws string, q storage.TaskQuery) (int, error) {
	ts, err := f.ListTasks(ctx, ws, q)
	return len(ts), err
}

func (f *fakeStore) UpdateTaskSchedule(_ context.Context, taskID string, start, end time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, models.Assignment{TaskID: taskID, Start: start, End: end})
	return nil
}

func (f *fakeStore) ListHabits(context.Context, string, string, string) ([]models.Habit, error) {
	return f.ds.Habits, f.habitsErr
}

func (f *fakeStore) ListJournal(context.Context, string, string, string) ([]models.JournalEntry, error) {
	return f.ds.Journal, f.journalErr
}

func (f *fakeStore) ListProjects(context.Context, string) ([]models.Project, error) {
	return f.ds.Projects, f.projectsErr
}

func (f *fakeStore) Seed(_ context.Context, ds storage.Dataset) error {
	f.ds = ds
	return nil
}

func ist(t *testing.T) *time.Location {
	t.Helper()
	loc, err := utils.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

// testWeek is the week of Monday 2025-09-08 IST, seen from Monday 08:00.
func testWeek(t *testing.T) (models.WeekWindow, *time.Location) {
	loc := ist(t)
	return utils.ComputeWeekWindow(time.Date(2025, 9, 8, 8, 0, 0, 0, loc), loc), loc
}

func fixtureDataset(t *testing.T) storage.Dataset {
	t.Helper()
	week, loc := testWeek(t)
	ds, err := LoadFixture(week, loc)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	return ds
}

func noWait() []retry.Option {
	return []retry.Option{
		retry.WithSleep(func(context.Context, time.Duration) error { return nil }),
		retry.WithJitter(func(time.Duration) time.Duration { return 0 }),
	}
}

func failingMock(models.WeekWindow, *time.Location) (storage.Dataset, error) {
	return storage.Dataset{}, errors.New("fixture missing")
}
