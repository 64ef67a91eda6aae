package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flowstate/flowstate/internal/migration"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/storage"
)

var (
	weekStart = time.Date(2025, 9, 7, 18, 30, 0, 0, time.UTC)
	weekEnd   = time.Date(2025, 9, 14, 18, 29, 59, 999_000_000, time.UTC)
)

func ptr(t time.Time) *time.Time { return &t }

func setupStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "data", "flowstate.db"))
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testDataset() storage.Dataset {
	mon := weekStart.Add(9 * time.Hour) // Mon 09:00 IST
	return storage.Dataset{
		Workspace: models.Workspace{ID: "ws-1", Slug: "demo", Name: "Demo", Timezone: "Asia/Kolkata", CreatedAt: weekStart.Add(-72 * time.Hour)},
		Projects: []models.Project{
			{ID: "p-1", Name: "Launch", Area: "Work", Active: true},
			{ID: "p-2", Name: "Home", Area: "Personal", Active: false},
		},
		Tasks: []models.Task{
			{ID: "t-low", Name: "Tidy inbox", Status: models.StatusNotStarted, EstimateMin: 30, CreatedAt: weekStart.Add(-48 * time.Hour)},
			{ID: "t-high", Name: "Ship release", Status: models.StatusInProgress, PriorityMatrix: "Urgent & Important", EstimateMin: 90, Project: "launch", Context: "Deep Work", CreatedAt: weekStart.Add(-24 * time.Hour)},
			{ID: "t-med", Name: "Plan sprint", Status: models.StatusNotStarted, PriorityMatrix: "Medium", Due: ptr(weekEnd.Add(-time.Hour)), CreatedAt: weekStart},
			{ID: "t-booked", Name: "1:1", Status: models.StatusNotStarted, Start: ptr(mon), End: ptr(mon.Add(time.Hour)), CreatedAt: weekStart},
			{ID: "t-done", Name: "Retro", Status: models.StatusDone, CompletedAt: ptr(mon.Add(2 * time.Hour)), CreatedAt: weekStart},
		},
		Habits: []models.Habit{
			{ID: "h-1", Name: "Read", TargetDays: 5, Checks: []models.HabitCheck{
				{HabitID: "h-1", Day: "2025-09-08"},
				{HabitID: "h-1", Day: "2025-09-09", Note: "20 pages"},
				{HabitID: "h-1", Day: "2025-09-01"},
			}},
		},
		Journal: []models.JournalEntry{
			{ID: "j-1", Day: "2025-09-08", Mood: "good", Body: "Focused morning"},
			{ID: "j-2", Day: "2025-09-01", Body: "Last week"},
		},
	}
}

func seeded(t *testing.T) (*Store, models.Workspace) {
	t.Helper()
	s := setupStore(t)
	ctx := context.Background()
	if err := s.Seed(ctx, testDataset()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	ws, err := s.GetWorkspace(ctx, "demo")
	if err != nil {
		t.Fatalf("GetWorkspace: %v", err)
	}
	return s, ws
}

func TestLoad_RequiresInit(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := s.Load(context.Background()); err == nil {
		t.Fatal("expected Load to fail before Init")
	}
}

func TestLoad_RetriesAfterMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flowstate.db")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	t.Cleanup(func() { s.Close() })
	if err := s.Load(ctx); !errors.Is(err, migration.ErrNotMigrated) {
		t.Fatalf("Load before migrate = %v, want ErrNotMigrated", err)
	}

	migrator := NewStore(path)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	migrator.Close()

	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load after migrate: %v", err)
	}
	if err := s.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNewStore_StripsScheme(t *testing.T) {
	if got := NewStore("sqlite:///tmp/x.db").Name(); got != "/tmp/x.db" {
		t.Errorf("Name() = %q", got)
	}
}

func TestGetWorkspace_NotFound(t *testing.T) {
	s := setupStore(t)
	_, err := s.GetWorkspace(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListTasks(t *testing.T) {
	s, ws := seeded(t)
	ctx := context.Background()
	week := models.WeekWindow{Start: weekStart, End: weekEnd}

	tests := []struct {
		name string
		q    storage.TaskQuery
		want []string
	}{
		{
			name: "unscheduled open tasks by tier then due",
			q:    storage.TaskQuery{Statuses: []models.TaskStatus{models.StatusNotStarted, models.StatusInProgress}, Unscheduled: true},
			want: []string{"t-high", "t-med", "t-low"},
		},
		{
			name: "scheduled within week",
			q:    storage.TaskQuery{ScheduledWithin: &week},
			want: []string{"t-booked"},
		},
		{
			name: "completed within week",
			q:    storage.TaskQuery{CompletedWithin: &week},
			want: []string{"t-done"},
		},
		{
			name: "limit",
			q:    storage.TaskQuery{Unscheduled: true, Limit: 1},
			want: []string{"t-high"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := s.ListTasks(ctx, ws.ID, tt.q)
			if err != nil {
				t.Fatalf("ListTasks: %v", err)
			}
			if len(tasks) != len(tt.want) {
				t.Fatalf("got %d tasks, want %d", len(tasks), len(tt.want))
			}
			for i, id := range tt.want {
				if tasks[i].ID != id {
					t.Errorf("position %d: got %s, want %s", i, tasks[i].ID, id)
				}
			}
		})
	}
}

func TestListTasks_StatusSpellings(t *testing.T) {
	s, ws := seeded(t)
	ctx := context.Background()
	for id, status := range map[string]string{"t-low": "Not Started", "t-high": "In progress", "t-done": "Completed"} {
		if _, err := s.db.ExecContext(ctx, "UPDATE tasks SET status = ? WHERE id = ?", status, id); err != nil {
			t.Fatalf("update %s: %v", id, err)
		}
	}

	open, err := s.ListTasks(ctx, ws.ID, storage.TaskQuery{Statuses: []models.TaskStatus{models.StatusNotStarted, models.StatusInProgress}, Unscheduled: true})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(open) != 3 {
		t.Fatalf("got %d open unscheduled tasks, want 3", len(open))
	}
	for _, task := range open {
		if task.Status == models.StatusDone {
			t.Errorf("%s: done task returned as open", task.ID)
		}
	}

	done, err := s.CountTasks(ctx, ws.ID, storage.TaskQuery{Statuses: []models.TaskStatus{models.StatusDone}})
	if err != nil || done != 1 {
		t.Errorf("done = %d, %v; want 1", done, err)
	}
}

func TestListTasks_RoundTripsFields(t *testing.T) {
	s, ws := seeded(t)
	tasks, err := s.ListTasks(context.Background(), ws.ID, storage.TaskQuery{Limit: 1, Statuses: []models.TaskStatus{models.StatusInProgress}})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Project != "Launch" || got.Area != "Work" {
		t.Errorf("project/area = %q/%q, want Launch/Work", got.Project, got.Area)
	}
	if got.Priority() != models.PriorityHigh || got.EstimateMin != 90 || got.Context != "Deep Work" {
		t.Errorf("unexpected task %+v", got)
	}
	if !got.CreatedAt.Equal(weekStart.Add(-24 * time.Hour)) {
		t.Errorf("created_at = %v", got.CreatedAt)
	}
}

func TestCountTasks(t *testing.T) {
	s, ws := seeded(t)
	n, err := s.CountTasks(context.Background(), ws.ID, storage.TaskQuery{Statuses: []models.TaskStatus{models.StatusDone}})
	if err != nil {
		t.Fatalf("CountTasks: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 done task, got %d", n)
	}
}

func TestUpdateTaskSchedule(t *testing.T) {
	s, ws := seeded(t)
	ctx := context.Background()
	start := weekStart.Add(27*time.Hour + 30*time.Minute)
	end := start.Add(30 * time.Minute)

	if err := s.UpdateTaskSchedule(ctx, "t-low", start, end); err != nil {
		t.Fatalf("UpdateTaskSchedule: %v", err)
	}
	week := models.WeekWindow{Start: weekStart, End: weekEnd}
	n, err := s.CountTasks(ctx, ws.ID, storage.TaskQuery{ScheduledWithin: &week})
	if err != nil {
		t.Fatalf("CountTasks: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 scheduled tasks after update, got %d", n)
	}

	if err := s.UpdateTaskSchedule(ctx, "missing", start, end); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListHabitsAndJournal_RangeFiltered(t *testing.T) {
	s, ws := seeded(t)
	ctx := context.Background()

	habits, err := s.ListHabits(ctx, ws.ID, "2025-09-08", "2025-09-14")
	if err != nil {
		t.Fatalf("ListHabits: %v", err)
	}
	if len(habits) != 1 {
		t.Fatalf("expected 1 habit, got %d", len(habits))
	}
	if len(habits[0].Checks) != 2 {
		t.Errorf("expected 2 in-range checks, got %d", len(habits[0].Checks))
	}

	entries, err := s.ListJournal(ctx, ws.ID, "2025-09-08", "2025-09-14")
	if err != nil {
		t.Fatalf("ListJournal: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "j-1" {
		t.Errorf("unexpected journal entries %+v", entries)
	}
}

func TestListProjects(t *testing.T) {
	s, ws := seeded(t)
	projects, err := s.ListProjects(context.Background(), ws.ID)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 2 || projects[0].Name != "Home" || projects[0].Active {
		t.Errorf("unexpected projects %+v", projects)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	s, ws := seeded(t)
	ctx := context.Background()
	ds := testDataset()
	ds.Workspace.ID = "other-id"
	ds.Workspace.Name = "Renamed"
	if err := s.Seed(ctx, ds); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	again, err := s.GetWorkspace(ctx, "demo")
	if err != nil {
		t.Fatalf("GetWorkspace: %v", err)
	}
	if again.ID != ws.ID || again.Name != "Renamed" {
		t.Errorf("expected workspace %s renamed, got %+v", ws.ID, again)
	}
	n, err := s.CountTasks(ctx, ws.ID, storage.TaskQuery{})
	if err != nil {
		t.Fatalf("CountTasks: %v", err)
	}
	if n != 5 {
		t.Errorf("expected 5 tasks after reseed, got %d", n)
	}
}

func TestSchemaVersion(t *testing.T) {
	s := setupStore(t)
	current, latest, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if current != latest || latest < 1 {
		t.Errorf("current=%d latest=%d", current, latest)
	}
}
