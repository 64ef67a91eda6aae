package storage

import (
	"context"
	"errors"
	"time"

	"github.com/flowstate/flowstate/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// TaskQuery filters task reads. Zero values match everything.
type TaskQuery struct {
	Statuses []models.TaskStatus
	// Unscheduled keeps tasks whose start or end is null.
	Unscheduled bool
	// ScheduledWithin keeps tasks with both start and end set that overlap the window.
	ScheduledWithin *models.WeekWindow
	// CompletedWithin keeps tasks whose completed instant falls in the window.
	CompletedWithin *models.WeekWindow
	Limit           int
}

// Dataset is a full workspace snapshot used for seeding.
type Dataset struct {
	Workspace models.Workspace
	Projects  []models.Project
	Tasks     []models.Task
	Habits    []models.Habit
	Journal   []models.JournalEntry
}

// Provider is the data-store read contract. UpdateTaskSchedule is the only
// write the scheduling path performs; Seed is for local and demo setup.
type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Workspaces
	GetWorkspace(ctx context.Context, slug string) (models.Workspace, error)

	// Tasks are ordered by priority tier, then due, then created instant.
	ListTasks(ctx context.Context, workspaceID string, q TaskQuery) ([]models.Task, error)
	CountTasks(ctx context.Context, workspaceID string, q TaskQuery) (int, error)
	UpdateTaskSchedule(ctx context.Context, taskID string, start, end time.Time) error

	// Habits carry their check-ins between from and to (YYYY-MM-DD, inclusive).
	ListHabits(ctx context.Context, workspaceID, from, to string) ([]models.Habit, error)
	ListJournal(ctx context.Context, workspaceID, from, to string) ([]models.JournalEntry, error)
	ListProjects(ctx context.Context, workspaceID string) ([]models.Project, error)

	Seed(ctx context.Context, ds Dataset) error

	// Name is a non-sensitive identifier for diagnostics.
	Name() string
}
