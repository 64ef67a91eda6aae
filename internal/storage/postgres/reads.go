package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/storage"
)

func (s *Store) GetWorkspace(ctx context.Context, slug string) (models.Workspace, error) {
	var ws models.Workspace
	err := s.db.QueryRowContext(ctx,
		"SELECT id, slug, name, timezone, created_at FROM workspaces WHERE slug = $1", slug).
		Scan(&ws.ID, &ws.Slug, &ws.Name, &ws.Timezone, &ws.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workspace{}, fmt.Errorf("workspace %q: %w", slug, storage.ErrNotFound)
	}
	if err != nil {
		return models.Workspace{}, err
	}
	return ws, nil
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	var (
		t                          models.Task
		status                     string
		start, end, due, completed sql.NullTime
		createdAt                  time.Time
	)
	if err := rows.Scan(&t.ID, &t.WorkspaceID, &t.Name, &status, &t.PriorityMatrix, &t.EstimateMin,
		&start, &end, &due, &t.Context, &t.Project, &t.Area, &createdAt, &completed); err != nil {
		return models.Task{}, err
	}
	t.Status = models.ParseStatus(status)
	t.Start = nullTimePtr(start)
	t.End = nullTimePtr(end)
	t.Due = nullTimePtr(due)
	t.CompletedAt = nullTimePtr(completed)
	t.CreatedAt = createdAt.UTC()
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, workspaceID string, q storage.TaskQuery) ([]models.Task, error) {
	where, args := storage.BuildTaskQuery(storage.PostgresDialect, workspaceID, q)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+storage.TaskColumns+" FROM tasks t LEFT JOIN projects p ON p.id = t.project_id"+where+storage.TaskOrder,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return storage.SortByPriority(tasks, q.Limit), nil
}

func (s *Store) CountTasks(ctx context.Context, workspaceID string, q storage.TaskQuery) (int, error) {
	where, args := storage.BuildTaskQuery(storage.PostgresDialect, workspaceID, q)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks t"+where, args...).Scan(&n)
	return n, err
}

func (s *Store) ListHabits(ctx context.Context, workspaceID, from, to string) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, workspace_id, name, target_days, created_at FROM habits WHERE workspace_id = $1 ORDER BY name, id",
		workspaceID)
	if err != nil {
		return nil, err
	}
	var habits []models.Habit
	index := make(map[string]int)
	for rows.Next() {
		var h models.Habit
		if err := rows.Scan(&h.ID, &h.WorkspaceID, &h.Name, &h.TargetDays, &h.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		index[h.ID] = len(habits)
		habits = append(habits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(habits) == 0 {
		return habits, nil
	}

	checks, err := s.db.QueryContext(ctx,
		`SELECT c.habit_id, c.day, c.note FROM habit_checks c
		JOIN habits h ON h.id = c.habit_id
		WHERE h.workspace_id = $1 AND c.day >= $2 AND c.day <= $3
		ORDER BY c.day`,
		workspaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer checks.Close()
	for checks.Next() {
		var c models.HabitCheck
		if err := checks.Scan(&c.HabitID, &c.Day, &c.Note); err != nil {
			return nil, err
		}
		if i, ok := index[c.HabitID]; ok {
			habits[i].Checks = append(habits[i].Checks, c)
		}
	}
	return habits, checks.Err()
}

func (s *Store) ListJournal(ctx context.Context, workspaceID, from, to string) ([]models.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace_id, day, mood, body, created_at FROM journal_entries
		WHERE workspace_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day DESC, created_at DESC`,
		workspaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var j models.JournalEntry
		if err := rows.Scan(&j.ID, &j.WorkspaceID, &j.Day, &j.Mood, &j.Body, &j.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, j)
	}
	return entries, rows.Err()
}

func (s *Store) ListProjects(ctx context.Context, workspaceID string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, workspace_id, name, area, active FROM projects WHERE workspace_id = $1 ORDER BY name, id",
		workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.WorkspaceID, &p.Name, &p.Area, &p.Active); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
