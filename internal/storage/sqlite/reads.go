package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/storage"
)

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(storage.SQLiteTimeLayout, s)
	if err != nil {
		// Rows written by other tools may use plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
	}
	return t.UTC(), err
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetWorkspace(ctx context.Context, slug string) (models.Workspace, error) {
	var (
		ws      models.Workspace
		created string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, slug, name, timezone, created_at FROM workspaces WHERE slug = ?", slug).
		Scan(&ws.ID, &ws.Slug, &ws.Name, &ws.Timezone, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Workspace{}, fmt.Errorf("workspace %q: %w", slug, storage.ErrNotFound)
	}
	if err != nil {
		return models.Workspace{}, err
	}
	if ws.CreatedAt, err = parseTime(created); err != nil {
		return models.Workspace{}, fmt.Errorf("workspace %q created_at: %w", slug, err)
	}
	return ws, nil
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	var (
		t                          models.Task
		status, created            string
		start, end, due, completed sql.NullString
	)
	if err := rows.Scan(&t.ID, &t.WorkspaceID, &t.Name, &status, &t.PriorityMatrix, &t.EstimateMin,
		&start, &end, &due, &t.Context, &t.Project, &t.Area, &created, &completed); err != nil {
		return models.Task{}, err
	}
	t.Status = models.ParseStatus(status)

	var err error
	if t.CreatedAt, err = parseTime(created); err != nil {
		return models.Task{}, fmt.Errorf("task %s created_at: %w", t.ID, err)
	}
	for _, f := range []struct {
		dst **time.Time
		src sql.NullString
	}{{&t.Start, start}, {&t.End, end}, {&t.Due, due}, {&t.CompletedAt, completed}} {
		if *f.dst, err = parseNullTime(f.src); err != nil {
			return models.Task{}, fmt.Errorf("task %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, workspaceID string, q storage.TaskQuery) ([]models.Task, error) {
	where, args := storage.BuildTaskQuery(storage.SQLiteDialect, workspaceID, q)
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
	where, args := storage.BuildTaskQuery(storage.SQLiteDialect, workspaceID, q)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks t"+where, args...).Scan(&n)
	return n, err
}

func (s *Store) ListHabits(ctx context.Context, workspaceID, from, to string) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, workspace_id, name, target_days, created_at FROM habits WHERE workspace_id = ? ORDER BY name, id",
		workspaceID)
	if err != nil {
		return nil, err
	}
	var habits []models.Habit
	index := make(map[string]int)
	for rows.Next() {
		var (
			h       models.Habit
			created string
		)
		if err := rows.Scan(&h.ID, &h.WorkspaceID, &h.Name, &h.TargetDays, &created); err != nil {
			rows.Close()
			return nil, err
		}
		if h.CreatedAt, err = parseTime(created); err != nil {
			rows.Close()
			return nil, fmt.Errorf("habit %s created_at: %w", h.ID, err)
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
		WHERE h.workspace_id = ? AND c.day >= ? AND c.day <= ?
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
		WHERE workspace_id = ? AND day >= ? AND day <= ?
		ORDER BY day DESC, created_at DESC`,
		workspaceID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.JournalEntry
	for rows.Next() {
		var (
			j       models.JournalEntry
			created string
		)
		if err := rows.Scan(&j.ID, &j.WorkspaceID, &j.Day, &j.Mood, &j.Body, &created); err != nil {
			return nil, err
		}
		if j.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("journal entry %s created_at: %w", j.ID, err)
		}
		entries = append(entries, j)
	}
	return entries, rows.Err()
}

func (s *Store) ListProjects(ctx context.Context, workspaceID string) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, workspace_id, name, area, active FROM projects WHERE workspace_id = ? ORDER BY name, id",
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
