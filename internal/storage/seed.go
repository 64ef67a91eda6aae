package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

func (d Dialect) optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.Time(*t)
}

func (d Dialect) binds(n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = d.Bind(i + 1)
	}
	return strings.Join(ph, ", ")
}

// SeedTx upserts ds inside tx. An existing workspace with the same slug is
// reused, so seeding twice refreshes rather than duplicates.
func SeedTx(ctx context.Context, tx *sql.Tx, d Dialect, ds Dataset) error {
	ws := ds.Workspace
	if ws.Slug == "" {
		return errors.New("seed: workspace slug is required")
	}
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = time.Now()
	}

	var existing string
	err := tx.QueryRowContext(ctx, "SELECT id FROM workspaces WHERE slug = "+d.Bind(1), ws.Slug).Scan(&existing)
	switch {
	case err == nil:
		ws.ID = existing
		if _, err := tx.ExecContext(ctx,
			"UPDATE workspaces SET name = "+d.Bind(1)+", timezone = "+d.Bind(2)+" WHERE id = "+d.Bind(3),
			ws.Name, ws.Timezone, ws.ID); err != nil {
			return fmt.Errorf("seed workspace: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		if ws.ID == "" {
			return errors.New("seed: workspace id is required")
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO workspaces (id, slug, name, timezone, created_at) VALUES ("+d.binds(5)+")",
			ws.ID, ws.Slug, ws.Name, ws.Timezone, d.Time(ws.CreatedAt)); err != nil {
			return fmt.Errorf("seed workspace: %w", err)
		}
	default:
		return fmt.Errorf("seed workspace lookup: %w", err)
	}

	projectIDs := make(map[string]string, len(ds.Projects))
	for _, p := range ds.Projects {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO projects (id, workspace_id, name, area, active) VALUES ("+d.binds(5)+`)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, area = excluded.area, active = excluded.active`,
			p.ID, ws.ID, p.Name, p.Area, p.Active); err != nil {
			return fmt.Errorf("seed project %s: %w", p.ID, err)
		}
		projectIDs[strings.ToLower(p.Name)] = p.ID
	}

	for _, t := range ds.Tasks {
		var projectID any
		if id, ok := projectIDs[strings.ToLower(t.Project)]; ok && t.Project != "" {
			projectID = id
		}
		created := t.CreatedAt
		if created.IsZero() {
			created = ws.CreatedAt
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tasks (id, workspace_id, name, status, priority_matrix, estimate_min,
				start_at, end_at, due_at, context, project_id, created_at, completed_at)
			VALUES (`+d.binds(13)+`)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name, status = excluded.status,
				priority_matrix = excluded.priority_matrix, estimate_min = excluded.estimate_min,
				start_at = excluded.start_at, end_at = excluded.end_at, due_at = excluded.due_at,
				context = excluded.context, project_id = excluded.project_id,
				completed_at = excluded.completed_at`,
			t.ID, ws.ID, t.Name, string(t.Status), t.PriorityMatrix, t.EstimateMin,
			d.optTime(t.Start), d.optTime(t.End), d.optTime(t.Due), t.Context, projectID,
			d.Time(created), d.optTime(t.CompletedAt)); err != nil {
			return fmt.Errorf("seed task %s: %w", t.ID, err)
		}
	}

	for _, h := range ds.Habits {
		created := h.CreatedAt
		if created.IsZero() {
			created = ws.CreatedAt
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO habits (id, workspace_id, name, target_days, created_at) VALUES ("+d.binds(5)+`)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, target_days = excluded.target_days`,
			h.ID, ws.ID, h.Name, h.TargetDays, d.Time(created)); err != nil {
			return fmt.Errorf("seed habit %s: %w", h.ID, err)
		}
		for _, c := range h.Checks {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO habit_checks (habit_id, day, note) VALUES ("+d.binds(3)+`)
				ON CONFLICT (habit_id, day) DO UPDATE SET note = excluded.note`,
				h.ID, c.Day, c.Note); err != nil {
				return fmt.Errorf("seed habit check %s/%s: %w", h.ID, c.Day, err)
			}
		}
	}

	for _, j := range ds.Journal {
		created := j.CreatedAt
		if created.IsZero() {
			created = ws.CreatedAt
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO journal_entries (id, workspace_id, day, mood, body, created_at) VALUES ("+d.binds(6)+`)
			ON CONFLICT (id) DO UPDATE SET day = excluded.day, mood = excluded.mood, body = excluded.body`,
			j.ID, ws.ID, j.Day, j.Mood, j.Body, d.Time(created)); err != nil {
			return fmt.Errorf("seed journal entry %s: %w", j.ID, err)
		}
	}

	return nil
}
