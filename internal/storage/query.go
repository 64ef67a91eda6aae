package storage

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/flowstate/flowstate/internal/models"
)

// Dialect adapts the shared task query to a driver.
type Dialect struct {
	// Bind returns the placeholder for the n-th argument (1-based).
	Bind func(n int) string
	// Time converts an instant into a driver argument.
	Time func(t time.Time) any
}

// PostgresDialect uses $n placeholders and native timestamps.
var PostgresDialect = Dialect{
	Bind: func(n int) string { return "$" + strconv.Itoa(n) },
	Time: func(t time.Time) any { return t.UTC() },
}

// SQLiteTimeLayout is fixed width so text comparison orders instants.
const SQLiteTimeLayout = "2006-01-02T15:04:05.000Z"

// SQLiteDialect uses ? placeholders and fixed-width UTC text instants.
var SQLiteDialect = Dialect{
	Bind: func(int) string { return "?" },
	Time: func(t time.Time) any { return t.UTC().Format(SQLiteTimeLayout) },
}

// TaskColumns is the select list scanned by both stores, in order.
const TaskColumns = `t.id, t.workspace_id, t.name, t.status, t.priority_matrix, t.estimate_min,
	t.start_at, t.end_at, t.due_at, t.context, COALESCE(p.name, ''), COALESCE(p.area, ''),
	t.created_at, t.completed_at`

// BuildTaskQuery renders the WHERE clause and arguments for q. The caller
// prefixes the SELECT and appends ordering.
func BuildTaskQuery(d Dialect, workspaceID string, q TaskQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return d.Bind(len(args))
	}

	where = append(where, "t.workspace_id = "+arg(workspaceID))

	if len(q.Statuses) > 0 {
		if clause := statusClause(q.Statuses, arg); clause != "" {
			where = append(where, clause)
		}
	}
	if q.Unscheduled {
		where = append(where, "(t.start_at IS NULL OR t.end_at IS NULL)")
	}
	if w := q.ScheduledWithin; w != nil {
		where = append(where,
			"t.start_at IS NOT NULL AND t.end_at IS NOT NULL",
			"t.start_at <= "+arg(d.Time(w.End)),
			"t.end_at > "+arg(d.Time(w.Start)),
		)
	}
	if w := q.CompletedWithin; w != nil {
		where = append(where,
			"t.completed_at >= "+arg(d.Time(w.Start)),
			"t.completed_at <= "+arg(d.Time(w.End)),
		)
	}

	return " WHERE " + strings.Join(where, " AND "), args
}

// statusExpr folds stored status text the way models.NormalizeStatusText does.
const statusExpr = "LOWER(REPLACE(REPLACE(TRIM(t.status), ' ', '_'), '-', '_'))"

// statusClause matches rows whose status text parses as one of want. Not
// started is what unknown text parses as, so when it is wanted the clause
// excludes the other statuses' spellings instead of listing its own.
func statusClause(want []models.TaskStatus, arg func(any) string) string {
	wanted := make(map[models.TaskStatus]bool, len(want))
	for _, st := range want {
		wanted[models.ParseStatus(string(st))] = true
	}
	include := !wanted[models.StatusNotStarted]

	var ph []string
	for _, st := range models.AllStatuses {
		if wanted[st] != include {
			continue
		}
		for _, alias := range models.StatusAliases(st) {
			ph = append(ph, arg(alias))
		}
	}
	if len(ph) == 0 {
		return ""
	}
	op := " IN ("
	if !include {
		op = " NOT IN ("
	}
	return statusExpr + op + strings.Join(ph, ", ") + ")"
}

// TaskOrder orders rows by due (nulls last), created instant and id. The
// priority tier is derived from free text and applied by SortByPriority.
const TaskOrder = " ORDER BY CASE WHEN t.due_at IS NULL THEN 1 ELSE 0 END, t.due_at, t.created_at, t.id"

// SortByPriority stably moves higher tiers first, keeping the store's
// due/created order within a tier, then applies limit (0 means none).
func SortByPriority(tasks []models.Task, limit int) []models.Task {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority().Rank() < tasks[j].Priority().Rank()
	})
	if limit > 0 && len(tasks) > limit {
		return tasks[:limit]
	}
	return tasks
}
