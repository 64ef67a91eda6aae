package demo

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/retry"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/utils"
)

type HabitProgress struct {
	Habit   models.Habit
	Checked int
	Target  int
	Rate    float64
}

type ContextHours struct {
	Context string
	Hours   float64
}

// Review aggregates one week for the weekly review page.
type Review struct {
	Week         models.WeekWindow
	Scheduled    models.HoursSummary
	Completed    []models.Task
	Open         int
	Overdue      []models.Task
	Habits       []HabitProgress
	HabitRate    float64
	JournalCount int
	ByContext    []ContextHours
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// BuildReview summarises env for its week. Hours are clipped to the window.
func BuildReview(env Envelope, loc *time.Location) Review {
	week := env.Week
	r := Review{
		Week:      week,
		Scheduled: utils.SumScheduledHours(env.Tasks, week),
	}

	byContext := make(map[string]time.Duration)
	for _, t := range env.Tasks {
		if t.CompletedAt != nil && week.Contains(*t.CompletedAt) {
			r.Completed = append(r.Completed, t)
		}
		if t.Status != models.StatusDone {
			r.Open++
			if t.IsOverdue(week.ZonedNow) {
				r.Overdue = append(r.Overdue, t)
			}
		}
		if t.IsScheduled() {
			if d := utils.ClipOverlap(*t.Start, *t.End, week.Start, week.End); d > 0 {
				ctx := t.Context
				if ctx == "" {
					ctx = "Unsorted"
				}
				byContext[ctx] += d
			}
		}
	}

	for ctx, d := range byContext {
		r.ByContext = append(r.ByContext, ContextHours{Context: ctx, Hours: round1(d.Hours())})
	}
	sort.Slice(r.ByContext, func(i, j int) bool {
		if r.ByContext[i].Hours != r.ByContext[j].Hours {
			return r.ByContext[i].Hours > r.ByContext[j].Hours
		}
		return r.ByContext[i].Context < r.ByContext[j].Context
	})

	days := week.Days(loc)
	var rateSum float64
	for _, h := range env.Habits {
		p := HabitProgress{Habit: h, Target: h.TargetDays, Rate: h.CompletionRate(days)}
		if p.Target <= 0 {
			p.Target = len(days)
		}
		for _, d := range days {
			if h.CheckedOn(d) {
				p.Checked++
			}
		}
		rateSum += p.Rate
		r.Habits = append(r.Habits, p)
	}
	if len(r.Habits) > 0 {
		r.HabitRate = rateSum / float64(len(r.Habits))
	}

	for _, j := range env.Journal {
		for _, d := range days {
			if j.Day == d {
				r.JournalCount++
				break
			}
		}
	}
	return r
}

type AgendaItem struct {
	Task  models.Task
	Start time.Time
	End   time.Time
}

type AgendaDay struct {
	Date  string
	Label string
	Today bool
	Items []AgendaItem
}

// BuildAgenda groups the week's scheduled tasks by the local day they start
// on. A task that began before the week is listed on Monday.
func BuildAgenda(tasks []models.Task, week models.WeekWindow, loc *time.Location) []AgendaDay {
	dates := week.Days(loc)
	today := week.ZonedNow.In(loc).Format(constants.DateFormat)
	monday := week.Start.In(loc)

	out := make([]AgendaDay, len(dates))
	index := make(map[string]int, len(dates))
	for i, d := range dates {
		out[i] = AgendaDay{
			Date:  d,
			Label: monday.AddDate(0, 0, i).Format("Mon 02 Jan"),
			Today: d == today,
		}
		index[d] = i
	}

	for _, t := range tasks {
		if !t.IsScheduled() || utils.ClipOverlap(*t.Start, *t.End, week.Start, week.End) <= 0 {
			continue
		}
		start := t.Start.In(loc)
		i, ok := index[start.Format(constants.DateFormat)]
		if !ok {
			i = 0
		}
		out[i].Items = append(out[i].Items, AgendaItem{Task: t, Start: start, End: t.End.In(loc)})
	}
	for i := range out {
		sort.SliceStable(out[i].Items, func(a, b int) bool {
			return out[i].Items[a].Start.Before(out[i].Items[b].Start)
		})
	}
	return out
}

// Overview is the headline numbers for the overview page.
type Overview struct {
	OpenTasks         int
	InProgress        int
	CompletedThisWeek int
	DueThisWeek       int
	Overdue           int
	ScheduledHours    float64
	HabitsToday       int
	HabitsTotal       int
	Next              []AgendaItem
}

func BuildOverview(env Envelope, loc *time.Location) Overview {
	week := env.Week
	now := week.ZonedNow
	o := Overview{
		ScheduledHours: utils.SumScheduledHours(env.Tasks, week).Hours,
		HabitsTotal:    len(env.Habits),
	}
	for _, t := range env.Tasks {
		if t.Status == models.StatusDone {
			if t.CompletedAt != nil && week.Contains(*t.CompletedAt) {
				o.CompletedThisWeek++
			}
			continue
		}
		o.OpenTasks++
		if t.Status == models.StatusInProgress {
			o.InProgress++
		}
		if t.Due != nil && week.Contains(*t.Due) {
			o.DueThisWeek++
		}
		if t.IsOverdue(now) {
			o.Overdue++
		}
	}

	today := now.In(loc).Format(constants.DateFormat)
	for _, h := range env.Habits {
		if h.CheckedOn(today) {
			o.HabitsToday++
		}
	}

	for _, day := range BuildAgenda(env.Tasks, week, loc) {
		for _, item := range day.Items {
			if item.End.After(now) && item.Task.Status != models.StatusDone && len(o.Next) < 3 {
				o.Next = append(o.Next, item)
			}
		}
	}
	return o
}

// Overview is BuildOverview with the task tallies counted by the store when
// env came from it. If any count fails the tallies over env's rows stand.
func (l *Loader) Overview(ctx context.Context, env Envelope, loc *time.Location) Overview {
	o := BuildOverview(env, loc)
	if env.Source != constants.SourceStore || l.Store == nil {
		return o
	}

	tallies := []struct {
		dst *int
		q   storage.TaskQuery
	}{
		{&o.OpenTasks, storage.TaskQuery{Statuses: openStatuses}},
		{&o.InProgress, storage.TaskQuery{Statuses: []models.TaskStatus{models.StatusInProgress}}},
		{&o.CompletedThisWeek, storage.TaskQuery{CompletedWithin: &env.Week}},
	}
	counts := make([]int, len(tallies))
	errs := make([]error, len(tallies))
	var wg sync.WaitGroup
	for i, tally := range tallies {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counts[i], errs[i] = retry.Value(ctx, func(ctx context.Context) (int, error) {
				return l.Store.CountTasks(ctx, env.Workspace.ID, tally.q)
			}, l.Retry...)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		logger.Warn("Task counts unavailable, tallying loaded rows", "error", err)
		return o
	}
	for i, tally := range tallies {
		*tally.dst = counts[i]
	}
	return o
}
