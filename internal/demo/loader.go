// Package demo assembles read-only workspace data for the demo pages,
// falling back from the live store to the embedded mock dataset.
package demo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/retry"
	"github.com/flowstate/flowstate/internal/storage"
)

// ErrNoStore is returned by store reads when no store is configured.
var ErrNoStore = errors.New("no data store configured")

// Envelope is one request's worth of demo data. It is built fresh per
// request and never cached.
type Envelope struct {
	Source    constants.Source      `json:"source"`
	Week      models.WeekWindow     `json:"week"`
	Workspace models.Workspace      `json:"workspace"`
	Tasks     []models.Task         `json:"tasks"`
	Habits    []models.Habit        `json:"habits"`
	Journal   []models.JournalEntry `json:"journal"`
	Projects  []models.Project      `json:"projects"`
	// Unavailable lists secondary collections that failed and render empty.
	Unavailable []string `json:"unavailable,omitempty"`
	// Err is the store failure behind a fallback. It stays nil when no store
	// is configured or the store simply had no tasks.
	Err error `json:"-"`
}

// Simulated reports whether the page should carry the simulated-data banner.
func (e Envelope) Simulated() bool {
	return e.Source != constants.SourceStore
}

// MockFunc produces the fallback dataset for a week.
type MockFunc func(week models.WeekWindow, loc *time.Location) (storage.Dataset, error)

type Loader struct {
	// Store may be nil, in which case every read falls back to the mock.
	Store storage.Provider
	// Connect readies Store before its first read. It runs under the read's
	// retry policy and is tried again on later reads until it succeeds once.
	Connect   func(ctx context.Context) error
	Workspace string
	Location  *time.Location
	Mock      MockFunc
	Retry     []retry.Option

	connMu    sync.Mutex
	connected bool
}

func (l *Loader) location() *time.Location {
	if l.Location == nil {
		loc, err := time.LoadLocation(constants.DefaultTimezone)
		if err != nil {
			return time.UTC
		}
		return loc
	}
	return l.Location
}

// RetryOptions resolves the loader's retry policy over the defaults.
func (l *Loader) RetryOptions() retry.Options {
	o := retry.DefaultOptions()
	for _, opt := range l.Retry {
		opt(&o)
	}
	return o
}

func (l *Loader) slug() string {
	if l.Workspace == "" {
		return constants.DefaultDemoWorkspace
	}
	return l.Workspace
}

func (l *Loader) mockFunc() MockFunc {
	if l.Mock == nil {
		return LoadFixture
	}
	return l.Mock
}

func (l *Loader) store(ctx context.Context) (storage.Provider, error) {
	if l.Store == nil {
		return nil, retry.Permanent(ErrNoStore)
	}
	if l.Connect == nil {
		return l.Store, nil
	}
	l.connMu.Lock()
	defer l.connMu.Unlock()
	if !l.connected {
		if err := l.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connect to store: %w", err)
		}
		l.connected = true
	}
	return l.Store, nil
}

// workspace reads the configured workspace, connecting first if needed.
func (l *Loader) workspace(ctx context.Context) (models.Workspace, error) {
	s, err := l.store(ctx)
	if err != nil {
		return models.Workspace{}, err
	}
	return s.GetWorkspace(ctx, l.slug())
}

func (l *Loader) emptyEnvelope(week models.WeekWindow) Envelope {
	return Envelope{
		Source:    constants.SourceEmpty,
		Week:      week,
		Workspace: models.Workspace{Slug: l.slug(), Name: "FlowState"},
		Tasks:     []models.Task{},
		Habits:    []models.Habit{},
		Journal:   []models.JournalEntry{},
		Projects:  []models.Project{},
	}
}

func fromDataset(ds storage.Dataset, week models.WeekWindow, src constants.Source) Envelope {
	env := Envelope{
		Source:    src,
		Week:      week,
		Workspace: ds.Workspace,
		Tasks:     ds.Tasks,
		Habits:    ds.Habits,
		Journal:   ds.Journal,
		Projects:  ds.Projects,
	}
	if env.Tasks == nil {
		env.Tasks = []models.Task{}
	}
	if env.Habits == nil {
		env.Habits = []models.Habit{}
	}
	if env.Journal == nil {
		env.Journal = []models.JournalEntry{}
	}
	if env.Projects == nil {
		env.Projects = []models.Project{}
	}
	return env
}

// Load builds the envelope for week. The workspace and its tasks are
// critical: if either cannot come from the store the whole envelope is the
// mock (or empty). Habits, journal and projects are read concurrently with
// the tasks; a failure there leaves that collection empty and is listed in
// Unavailable without affecting its siblings.
func (l *Loader) Load(ctx context.Context, week models.WeekWindow) Envelope {
	loc := l.location()
	fallback := func(cause error) Envelope {
		env := l.emptyEnvelope(week)
		if ds, err := l.mockFunc()(week, loc); err == nil {
			env = fromDataset(ds, week, constants.SourceMock)
		}
		if l.Store != nil {
			env.Err = cause
		}
		return env
	}

	ws := FetchWithFallback(ctx, "workspace", l.workspace,
		nil,
		func() models.Workspace { return models.Workspace{} },
		nil, l.Retry...)
	if ws.Source != constants.SourceStore {
		return fallback(ws.Err)
	}
	wsID := ws.Value.ID
	days := week.Days(loc)
	from, to := days[0], days[len(days)-1]

	var (
		wg       sync.WaitGroup
		tasks    Fetched[[]models.Task]
		habits   Fetched[[]models.Habit]
		journal  Fetched[[]models.JournalEntry]
		projects Fetched[[]models.Project]
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		tasks = FetchWithFallback(ctx, "tasks",
			func(ctx context.Context) ([]models.Task, error) {
				return l.Store.ListTasks(ctx, wsID, storage.TaskQuery{})
			},
			nil,
			func() []models.Task { return []models.Task{} },
			func(ts []models.Task) bool { return len(ts) == 0 },
			l.Retry...)
	}()
	go func() {
		defer wg.Done()
		habits = FetchWithFallback(ctx, "habits",
			func(ctx context.Context) ([]models.Habit, error) {
				return l.Store.ListHabits(ctx, wsID, from, to)
			},
			nil,
			func() []models.Habit { return []models.Habit{} },
			nil, l.Retry...)
	}()
	go func() {
		defer wg.Done()
		journal = FetchWithFallback(ctx, "journal",
			func(ctx context.Context) ([]models.JournalEntry, error) {
				return l.Store.ListJournal(ctx, wsID, from, to)
			},
			nil,
			func() []models.JournalEntry { return []models.JournalEntry{} },
			nil, l.Retry...)
	}()
	go func() {
		defer wg.Done()
		projects = FetchWithFallback(ctx, "projects",
			func(ctx context.Context) ([]models.Project, error) {
				return l.Store.ListProjects(ctx, wsID)
			},
			nil,
			func() []models.Project { return []models.Project{} },
			nil, l.Retry...)
	}()
	wg.Wait()

	if tasks.Source != constants.SourceStore {
		return fallback(tasks.Err)
	}

	env := fromDataset(storage.Dataset{
		Workspace: ws.Value,
		Tasks:     tasks.Value,
		Habits:    habits.Value,
		Journal:   journal.Value,
		Projects:  projects.Value,
	}, week, constants.SourceStore)
	for name, src := range map[string]constants.Source{
		"habits":   habits.Source,
		"journal":  journal.Source,
		"projects": projects.Source,
	} {
		if src != constants.SourceStore {
			env.Unavailable = append(env.Unavailable, name)
		}
	}
	sort.Strings(env.Unavailable)
	return env
}
