package demo

import (
	"context"
	"sync"

	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/retry"
	"github.com/flowstate/flowstate/internal/storage"
)

type CollectionHealth struct {
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

type Health struct {
	OK          bool                        `json:"ok"`
	Store       string                      `json:"store"`
	Collections map[string]CollectionHealth `json:"collections"`
}

// Health probes each collection independently; one failing collection
// does not hide the state of the others.
func (l *Loader) Health(ctx context.Context, week models.WeekWindow) Health {
	h := Health{Store: "none", Collections: map[string]CollectionHealth{}}
	if l.Store == nil {
		h.Collections["workspace"] = CollectionHealth{Error: ErrNoStore.Error()}
		return h
	}
	h.Store = l.Store.Name()

	ws, err := retry.Value(ctx, l.workspace, l.Retry...)
	if err != nil {
		h.Collections["workspace"] = CollectionHealth{Error: err.Error()}
		return h
	}
	h.Collections["workspace"] = CollectionHealth{OK: true, Count: 1}

	days := week.Days(l.location())
	from, to := days[0], days[len(days)-1]
	probes := map[string]func(ctx context.Context) (int, error){
		"tasks": func(ctx context.Context) (int, error) {
			return l.Store.CountTasks(ctx, ws.ID, storage.TaskQuery{})
		},
		"habits": func(ctx context.Context) (int, error) {
			hs, err := l.Store.ListHabits(ctx, ws.ID, from, to)
			return len(hs), err
		},
		"journal": func(ctx context.Context) (int, error) {
			js, err := l.Store.ListJournal(ctx, ws.ID, from, to)
			return len(js), err
		},
		"projects": func(ctx context.Context) (int, error) {
			ps, err := l.Store.ListProjects(ctx, ws.ID)
			return len(ps), err
		},
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, probe := range probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := retry.Value(ctx, probe, l.Retry...)
			c := CollectionHealth{OK: err == nil, Count: n}
			if err != nil {
				c.Error = err.Error()
			}
			mu.Lock()
			h.Collections[name] = c
			mu.Unlock()
		}()
	}
	wg.Wait()

	h.OK = true
	for _, c := range h.Collections {
		h.OK = h.OK && c.OK
	}
	return h
}
