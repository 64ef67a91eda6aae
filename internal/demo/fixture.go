package demo

import (
	"embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/utils"
)

const fixtureVersionV1 = 1

//go:embed fixtures/mock.v1.json
var embeddedFixtures embed.FS

// Positions in the fixture are day offsets from the week's Monday plus a
// local HH:MM, so the mock always renders a populated current week.
type fixtureV1 struct {
	Version   int              `json:"version"`
	Workspace models.Workspace `json:"workspace"`
	Projects  []models.Project `json:"projects"`
	Tasks     []struct {
		ID            string `json:"id"`
		Name          string `json:"name"`
		Status        string `json:"status"`
		Priority      string `json:"priority"`
		EstimateMin   int    `json:"estimateMin"`
		Context       string `json:"context"`
		Project       string `json:"project"`
		Day           *int   `json:"day"`
		Start         string `json:"start"`
		End           string `json:"end"`
		DueDay        *int   `json:"dueDay"`
		DueTime       string `json:"dueTime"`
		CreatedDay    int    `json:"createdDay"`
		CompletedDay  *int   `json:"completedDay"`
		CompletedTime string `json:"completedTime"`
	} `json:"tasks"`
	Habits []struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		TargetDays  int    `json:"targetDays"`
		CheckedDays []int  `json:"checkedDays"`
	} `json:"habits"`
	Journal []struct {
		ID   string `json:"id"`
		Day  int    `json:"day"`
		Mood string `json:"mood"`
		Body string `json:"body"`
	} `json:"journal"`
}

type placer struct {
	monday time.Time
	loc    *time.Location
}

func (p placer) date(offset int) string {
	return p.monday.AddDate(0, 0, offset).Format(constants.DateFormat)
}

func (p placer) at(offset int, hhmm string) (time.Time, error) {
	t, err := utils.CombineDateAndTime(p.date(offset), hhmm, p.loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func (p placer) optAt(offset *int, hhmm string) (*time.Time, error) {
	if offset == nil || hhmm == "" {
		return nil, nil
	}
	t, err := p.at(*offset, hhmm)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadFixture reads the embedded mock dataset and positions it in week.
func LoadFixture(week models.WeekWindow, loc *time.Location) (storage.Dataset, error) {
	data, err := embeddedFixtures.ReadFile("fixtures/mock.v1.json")
	if err != nil {
		return storage.Dataset{}, fmt.Errorf("read embedded demo fixture: %w", err)
	}
	var fx fixtureV1
	if err := json.Unmarshal(data, &fx); err != nil {
		return storage.Dataset{}, fmt.Errorf("parse embedded demo fixture: %w", err)
	}
	if fx.Version != fixtureVersionV1 {
		return storage.Dataset{}, fmt.Errorf("unsupported demo fixture version %d", fx.Version)
	}
	return fx.place(week, loc)
}

func (fx fixtureV1) place(week models.WeekWindow, loc *time.Location) (storage.Dataset, error) {
	p := placer{monday: week.Start.In(loc), loc: loc}
	wsID := fx.Workspace.ID

	created, err := p.at(-14, "09:00")
	if err != nil {
		return storage.Dataset{}, err
	}
	ds := storage.Dataset{Workspace: fx.Workspace}
	ds.Workspace.CreatedAt = created

	for _, pr := range fx.Projects {
		pr.WorkspaceID = wsID
		ds.Projects = append(ds.Projects, pr)
	}

	for _, ft := range fx.Tasks {
		t := models.Task{
			ID:             ft.ID,
			WorkspaceID:    wsID,
			Name:           ft.Name,
			Status:         models.ParseStatus(ft.Status),
			PriorityMatrix: ft.Priority,
			EstimateMin:    ft.EstimateMin,
			Context:        ft.Context,
			Project:        ft.Project,
		}
		for _, pr := range fx.Projects {
			if pr.Name == ft.Project {
				t.Area = pr.Area
			}
		}
		if t.CreatedAt, err = p.at(ft.CreatedDay, "09:00"); err != nil {
			return storage.Dataset{}, fmt.Errorf("fixture task %s: %w", ft.ID, err)
		}
		if t.Start, err = p.optAt(ft.Day, ft.Start); err != nil {
			return storage.Dataset{}, fmt.Errorf("fixture task %s: %w", ft.ID, err)
		}
		if t.End, err = p.optAt(ft.Day, ft.End); err != nil {
			return storage.Dataset{}, fmt.Errorf("fixture task %s: %w", ft.ID, err)
		}
		if t.Due, err = p.optAt(ft.DueDay, ft.DueTime); err != nil {
			return storage.Dataset{}, fmt.Errorf("fixture task %s: %w", ft.ID, err)
		}
		if t.CompletedAt, err = p.optAt(ft.CompletedDay, ft.CompletedTime); err != nil {
			return storage.Dataset{}, fmt.Errorf("fixture task %s: %w", ft.ID, err)
		}
		ds.Tasks = append(ds.Tasks, t)
	}

	for _, fh := range fx.Habits {
		h := models.Habit{
			ID:          fh.ID,
			WorkspaceID: wsID,
			Name:        fh.Name,
			TargetDays:  fh.TargetDays,
			CreatedAt:   created,
		}
		for _, d := range fh.CheckedDays {
			h.Checks = append(h.Checks, models.HabitCheck{HabitID: fh.ID, Day: p.date(d)})
		}
		ds.Habits = append(ds.Habits, h)
	}

	for i := len(fx.Journal) - 1; i >= 0; i-- {
		fj := fx.Journal[i]
		at, err := p.at(fj.Day, "21:00")
		if err != nil {
			return storage.Dataset{}, err
		}
		ds.Journal = append(ds.Journal, models.JournalEntry{
			ID:          fj.ID,
			WorkspaceID: wsID,
			Day:         p.date(fj.Day),
			Mood:        fj.Mood,
			Body:        fj.Body,
			CreatedAt:   at,
		})
	}

	return ds, nil
}
