package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/demo"
	"github.com/flowstate/flowstate/internal/logger"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/utils"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages in navigation order.
var pageNames = []string{"overview", "tasks", "habits", "journal", "review", "agenda", "settings"}

// maxWeekOffset bounds ?week= so a typo cannot compute a window decades out.
const maxWeekOffset = 52

type pageSet struct {
	pages       map[string]*template.Template
	unavailable *template.Template
}

var funcs = template.FuncMap{
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"percent": func(f float64) string { return strconv.Itoa(int(f*100+0.5)) + "%" },
	"hours":   func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) + "h" },
	"status": func(s models.TaskStatus) string {
		return strings.ReplaceAll(string(s), "_", " ")
	},
}

func parsePages() (pageSet, error) {
	set := pageSet{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return pageSet{}, fmt.Errorf("page %s: %w", name, err)
		}
		set.pages[name] = t
	}
	u, err := template.New("unavailable.html").Funcs(funcs).ParseFS(templateFS, "templates/unavailable.html")
	if err != nil {
		return pageSet{}, fmt.Errorf("unavailable page: %w", err)
	}
	set.unavailable = u
	return set, nil
}

type settingsView struct {
	Timezone       string
	WorkHours      string
	MorningHours   string
	Granularity    time.Duration
	MaxSlots       int
	Strategies     []constants.Strategy
	DefaultPerDay  int
	RetryAttempts  int
	RetryBaseDelay time.Duration
}

type pageData struct {
	Page       string
	Pages      []string
	Env        demo.Envelope
	Loc        *time.Location
	WeekOffset int
	AppPath    string

	Overview demo.Overview
	Review   demo.Review
	Agenda   []demo.AgendaDay
	Tasks    []models.Task
	Filter   models.TaskFilter
	Contexts []string
	Statuses []models.TaskStatus
	Settings settingsView
}

// WeekLabel is the local date range of the window, e.g. "08 Sep - 14 Sep 2025".
func (p pageData) WeekLabel() string {
	start, end := p.Env.Week.Start.In(p.Loc), p.Env.Week.End.In(p.Loc)
	return start.Format("02 Jan") + " - " + end.Format("02 Jan 2006")
}

func (p pageData) PrevWeek() int { return p.WeekOffset - 1 }
func (p pageData) NextWeek() int { return p.WeekOffset + 1 }

// When formats an optional instant in the page zone.
func (p pageData) When(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.In(p.Loc).Format("Mon 02 Jan 15:04")
}

func (p pageData) Clock(t time.Time) string {
	return t.In(p.Loc).Format(constants.TimeFormat)
}

func (p pageData) Overdue(t models.Task) bool {
	return t.IsOverdue(p.Env.Week.ZonedNow)
}

func parseWeekOffset(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil {
		return 0
	}
	return max(-maxWeekOffset, min(maxWeekOffset, n))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("page")
	tmpl, ok := s.pages.pages[name]
	if !ok {
		http.NotFound(w, r)
		return
	}

	loc := s.sched.Location()
	offset := parseWeekOffset(r)
	week := utils.ComputeWeekWindowOffset(s.sched.Now(), loc, offset*7)
	env := s.loader.Load(r.Context(), week)

	data, err := s.buildPage(name, r, env, loc, offset)
	if err != nil {
		s.renderUnavailable(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		s.renderUnavailable(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) buildPage(name string, r *http.Request, env demo.Envelope, loc *time.Location, offset int) (data pageData, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("building %s page: %v", name, v)
		}
	}()

	data = pageData{
		Page:       name,
		Pages:      pageNames,
		Env:        env,
		Loc:        loc,
		WeekOffset: offset,
		AppPath:    s.opts.InteractivePath,
	}

	switch name {
	case "overview":
		data.Overview = s.loader.Overview(r.Context(), env, loc)
	case "tasks":
		q := r.URL.Query()
		data.Filter = models.TaskFilter{
			Context: q.Get("context"),
			Query:   q.Get("q"),
		}
		if st := q.Get("status"); st != "" {
			data.Filter.Status = models.ParseStatus(st)
		}
		data.Tasks = models.FilterTasks(env.Tasks, data.Filter)
		models.SortForScheduling(data.Tasks, env.Week.ZonedNow)
		data.Contexts = models.Contexts(env.Tasks)
		data.Statuses = []models.TaskStatus{models.StatusNotStarted, models.StatusInProgress, models.StatusDone}
	case "habits", "review":
		data.Review = demo.BuildReview(env, loc)
	case "journal":
	case "agenda":
		data.Agenda = demo.BuildAgenda(env.Tasks, env.Week, loc)
	case "settings":
		data.Settings = s.settings()
	}
	return data, nil
}

func (s *Server) settings() settingsView {
	cfg := s.sched.Config()
	hhmm := func(m int) string { return fmt.Sprintf("%02d:%02d", m/60, m%60) }
	opts := s.loader.RetryOptions()
	return settingsView{
		Timezone:       cfg.Location.String(),
		WorkHours:      hhmm(cfg.WorkStartMin) + "-" + hhmm(cfg.WorkEndMin),
		MorningHours:   hhmm(cfg.MorningStartMin) + "-" + hhmm(cfg.MorningEndMin),
		Granularity:    cfg.Granularity,
		MaxSlots:       cfg.MaxSlots,
		Strategies:     constants.Strategies,
		DefaultPerDay:  constants.DefaultMaxSlotsPerDay,
		RetryAttempts:  opts.Attempts,
		RetryBaseDelay: opts.BaseDelay,
	}
}

// renderUnavailable replaces a failed page with a notice linking to the
// interactive app. It never fails itself.
func (s *Server) renderUnavailable(w http.ResponseWriter, r *http.Request, cause error) {
	logger.Error("Demo page unavailable", "path", r.URL.Path, "id", RequestID(r.Context()), "error", cause)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	if err := s.pages.unavailable.Execute(w, map[string]string{"AppPath": s.opts.InteractivePath}); err != nil {
		fmt.Fprintf(w, `<p>This page is temporarily unavailable. <a href="%s">Open FlowState</a></p>`,
			template.HTMLEscapeString(s.opts.InteractivePath))
	}
}
