package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/utils"
)

// Interval is an existing commitment candidates must not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// BusyFromTasks collects the scheduled intervals of tasks.
func BusyFromTasks(tasks []models.Task) []Interval {
	var out []Interval
	for _, t := range tasks {
		if t.IsScheduled() {
			out = append(out, Interval{Start: *t.Start, End: *t.End})
		}
	}
	return out
}

type dayWindow struct {
	day      time.Time
	startMin int
	endMin   int
}

// days lists the local days and hour ranges a strategy may use.
func (s *Scheduler) days(strategy constants.Strategy, week models.WeekWindow) []dayWindow {
	monday := week.Start.In(s.cfg.Location)

	count := 5
	startMin, endMin := s.cfg.WorkStartMin, s.cfg.WorkEndMin
	switch strategy {
	case constants.StrategyFrontload:
		count = constants.FrontloadDays
	case constants.StrategyMornings:
		count = 7
		startMin, endMin = s.cfg.MorningStartMin, s.cfg.MorningEndMin
	}

	out := make([]dayWindow, 0, count)
	for i := 0; i < count; i++ {
		day := time.Date(monday.Year(), monday.Month(), monday.Day()+i, 0, 0, 0, 0, s.cfg.Location)
		out = append(out, dayWindow{day: day, startMin: startMin, endMin: endMin})
	}
	return out
}

// ProposeSlots returns up to MaxSlots candidate slots for task in week.
// Candidates step by the configured granularity, skip instants before now,
// and are capped at maxSlotsPerDay per local day (earliest kept). The list
// is ordered by rank, then chronologically. Output is deterministic for a
// fixed clock.
func (s *Scheduler) ProposeSlots(task models.Task, strategy constants.Strategy, maxSlotsPerDay int, week models.WeekWindow) []models.ProposedSlot {
	return s.proposeSlots(task, strategy, maxSlotsPerDay, week, nil)
}

func (s *Scheduler) proposeSlots(task models.Task, strategy constants.Strategy, maxSlotsPerDay int, week models.WeekWindow, busy []Interval) []models.ProposedSlot {
	estimate := task.EstimateMin
	if estimate <= 0 {
		estimate = constants.DefaultEstimateMin
	}
	duration := time.Duration(estimate) * time.Minute
	perDayCap := ClampSlotsPerDay(maxSlotsPerDay)

	tier := task.Priority()
	rank := constants.RankOtherPriority
	if tier == models.PriorityHigh {
		rank = constants.RankHighPriority
	}

	now := s.cfg.Clock.Now()
	step := int(s.cfg.Granularity / time.Minute)
	if step <= 0 {
		step = 30
	}

	var candidates []models.ProposedSlot
	for _, dw := range s.days(strategy, week) {
		perDay := 0
		for m := dw.startMin; m+estimate <= dw.endMin && perDay < perDayCap; m += step {
			start := utils.AtMinutes(dw.day, m, s.cfg.Location)
			end := start.Add(duration)
			if start.Before(now) || !week.Contains(start) {
				continue
			}
			if overlapsAny(start, end, busy) {
				continue
			}
			candidates = append(candidates, models.ProposedSlot{
				Start:     start.UTC(),
				End:       end.UTC(),
				Rank:      rank,
				Rationale: rationale(strategy, start, end, tier),
			})
			perDay++
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Rank != candidates[j].Rank {
			return candidates[i].Rank < candidates[j].Rank
		}
		return candidates[i].Start.Before(candidates[j].Start)
	})

	if len(candidates) > s.cfg.MaxSlots {
		candidates = candidates[:s.cfg.MaxSlots]
	}
	return candidates
}

func overlapsAny(start, end time.Time, busy []Interval) bool {
	for _, b := range busy {
		if utils.Overlaps(start, end, b.Start, b.End) {
			return true
		}
	}
	return false
}

func rationale(strategy constants.Strategy, start, end time.Time, tier models.PriorityTier) string {
	zone, _ := start.Zone()
	return fmt.Sprintf("%s: %s %s-%s %s, %s priority",
		strategy,
		start.Format("Mon"),
		start.Format(constants.TimeFormat),
		end.Format(constants.TimeFormat),
		zone,
		strings.ToLower(string(tier)),
	)
}
