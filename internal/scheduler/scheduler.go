package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/utils"
)

// Config holds the scheduling windows and policy constants.
type Config struct {
	Location *time.Location

	// Windows are minutes from local midnight, [start, end).
	WorkStartMin    int
	WorkEndMin      int
	MorningStartMin int
	MorningEndMin   int

	Granularity time.Duration
	MaxSlots    int
	Clock       utils.Clock
}

type Scheduler struct {
	cfg Config
}

// New returns a scheduler, filling unset fields from constants.
func New(cfg Config) *Scheduler {
	if cfg.Location == nil {
		cfg.Location, _ = utils.LoadLocation(constants.DefaultTimezone)
		if cfg.Location == nil {
			cfg.Location = time.UTC
		}
	}
	if cfg.WorkEndMin <= cfg.WorkStartMin {
		cfg.WorkStartMin = mustMinutes(constants.DefaultWorkStart)
		cfg.WorkEndMin = mustMinutes(constants.DefaultWorkEnd)
	}
	if cfg.MorningEndMin <= cfg.MorningStartMin {
		cfg.MorningStartMin = mustMinutes(constants.DefaultMorningStart)
		cfg.MorningEndMin = mustMinutes(constants.DefaultMorningEnd)
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = constants.SlotGranularity
	}
	if cfg.MaxSlots <= 0 {
		cfg.MaxSlots = constants.MaxProposedSlots
	}
	if cfg.Clock == nil {
		cfg.Clock = utils.SystemClock
	}
	return &Scheduler{cfg: cfg}
}

// NewFromSettings parses HH:MM window bounds and builds a scheduler.
func NewFromSettings(loc *time.Location, workStart, workEnd, morningStart, morningEnd string, clock utils.Clock) (*Scheduler, error) {
	parse := func(label, v string) (int, error) {
		m, err := utils.ParseTimeToMinutes(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", label, v, err)
		}
		return m, nil
	}

	ws, err := parse("work start", workStart)
	if err != nil {
		return nil, err
	}
	we, err := parse("work end", workEnd)
	if err != nil {
		return nil, err
	}
	ms, err := parse("morning start", morningStart)
	if err != nil {
		return nil, err
	}
	me, err := parse("morning end", morningEnd)
	if err != nil {
		return nil, err
	}
	if we <= ws {
		return nil, fmt.Errorf("work end %s must be after work start %s", workEnd, workStart)
	}
	if me <= ms {
		return nil, fmt.Errorf("morning end %s must be after morning start %s", morningEnd, morningStart)
	}

	return New(Config{
		Location:        loc,
		WorkStartMin:    ws,
		WorkEndMin:      we,
		MorningStartMin: ms,
		MorningEndMin:   me,
		Clock:           clock,
	}), nil
}

// Location returns the zone slots are laid out in.
func (s *Scheduler) Location() *time.Location {
	return s.cfg.Location
}

// Config returns the effective configuration after defaults.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Now returns the scheduler clock's current instant.
func (s *Scheduler) Now() time.Time {
	return s.cfg.Clock.Now()
}

// ParseStrategy validates a strategy name. Empty selects balanced.
func ParseStrategy(value string) (constants.Strategy, error) {
	v := constants.Strategy(strings.ToLower(strings.TrimSpace(value)))
	if v == "" {
		return constants.StrategyBalanced, nil
	}
	for _, s := range constants.Strategies {
		if v == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid strategy %q (valid: balanced, frontload, mornings)", value)
}

// ClampSlotsPerDay maps non-positive values to the default and caps large ones.
func ClampSlotsPerDay(n int) int {
	if n <= 0 {
		return constants.DefaultMaxSlotsPerDay
	}
	if n > constants.MaxSlotsPerDayLimit {
		return constants.MaxSlotsPerDayLimit
	}
	return n
}

func mustMinutes(hhmm string) int {
	m, err := utils.ParseTimeToMinutes(hhmm)
	if err != nil {
		panic(fmt.Sprintf("invalid default time %q: %v", hhmm, err))
	}
	return m
}
