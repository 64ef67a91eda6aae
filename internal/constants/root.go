package constants

import "time"

// Strategy selects how the slot proposer walks the target week
type Strategy string

// Source records where a demo envelope's data came from
type Source string

const (
	AppName            = "flowstate"
	DefaultKeyringUser = "service-key"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DefaultTimezone is the zone all week boundaries are computed in.
	// Asia/Kolkata has no DST; the calculator does not rely on that.
	DefaultTimezone = "Asia/Kolkata"

	// Environment keys
	EnvStoreURL        = "FLOWSTATE_STORE_URL"
	EnvServiceKey      = "FLOWSTATE_SERVICE_KEY"
	EnvTimezone        = "FLOWSTATE_TIMEZONE"
	EnvDemoWorkspace   = "FLOWSTATE_DEMO_WORKSPACE"
	EnvWorkStart       = "FLOWSTATE_WORK_START"
	EnvWorkEnd         = "FLOWSTATE_WORK_END"
	EnvMorningStart    = "FLOWSTATE_MORNING_START"
	EnvMorningEnd      = "FLOWSTATE_MORNING_END"
	EnvRetryAttempts   = "FLOWSTATE_RETRY_ATTEMPTS"
	EnvRetryBaseDelay  = "FLOWSTATE_RETRY_BASE_DELAY"
	EnvListenAddr      = "FLOWSTATE_ADDR"
	EnvAllowedOrigins  = "FLOWSTATE_ALLOWED_ORIGINS"
	EnvInteractivePath = "FLOWSTATE_APP_PATH"

	DefaultDemoWorkspace   = "demo"
	DefaultListenAddr      = ":8080"
	DefaultInteractivePath = "/app"

	// Scheduling windows (local wall clock)
	DefaultWorkStart    = "09:00"
	DefaultWorkEnd      = "18:00"
	DefaultMorningStart = "07:00"
	DefaultMorningEnd   = "12:00"

	// SlotGranularity is the step between candidate start times.
	SlotGranularity = 30 * time.Minute
	// MaxProposedSlots caps how many candidates the proposer returns per task.
	// The assignment step only ever sees this many options, so a task whose
	// top candidates are all claimed is skipped even if later slots are free.
	MaxProposedSlots = 5
	// FrontloadDays is how many leading weekdays the frontload strategy uses.
	FrontloadDays         = 3
	DefaultMaxSlotsPerDay = 3
	MaxSlotsPerDayLimit   = 48
	DefaultEstimateMin    = 30

	// Slot ranks; lower sorts first
	RankHighPriority  = 1
	RankOtherPriority = 2

	// Retry policy
	RetryAttempts      = 3
	RetryBaseDelay     = 200 * time.Millisecond
	RetryMaxJitter     = 100 * time.Millisecond
	RetryMaxTotalDelay = 3 * time.Second

	// Scheduling strategies
	StrategyBalanced  Strategy = "balanced"
	StrategyFrontload Strategy = "frontload"
	StrategyMornings  Strategy = "mornings"

	// Envelope sources
	SourceStore Source = "store"
	SourceMock  Source = "mock"
	SourceEmpty Source = "empty"

	// Skip reasons
	ReasonNoSlots = "No available time slots"
)

// Strategies lists the accepted strategy names in display order.
var Strategies = []Strategy{StrategyBalanced, StrategyFrontload, StrategyMornings}
