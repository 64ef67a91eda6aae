package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	// The week window is always computed in a named zone; embed the
	// database so slim containers without /usr/share/zoneinfo still work.
	_ "time/tzdata"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/cli/plans"
	"github.com/flowstate/flowstate/internal/cli/system"
	"github.com/flowstate/flowstate/internal/config"
	"github.com/flowstate/flowstate/internal/constants"
	ferrors "github.com/flowstate/flowstate/internal/errors"
	"github.com/flowstate/flowstate/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Store    string `help:"Store URL or SQLite path (overrides FLOWSTATE_STORE_URL). Postgres URLs must not embed a password." type:"string"`
	Timezone string `help:"IANA zone for week boundaries (overrides FLOWSTATE_TIMEZONE)."`
	Debug    bool   `help:"Enable debug logging."`
	LogDir   string `help:"Also write rotating logs under this directory." type:"path"`
	JSONLogs bool   `help:"Emit logs as JSON."`

	Serve    system.ServeCmd   `cmd:"" help:"Serve the demo pages and scheduling API." default:"1"`
	Schedule plans.ScheduleCmd `cmd:"" help:"Place unscheduled tasks into the current week."`
	Week     plans.WeekCmd     `cmd:"" help:"Show a week window and its scheduled hours."`
	Doctor   system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Migrate  system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Seed     system.SeedCmd    `cmd:"" help:"Load the demo dataset into the store."`
	Key      struct {
		Set    system.KeySetCmd    `cmd:"" help:"Store the service key in the OS keyring."`
		Delete system.KeyDeleteCmd `cmd:"" help:"Remove the service key from the OS keyring."`
		Status system.KeyStatusCmd `cmd:"" help:"Report whether a service key is stored." default:"1"`
	} `cmd:"" help:"Manage the data-store service key."`
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Weekly time-blocking scheduler and demo server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{"version": constants.Version},
	)

	if err := logger.Init(logger.Config{Debug: CLI.Debug, LogDir: CLI.LogDir, JSON: CLI.JSONLogs}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	cfg := config.Load()
	if CLI.Store != "" {
		cfg.StoreURL = CLI.Store
	}
	if CLI.Timezone != "" {
		cfg.Timezone = CLI.Timezone
	}

	appCtx, err := cli.NewContext(cfg)
	if err != nil {
		ferrors.Fatal(err)
	}

	ferrors.Fatal(kctx.Run(appCtx))
}
