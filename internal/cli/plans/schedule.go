package plans

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/demo"
	"github.com/flowstate/flowstate/internal/scheduler"
)

type ScheduleCmd struct {
	Strategy  string `help:"Placement strategy: balanced, frontload or mornings." default:"balanced"`
	MaxPerDay int    `help:"Maximum blocks placed on one day (0 uses the default)." default:"0"`
	DryRun    bool   `help:"Propose slots without writing them back."`
	JSON      bool   `help:"Print the run as JSON."`
}

func (cmd *ScheduleCmd) Run(ctx *cli.Context) error {
	strategy, err := scheduler.ParseStrategy(cmd.Strategy)
	if err != nil {
		return err
	}
	if cmd.MaxPerDay < 0 {
		return fmt.Errorf("--max-per-day must not be negative")
	}

	bg := context.Background()
	store, err := ctx.OptionalStore(bg)
	if err != nil {
		return err
	}
	defer ctx.Close()

	loader := ctx.Loader(store)
	run, runErr := loader.Schedule(bg, ctx.Scheduler, demo.ScheduleRequest{
		Strategy:       strategy,
		MaxSlotsPerDay: cmd.MaxPerDay,
		DryRun:         cmd.DryRun,
	})

	if cmd.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			return err
		}
		return runErr
	}

	printRun(ctx, run)
	return runErr
}

func printRun(ctx *cli.Context, run demo.ScheduleRun) {
	loc := ctx.Location
	ctx.Println(cli.HeaderStyle.Render(fmt.Sprintf("Week of %s (%s, up to %d per day)",
		run.Week.Start.In(loc).Format("Mon 02 Jan 2006"), run.Strategy, run.MaxSlotsPerDay)))
	if run.DryRun {
		ctx.Println(cli.MutedStyle.Render(fmt.Sprintf("Dry run over %s data; nothing was written.", run.Source)))
	}
	ctx.Println()

	if len(run.Result.Scheduled) == 0 {
		ctx.Println("No tasks were placed.")
	}
	for _, a := range run.Result.Scheduled {
		ctx.Printf("%s %s\n", cli.TimeStyle.Render(cli.FormatRange(a.Start, a.End, loc)), cli.TaskStyle.Render(a.TaskID))
	}
	for _, s := range run.Result.Skipped {
		ctx.Printf("%s %s\n", cli.WarningStyle.Render("skipped"), cli.MutedStyle.Render(s.TaskID+": "+s.Reason))
	}
	for _, f := range run.Result.Failed {
		ctx.Printf("%s %s\n", cli.DangerStyle.Render("failed "), f.TaskID+": "+f.Error)
	}

	ctx.Println()
	ctx.Printf("%d scheduled, %d skipped, %d failed\n",
		len(run.Result.Scheduled), len(run.Result.Skipped), len(run.Result.Failed))
}
