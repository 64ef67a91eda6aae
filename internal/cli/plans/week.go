package plans

import (
	"context"
	"encoding/json"
	"time"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/demo"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/utils"
)

// WeekCmd prints the week window around a reference day and what is
// scheduled inside it.
type WeekCmd struct {
	At     string `help:"Reference day (YYYY-MM-DD or RFC 3339). Defaults to now."`
	Offset int    `help:"Whole weeks to move from the reference day." default:"0"`
	JSON   bool   `help:"Print the summary as JSON."`
}

type weekSummary struct {
	Window    models.WeekWindow   `json:"window"`
	Source    constants.Source    `json:"source"`
	Scheduled models.HoursSummary `json:"scheduled"`
	Open      int                 `json:"open"`
	Completed int                 `json:"completed"`
}

func (cmd *WeekCmd) Run(ctx *cli.Context) error {
	ref := ctx.Scheduler.Now()
	if cmd.At != "" {
		t, err := cli.ParseDay(cmd.At, ctx.Location)
		if err != nil {
			return err
		}
		ref = t
	}
	week := utils.ComputeWeekWindowOffset(ref, ctx.Location, cmd.Offset*7)

	bg := context.Background()
	store, err := ctx.OptionalStore(bg)
	if err != nil {
		return err
	}
	defer ctx.Close()

	env := ctx.Loader(store).Load(bg, week)
	review := demo.BuildReview(env, ctx.Location)
	sum := weekSummary{
		Window:    week,
		Source:    env.Source,
		Scheduled: review.Scheduled,
		Open:      review.Open,
		Completed: len(review.Completed),
	}

	if cmd.JSON {
		enc := json.NewEncoder(ctx.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	loc := ctx.Location
	ctx.Println(cli.HeaderStyle.Render("Week " + week.Start.In(loc).Format("02 Jan") + " - " + week.End.In(loc).Format("02 Jan 2006")))
	ctx.Printf("%s %s\n", cli.TimeStyle.Render("Start (UTC)"), week.Start.UTC().Format(time.RFC3339))
	ctx.Printf("%s %s\n", cli.TimeStyle.Render("End (UTC)"), week.End.UTC().Format(time.RFC3339Nano))
	ctx.Printf("%s %s\n", cli.TimeStyle.Render("Zone"), loc.String())
	ctx.Println()
	ctx.Printf("%s %.1fh in %d blocks\n", cli.TimeStyle.Render("Scheduled"), sum.Scheduled.Hours, sum.Scheduled.Count)
	ctx.Printf("%s %d\n", cli.TimeStyle.Render("Open tasks"), sum.Open)
	ctx.Printf("%s %d\n", cli.TimeStyle.Render("Completed"), sum.Completed)
	if env.Simulated() {
		ctx.Println(cli.MutedStyle.Render("Figures come from " + string(env.Source) + " data."))
	}
	return nil
}
