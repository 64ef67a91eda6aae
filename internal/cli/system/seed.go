package system

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/demo"
	"github.com/flowstate/flowstate/internal/models"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/utils"
	"github.com/flowstate/flowstate/internal/validation"
)

// SeedCmd loads the demo fixture, positioned in the current week, into the
// configured store.
type SeedCmd struct {
	Offset    int    `help:"Whole weeks to shift the fixture by." default:"0"`
	Workspace string `help:"Seed under this workspace slug with freshly generated ids."`
}

func (cmd *SeedCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	store, err := ctx.Store()
	if err != nil {
		return err
	}
	defer ctx.Close()

	ctx.Snapshot(bg, store)
	if err := store.Init(bg); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	week := utils.WeekWindowNow(ctx.Scheduler.Now, ctx.Location, cmd.Offset*7)
	ds, err := demo.LoadFixture(week, ctx.Location)
	if err != nil {
		return err
	}
	if cmd.Workspace != "" && cmd.Workspace != ds.Workspace.Slug {
		ds = Rekey(ds, cmd.Workspace)
	}

	result := validation.New().ValidateTasks(ds.Tasks)
	if err := result.Err(); err != nil {
		ctx.Print(result.FormatReport())
		return fmt.Errorf("fixture failed validation: %w", err)
	}
	if result.HasConflicts() {
		ctx.Print(result.FormatReport())
	}

	if err := store.Seed(bg, ds); err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	ctx.Printf("✓ Seeded workspace %q: %d projects, %d tasks, %d habits, %d journal entries\n",
		ds.Workspace.Slug, len(ds.Projects), len(ds.Tasks), len(ds.Habits), len(ds.Journal))
	return nil
}

// Rekey moves ds under a new slug, replacing every id so the copy cannot
// collide with an existing seed.
func Rekey(ds storage.Dataset, slug string) storage.Dataset {
	out := storage.Dataset{Workspace: ds.Workspace}
	out.Workspace.ID = uuid.NewString()
	out.Workspace.Slug = slug

	for _, p := range ds.Projects {
		p.ID = uuid.NewString()
		p.WorkspaceID = out.Workspace.ID
		out.Projects = append(out.Projects, p)
	}
	for _, t := range ds.Tasks {
		t.ID = uuid.NewString()
		t.WorkspaceID = out.Workspace.ID
		out.Tasks = append(out.Tasks, t)
	}
	for _, h := range ds.Habits {
		id := uuid.NewString()
		checks := make([]models.HabitCheck, len(h.Checks))
		for i, c := range h.Checks {
			c.HabitID = id
			checks[i] = c
		}
		h.ID = id
		h.WorkspaceID = out.Workspace.ID
		h.Checks = checks
		out.Habits = append(out.Habits, h)
	}
	for _, j := range ds.Journal {
		j.ID = uuid.NewString()
		j.WorkspaceID = out.Workspace.ID
		out.Journal = append(out.Journal, j)
	}
	return out
}
