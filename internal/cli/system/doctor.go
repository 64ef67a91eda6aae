package system

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/utils"
	"github.com/flowstate/flowstate/internal/validation"
)

type DoctorCmd struct {
	Timeout time.Duration `help:"Overall time limit for store checks." default:"15s"`
}

type checker struct {
	ctx      *cli.Context
	hasError bool
}

func (c *checker) report(name string, err error) bool {
	if err != nil {
		c.ctx.Printf("❌ %s: FAIL\n", name)
		c.ctx.Printf("   Error: %v\n", err)
		c.hasError = true
		return false
	}
	c.ctx.Printf("✓ %s: OK\n", name)
	return true
}

func (c *checker) skip(name, reason string) {
	c.ctx.Printf("⊘ %s: SKIPPED (%s)\n", name, reason)
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	bg, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()
	c := &checker{ctx: ctx}

	// Check 1: configuration (already validated when the context was built)
	c.report("Configuration", ctx.Config.Validate())

	// Check 2: week window sanity in the configured zone
	week := utils.ComputeWeekWindow(ctx.Scheduler.Now(), ctx.Location)
	c.report("Clock/timezone", checkWeekWindow(week.Start, week.End, ctx.Location))

	// Check 3: store configured
	store, err := ctx.Store()
	if !c.report("Store configured", err) {
		for _, name := range []string{"Store reachable", "Schema version", "Demo collections", "Data validation"} {
			c.skip(name, "store not configured")
		}
		return c.finish()
	}
	defer ctx.Close()

	// Check 4: store reachable and migrated
	reachable := c.report("Store reachable", store.Load(bg))

	// Check 5: schema version
	if reachable {
		c.report("Schema version", checkSchemaVersion(bg, store))
	} else {
		c.skip("Schema version", "store not reachable")
	}

	// Check 6: each collection the demo pages read
	if reachable {
		h := ctx.Loader(store).Health(bg, week)
		names := make([]string, 0, len(h.Collections))
		for name := range h.Collections {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			col := h.Collections[name]
			var err error
			if !col.OK {
				err = fmt.Errorf("%s", col.Error)
			}
			if c.report("Collection "+name, err) {
				ctx.Printf("   %d records\n", col.Count)
			}
		}
	} else {
		c.skip("Demo collections", "store not reachable")
	}

	// Check 7: task data the scheduler will read
	if reachable {
		result, err := validateWorkspace(bg, ctx, store)
		if c.report("Data validation", err) && result.HasConflicts() {
			for _, conflict := range result.Conflicts {
				ctx.Printf("   ⚠ %s\n", conflict.Description)
			}
		}
	} else {
		c.skip("Data validation", "store not reachable")
	}

	return c.finish()
}

func (c *checker) finish() error {
	c.ctx.Println()
	if c.hasError {
		c.ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}
	c.ctx.Println("All diagnostics passed!")
	return nil
}

// checkWeekWindow verifies the window starts at local Monday midnight and
// spans seven calendar days.
func checkWeekWindow(start, end time.Time, loc *time.Location) error {
	s := start.In(loc)
	if s.Weekday() != time.Monday || s.Hour() != 0 || s.Minute() != 0 {
		return fmt.Errorf("week starts %s, expected Monday 00:00", s.Format(time.RFC3339))
	}
	e := end.In(loc)
	if e.Weekday() != time.Sunday || e.YearDay() == s.YearDay() {
		return fmt.Errorf("week ends %s, expected Sunday", e.Format(time.RFC3339))
	}
	return nil
}

func validateWorkspace(bg context.Context, ctx *cli.Context, store storage.Provider) (validation.ValidationResult, error) {
	ws, err := store.GetWorkspace(bg, ctx.Config.DemoWorkspace)
	if err != nil {
		return validation.ValidationResult{}, fmt.Errorf("workspace %q: %w", ctx.Config.DemoWorkspace, err)
	}
	tasks, err := store.ListTasks(bg, ws.ID, storage.TaskQuery{})
	if err != nil {
		return validation.ValidationResult{}, err
	}
	result := validation.New().ValidateTasks(tasks)
	return result, result.Err()
}

func checkSchemaVersion(ctx context.Context, store storage.Provider) error {
	v, ok := store.(versioned)
	if !ok {
		return nil
	}
	current, latest, err := v.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current < latest {
		return fmt.Errorf("schema version %d is behind %d; run 'flowstate migrate'", current, latest)
	}
	return nil
}
