package plans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flowstate/flowstate/internal/cli"
	"github.com/flowstate/flowstate/internal/config"
	"github.com/flowstate/flowstate/internal/constants"
	"github.com/flowstate/flowstate/internal/demo"
	"github.com/flowstate/flowstate/internal/scheduler"
	"github.com/flowstate/flowstate/internal/storage"
	"github.com/flowstate/flowstate/internal/utils"
)

// mondayMorning is 08:00 IST on Mon 8 Sep 2025.
var mondayMorning = time.Date(2025, 9, 8, 2, 30, 0, 0, time.UTC)

func newTestContext(t *testing.T, storeURL string) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	env := map[string]string{constants.EnvStoreURL: storeURL}
	cfg := config.LoadFrom(func(k string) string { return env[k] })
	cfg.KeyLookup = func() (string, error) { return "", errors.New("no keyring in tests") }

	ctx, err := cli.NewContext(cfg)
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	ctx.Scheduler = scheduler.New(scheduler.Config{Location: ctx.Location, Clock: utils.FixedClock(mondayMorning)})
	var out bytes.Buffer
	ctx.Out = &out
	t.Cleanup(func() { ctx.Close() })
	return ctx, &out
}

// seededStore migrates a temp SQLite file and loads the fixture into it.
func seededStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flowstate.db")
	ctx, _ := newTestContext(t, path)
	store, err := ctx.Store()
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	bg := context.Background()
	if err := store.Init(bg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	week := utils.ComputeWeekWindow(mondayMorning, ctx.Location)
	ds, err := demo.LoadFixture(week, ctx.Location)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if err := store.Seed(bg, ds); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return path
}

func decodeRun(t *testing.T, out *bytes.Buffer) demo.ScheduleRun {
	t.Helper()
	var run demo.ScheduleRun
	if err := json.Unmarshal(out.Bytes(), &run); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	return run
}

func TestScheduleCmd_InvalidFlags(t *testing.T) {
	ctx, _ := newTestContext(t, "")
	if err := (&ScheduleCmd{Strategy: "random"}).Run(ctx); err == nil {
		t.Error("expected error for unknown strategy")
	}
	if err := (&ScheduleCmd{MaxPerDay: -1}).Run(ctx); err == nil {
		t.Error("expected error for negative max")
	}
}

func TestScheduleCmd_MockWithoutStore(t *testing.T) {
	ctx, out := newTestContext(t, "")
	if err := (&ScheduleCmd{Strategy: "mornings", JSON: true}).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	run := decodeRun(t, out)
	if run.Source != constants.SourceMock || !run.DryRun {
		t.Errorf("source/dryRun = %s/%v, want mock/true", run.Source, run.DryRun)
	}
	if run.Strategy != constants.StrategyMornings {
		t.Errorf("strategy = %s", run.Strategy)
	}
}

func TestScheduleCmd_WritesBackToStore(t *testing.T) {
	path := seededStore(t)

	ctx, out := newTestContext(t, path)
	if err := (&ScheduleCmd{Strategy: "frontload", MaxPerDay: 2, JSON: true}).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	run := decodeRun(t, out)
	if run.Source != constants.SourceStore || run.DryRun {
		t.Fatalf("source/dryRun = %s/%v, want store/false", run.Source, run.DryRun)
	}
	if len(run.Result.Scheduled) == 0 {
		t.Fatal("expected at least one placement")
	}

	ctx, _ = newTestContext(t, path)
	store, err := ctx.LoadedStore(context.Background())
	if err != nil {
		t.Fatalf("LoadedStore: %v", err)
	}
	ws, err := store.GetWorkspace(context.Background(), constants.DefaultDemoWorkspace)
	if err != nil {
		t.Fatalf("GetWorkspace: %v", err)
	}
	tasks, err := store.ListTasks(context.Background(), ws.ID, storage.TaskQuery{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	byID := make(map[string]bool)
	for _, task := range tasks {
		if task.IsScheduled() {
			byID[task.ID] = true
		}
	}
	for _, a := range run.Result.Scheduled {
		if !byID[a.TaskID] {
			t.Errorf("task %s was not persisted", a.TaskID)
		}
	}
}

func TestScheduleCmd_TextOutput(t *testing.T) {
	ctx, out := newTestContext(t, "")
	if err := (&ScheduleCmd{Strategy: "balanced"}).Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, want := range []string{"Week of Mon 08 Sep 2025", "Dry run over mock data", "scheduled,"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestWeekCmd(t *testing.T) {
	tests := []struct {
		name      string
		cmd       WeekCmd
		wantStart time.Time
	}{
		{"now", WeekCmd{JSON: true}, time.Date(2025, 9, 7, 18, 30, 0, 0, time.UTC)},
		{"next week", WeekCmd{Offset: 1, JSON: true}, time.Date(2025, 9, 14, 18, 30, 0, 0, time.UTC)},
		{"explicit date", WeekCmd{At: "2025-09-14", JSON: true}, time.Date(2025, 9, 7, 18, 30, 0, 0, time.UTC)},
		{"rfc3339", WeekCmd{At: "2025-09-14T20:00:00Z", JSON: true}, time.Date(2025, 9, 14, 18, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := newTestContext(t, "")
			if err := tt.cmd.Run(ctx); err != nil {
				t.Fatalf("Run: %v", err)
			}
			var sum weekSummary
			if err := json.Unmarshal(out.Bytes(), &sum); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !sum.Window.Start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", sum.Window.Start, tt.wantStart)
			}
			if sum.Source != constants.SourceMock {
				t.Errorf("source = %s", sum.Source)
			}
		})
	}
}

func TestWeekCmd_BadDate(t *testing.T) {
	ctx, _ := newTestContext(t, "")
	if err := (&WeekCmd{At: "next tuesday"}).Run(ctx); err == nil {
		t.Error("expected error")
	}
}
