package utils

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) failed: %v", name, err)
	}
	return loc
}

func TestComputeWeekWindow_Wednesday(t *testing.T) {
	ist := mustLoad(t, "Asia/Kolkata")
	ref := time.Date(2025, 9, 10, 12, 0, 0, 0, ist)

	w := ComputeWeekWindow(ref, ist)

	// Monday 2025-09-08 00:00 IST
	wantStart := time.Date(2025, 9, 7, 18, 30, 0, 0, time.UTC)
	// Sunday 2025-09-14 23:59:59.999 IST
	wantEnd := time.Date(2025, 9, 14, 18, 29, 59, int(999*time.Millisecond), time.UTC)

	if !w.Start.Equal(wantStart) {
		t.Errorf("Start = %s, want %s", w.Start.Format(time.RFC3339Nano), wantStart.Format(time.RFC3339Nano))
	}
	if !w.End.Equal(wantEnd) {
		t.Errorf("End = %s, want %s", w.End.Format(time.RFC3339Nano), wantEnd.Format(time.RFC3339Nano))
	}
	if w.Start.Location() != time.UTC || w.End.Location() != time.UTC {
		t.Error("Expected window boundaries in UTC")
	}
	if !w.ZonedNow.Equal(ref) || w.ZonedNow.Location() != ist {
		t.Errorf("ZonedNow = %v, want %v in %s", w.ZonedNow, ref, ist)
	}
}

func TestComputeWeekWindow_Boundaries(t *testing.T) {
	ist := mustLoad(t, "Asia/Kolkata")

	tests := []struct {
		name string
		ref  time.Time
		want string // local Monday date
	}{
		{"monday midnight", time.Date(2025, 9, 8, 0, 0, 0, 0, ist), "2025-09-08"},
		{"sunday last millisecond", time.Date(2025, 9, 14, 23, 59, 59, int(999*time.Millisecond), ist), "2025-09-08"},
		{"next monday", time.Date(2025, 9, 15, 0, 0, 0, 0, ist), "2025-09-15"},
		{"utc sunday evening is IST monday", time.Date(2025, 9, 14, 19, 0, 0, 0, time.UTC), "2025-09-15"},
		{"year boundary", time.Date(2026, 1, 1, 10, 0, 0, 0, ist), "2025-12-29"},
		{"leap day", time.Date(2028, 2, 29, 10, 0, 0, 0, ist), "2028-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ComputeWeekWindow(tt.ref, ist)
			start := w.Start.In(ist)
			if got := start.Format("2006-01-02"); got != tt.want {
				t.Errorf("week start = %s, want %s", got, tt.want)
			}
			if start.Weekday() != time.Monday || start.Hour() != 0 || start.Minute() != 0 || start.Nanosecond() != 0 {
				t.Errorf("start %v is not Monday local midnight", start)
			}
			end := w.End.In(ist)
			if end.Weekday() != time.Sunday || end.Hour() != 23 || end.Minute() != 59 || end.Second() != 59 {
				t.Errorf("end %v is not Sunday local end-of-day", end)
			}
			if !w.Contains(tt.ref) {
				t.Errorf("window does not contain its reference instant %v", tt.ref)
			}
		})
	}
}

func TestComputeWeekWindow_SevenLocalDaysAcrossDST(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// Week containing the 2025-03-09 spring-forward change
	w := ComputeWeekWindow(time.Date(2025, 3, 5, 9, 0, 0, 0, ny), ny)
	start := w.Start.In(ny)
	end := w.End.In(ny)

	if start.Format("2006-01-02 15:04") != "2025-03-03 00:00" {
		t.Errorf("start = %v", start)
	}
	if end.Format("2006-01-02 15:04:05") != "2025-03-09 23:59:59" {
		t.Errorf("end = %v", end)
	}
	if got := w.End.Sub(w.Start) + time.Millisecond; got != 7*24*time.Hour-time.Hour {
		t.Errorf("spring-forward week length = %v, want 167h", got)
	}

	// Week containing the 2025-11-02 fall-back change
	w = ComputeWeekWindow(time.Date(2025, 11, 1, 9, 0, 0, 0, ny), ny)
	if got := w.End.Sub(w.Start) + time.Millisecond; got != 7*24*time.Hour+time.Hour {
		t.Errorf("fall-back week length = %v, want 169h", got)
	}
}

func TestComputeWeekWindowOffset(t *testing.T) {
	ist := mustLoad(t, "Asia/Kolkata")
	ref := time.Date(2025, 9, 10, 12, 0, 0, 0, ist)

	tests := []struct {
		offset int
		want   string
	}{
		{0, "2025-09-08"},
		{7, "2025-09-15"},
		{-7, "2025-09-01"},
		{4, "2025-09-08"},
		{5, "2025-09-15"},
	}

	for _, tt := range tests {
		w := ComputeWeekWindowOffset(ref, ist, tt.offset)
		if got := w.Start.In(ist).Format("2006-01-02"); got != tt.want {
			t.Errorf("offset %d: start = %s, want %s", tt.offset, got, tt.want)
		}
		if !w.ZonedNow.Equal(ref) {
			t.Errorf("offset %d: ZonedNow should stay at the reference instant", tt.offset)
		}
	}
}

func TestWeekWindowNow_UsesInjectedClock(t *testing.T) {
	ist := mustLoad(t, "Asia/Kolkata")
	clock := FixedClock(time.Date(2025, 9, 10, 6, 30, 0, 0, time.UTC))

	w := WeekWindowNow(clock, ist, 0)
	if got := w.Start.In(ist).Format("2006-01-02"); got != "2025-09-08" {
		t.Errorf("WeekWindowNow start = %s, want 2025-09-08", got)
	}
}

func TestWeekWindowDays(t *testing.T) {
	ist := mustLoad(t, "Asia/Kolkata")
	w := ComputeWeekWindow(time.Date(2025, 9, 10, 12, 0, 0, 0, ist), ist)

	days := w.Days(ist)
	if len(days) != 7 {
		t.Fatalf("Days() returned %d days, want 7", len(days))
	}
	if days[0] != "2025-09-08" || days[6] != "2025-09-14" {
		t.Errorf("Days() = %v", days)
	}
}
