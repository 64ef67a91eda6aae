package utils

import (
	"testing"
	"time"
)

func TestLoadLocation(t *testing.T) {
	tests := []struct {
		name     string
		timezone string
		want     string
		wantErr  bool
	}{
		{
			name:     "empty string returns default zone",
			timezone: "",
			want:     "Asia/Kolkata",
		},
		{
			name:     "Local returns local",
			timezone: "Local",
			want:     "Local",
		},
		{
			name:     "valid timezone Europe/London",
			timezone: "Europe/London",
			want:     "Europe/London",
		},
		{
			name:     "invalid timezone",
			timezone: "Invalid/Timezone",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := LoadLocation(tt.timezone)
			if (err != nil) != tt.wantErr {
				t.Errorf("LoadLocation() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && loc.String() != tt.want {
				t.Errorf("LoadLocation() = %s, want %s", loc, tt.want)
			}
		})
	}
}

func TestClockNow(t *testing.T) {
	fixed := time.Date(2025, 9, 10, 6, 30, 0, 0, time.UTC)
	if got := FixedClock(fixed).Now(); !got.Equal(fixed) {
		t.Errorf("FixedClock().Now() = %v, want %v", got, fixed)
	}

	var nilClock Clock
	before := time.Now()
	got := nilClock.Now()
	if got.Before(before) {
		t.Errorf("nil Clock.Now() = %v, expected wall clock at or after %v", got, before)
	}
}

func TestParseTimeToMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9am", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeToMinutes(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTimeToMinutes(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTimeToMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestCombineDateAndTime(t *testing.T) {
	loc, err := LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation failed: %v", err)
	}

	got, err := CombineDateAndTime("2025-09-08", "09:00", loc)
	if err != nil {
		t.Fatalf("CombineDateAndTime failed: %v", err)
	}
	want := time.Date(2025, 9, 8, 3, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("CombineDateAndTime() = %v, want %v", got.UTC(), want)
	}

	if _, err := CombineDateAndTime("08/09/2025", "09:00", loc); err == nil {
		t.Error("Expected error for invalid date format")
	}
}
