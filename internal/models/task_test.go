package models

import "testing"

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want TaskStatus
	}{
		{"not_started", StatusNotStarted},
		{"Not Started", StatusNotStarted},
		{"todo", StatusNotStarted},
		{"In progress", StatusInProgress},
		{"in-progress", StatusInProgress},
		{"Done", StatusDone},
		{"completed", StatusDone},
		{"", StatusNotStarted},
		{"blocked", StatusNotStarted},
	}
	for _, tt := range tests {
		if got := ParseStatus(tt.in); got != tt.want {
			t.Errorf("ParseStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusAliasesParseBack(t *testing.T) {
	for _, st := range AllStatuses {
		aliases := StatusAliases(st)
		if len(aliases) == 0 {
			t.Errorf("%s has no aliases", st)
		}
		for _, a := range aliases {
			if NormalizeStatusText(a) != a {
				t.Errorf("alias %q is not in normalised form", a)
			}
			if got := ParseStatus(a); got != st {
				t.Errorf("alias %q parses as %q, want %q", a, got, st)
			}
		}
	}
}
