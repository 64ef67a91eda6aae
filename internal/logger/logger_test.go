package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		wantDebug bool
	}{
		{"info", false, false},
		{"debug", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := New(&buf, Config{Debug: tt.debug})
			l.Debug("hidden unless debug")
			l.Info("always shown")

			out := buf.String()
			if !strings.Contains(out, "always shown") {
				t.Errorf("info line missing: %q", out)
			}
			if got := strings.Contains(out, "hidden unless debug"); got != tt.wantDebug {
				t.Errorf("debug line present = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, Config{JSON: true}).Info("scheduled", "count", 3)

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if line["msg"] != "scheduled" {
		t.Errorf("msg = %v", line["msg"])
	}
	if line["count"] != float64(3) {
		t.Errorf("count = %v", line["count"])
	}
}

func TestInit_FileSink(t *testing.T) {
	t.Cleanup(func() { Logger = nil })
	dir := t.TempDir()
	var buf bytes.Buffer

	if err := Init(Config{LogDir: dir, Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Info("written twice", "key", "value")

	if !strings.Contains(buf.String(), "written twice") {
		t.Errorf("stderr replacement missing line: %q", buf.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "logs", "flowstate.log"))
	if err != nil {
		t.Fatalf("log file: %v", err)
	}
	if !strings.Contains(string(data), "written twice") {
		t.Errorf("log file missing line: %q", data)
	}
}

func TestWith(t *testing.T) {
	t.Cleanup(func() { Logger = nil })
	var buf bytes.Buffer
	if err := Init(Config{Output: &buf}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	With("id", "req-1").Warn("slow")
	if out := buf.String(); !strings.Contains(out, "id=req-1") {
		t.Errorf("child fields missing: %q", out)
	}
}

func TestBeforeInit(t *testing.T) {
	Logger = nil
	Debug("dropped")
	Info("dropped")
	Warn("dropped")
	Error("dropped")
	With("k", "v").Info("dropped")
}
