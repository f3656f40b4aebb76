package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetup_WritesJSON(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "nested", "test.log")

	logger, closeLog, err := Setup(logPath, "1.2.3", false)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	logger.Info("step completed", "step", "pay fee")
	logger.Debug("hidden without verbose")
	if err := closeLog(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1:\n%s", len(lines), data)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "step completed" || rec["step"] != "pay fee" || rec["version"] != "1.2.3" || rec["app"] != "stakehut" {
		t.Errorf("record = %v", rec)
	}
}

func TestSetup_VerboseLogsDebug(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	logger, closeLog, err := Setup(logPath, "dev", true)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	logger.Debug("verbose test")
	closeLog()

	data, _ := os.ReadFile(logPath)
	if !strings.Contains(string(data), "verbose test") {
		t.Errorf("debug record missing:\n%s", data)
	}
}

func TestRotateIfNeeded(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.log")

	// Create a file just over the max size
	data := make([]byte, maxLogSize+1)
	if err := os.WriteFile(logPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := RotateIfNeeded(logPath); err != nil {
		t.Fatalf("RotateIfNeeded: %v", err)
	}

	if _, err := os.Stat(logPath); !os.IsNotExist(err) {
		t.Errorf("log should have been moved away, stat err = %v", err)
	}
	info, err := os.Stat(logPath + ".old")
	if err != nil {
		t.Fatalf("backup missing: %v", err)
	}
	if info.Size() != maxLogSize+1 {
		t.Errorf("backup size = %d", info.Size())
	}
}

func TestRotateIfNeeded_SmallFileKept(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(logPath, []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := RotateIfNeeded(logPath); err != nil {
		t.Fatalf("RotateIfNeeded: %v", err)
	}
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("small log should stay: %v", err)
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(t.Context(), 0) {
		t.Error("discard logger should be disabled")
	}
	// Should not panic
	logger.With("k", "v").WithGroup("g").Info("nop")
}
