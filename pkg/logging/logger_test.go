package logging

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTempFileLogger(t *testing.T) (*Logger, string) {
	t.Helper()

	logPath := filepath.Join(t.TempDir(), "test.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		t.Fatalf("Failed to open log file: %v", err)
	}
	t.Cleanup(func() { logFile.Close() })

	return &Logger{
		level:   INFO,
		output:  logFile,
		fields:  make(map[string]interface{}),
		logFile: logFile,
	}, logPath
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(WARN, false)
	log.SetOutput(&buf)

	log.Debug("hidden")
	log.Info("hidden too")
	log.Warn("shown")
	log.Error("also shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("levels below WARN leaked into output: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "also shown") {
		t.Errorf("WARN/ERROR messages missing from output: %q", out)
	}
}

func TestWithFieldIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(INFO, true)
	log.SetOutput(&buf)

	log.WithField("component", "store").Info("opened")

	if !strings.Contains(buf.String(), `"component":"store"`) {
		t.Errorf("context field missing from JSON output: %q", buf.String())
	}
}

func TestRotateIfNeeded(t *testing.T) {
	log, logPath := newTempFileLogger(t)

	for i := 0; i < 50; i++ {
		log.Info("filler entry to grow the log file past the rotation limit")
	}

	if err := log.RotateIfNeeded(1024); err != nil {
		t.Fatalf("RotateIfNeeded failed: %v", err)
	}

	backups, err := filepath.Glob(logPath + ".*")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(backups) != 1 {
		t.Fatalf("Expected 1 backup file after rotation, found %d", len(backups))
	}

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("Rotated log file missing: %v", err)
	}
	if info.Size() > 1024 {
		t.Errorf("Fresh log file still over limit: %d bytes", info.Size())
	}

	// Writes keep flowing to the fresh file
	log.SetOutput(io.MultiWriter(log.logFile))
	log.Info("after rotation")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "after rotation") {
		t.Errorf("Fresh log file missing post-rotation entry: %q", data)
	}
}

func TestRotateIfNeededUnderLimit(t *testing.T) {
	log, logPath := newTempFileLogger(t)

	log.Info("a single small entry")

	if err := log.RotateIfNeeded(1024 * 1024); err != nil {
		t.Fatalf("RotateIfNeeded failed: %v", err)
	}

	backups, err := filepath.Glob(logPath + ".*")
	if err != nil {
		t.Fatalf("Glob failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("Rotation happened below the size limit: %v", backups)
	}
}
