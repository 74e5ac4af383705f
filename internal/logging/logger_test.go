package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/septivank/rnsync-vitals/internal/config"
)

func TestNewLogger_Stdout(t *testing.T) {
	logger, err := NewLogger("rnsync-vitals", config.LogConfig{Level: "debug"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !logger.Core().Enabled(-1) {
		t.Error("expected debug level to be enabled")
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger("rnsync-vitals", config.LogConfig{Level: "chatty"}); err == nil {
		t.Fatal("expected error for invalid level")
	}
}

func TestNewLogger_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vitals.log")

	logger, err := NewLogger("rnsync-vitals", config.LogConfig{
		Level:      "info",
		FilePath:   path,
		MaxSizeMB:  1,
		MaxBackups: 1,
		MaxAgeDays: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	WithRequestID(logger, "req-1").Info("reading stored")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, `"request_id":"req-1"`) {
		t.Errorf("expected request_id in log line, got %s", line)
	}
	if !strings.Contains(line, `"service":"rnsync-vitals"`) {
		t.Errorf("expected service field in log line, got %s", line)
	}
}
