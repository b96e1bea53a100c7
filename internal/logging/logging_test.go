package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
)

func TestSetupWritesToFile(t *testing.T) {
	dir := t.TempDir()
	closer, err := Setup(Options{Debug: true, ToFile: true, Dir: dir})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() {
		_ = closer.Close()
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
	})

	if log.GetLevel() != log.DebugLevel {
		t.Fatalf("expected debug level, got %s", log.GetLevel())
	}
	log.WithField("habit_id", "h1").Info("reconciled habit")

	data, errRead := os.ReadFile(filepath.Join(dir, logFileName))
	if errRead != nil {
		t.Fatalf("read log file: %v", errRead)
	}
	if !strings.Contains(string(data), "reconciled habit") || !strings.Contains(string(data), "habit_id=h1") {
		t.Fatalf("unexpected log content %q", string(data))
	}
}

func TestSetupStdoutOnly(t *testing.T) {
	closer, err := Setup(Options{})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if errClose := closer.Close(); errClose != nil {
		t.Fatalf("close: %v", errClose)
	}
	if log.GetLevel() != log.InfoLevel {
		t.Fatalf("expected info level, got %s", log.GetLevel())
	}
}
