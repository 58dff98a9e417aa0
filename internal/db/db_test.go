package db

import (
	"path/filepath"
	"testing"
	"time"
)

func TestOpenConfiguresConnection(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "revival.sqlite3"), 1500*time.Millisecond)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var timeout int
	if err := database.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("reading busy_timeout: %v", err)
	}
	if timeout != 1500 {
		t.Errorf("busy_timeout = %d, want 1500", timeout)
	}

	var mode string
	if err := database.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("reading journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

func TestOpenDefaultsBusyTimeout(t *testing.T) {
	database, err := Open(":memory:", 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close()

	var timeout int64
	if err := database.QueryRow(`PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("reading busy_timeout: %v", err)
	}
	if timeout != DefaultBusyTimeout.Milliseconds() {
		t.Errorf("busy_timeout = %d, want %d", timeout, DefaultBusyTimeout.Milliseconds())
	}
}
