package shared

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDatabase(t *testing.T) {
	t.Run("opens with busy timeout and foreign keys", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("NewDatabase failed: %v", err)
		}
		defer db.Close()

		var busyTimeout int
		if err := db.QueryRow("PRAGMA busy_timeout").Scan(&busyTimeout); err != nil {
			t.Fatalf("failed to read busy_timeout: %v", err)
		}
		if busyTimeout != 5000 {
			t.Errorf("expected busy_timeout 5000, got %d", busyTimeout)
		}

		var foreignKeys int
		if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
			t.Fatalf("failed to read foreign_keys: %v", err)
		}
		if foreignKeys != 1 {
			t.Error("expected foreign keys to be enabled")
		}
	})

	t.Run("keeps caller-supplied parameters", func(t *testing.T) {
		db, err := NewDatabase(":memory:?_foreign_keys=off")
		if err != nil {
			t.Fatalf("NewDatabase failed: %v", err)
		}
		defer db.Close()

		var foreignKeys int
		if err := db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys); err != nil {
			t.Fatalf("failed to read foreign_keys: %v", err)
		}
		if foreignKeys != 0 {
			t.Error("expected caller parameters to win over defaults")
		}
	})

	t.Run("fails for an unreachable path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "gistctl.db")

		if _, err := NewDatabase(path); err == nil {
			t.Error("expected an error for a path in a missing directory")
		} else if !strings.Contains(err.Error(), "database") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestConfigureDatabase(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("NewDatabase failed: %v", err)
	}
	defer db.Close()

	ConfigureDatabase(db, 3, 2)

	if got := db.Stats().MaxOpenConnections; got != 3 {
		t.Errorf("expected 3 max open connections, got %d", got)
	}
}
