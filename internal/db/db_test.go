package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func TestOpenEmptyDSN(t *testing.T) {
	gdb, err := Open(DriverSQLite, "  ", nil)
	if err == nil {
		_ = Close(gdb)
		t.Fatal("Open with empty DSN should return error")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "whatever", nil); err == nil {
		t.Fatal("expected unsupported driver error")
	}
}

func TestOpenSQLiteMemory(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	logger.SetLevel(logrus.WarnLevel)

	gdb, err := Open(DriverSQLite, ":memory:", logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(gdb)

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	if got := sqlDB.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d, want 1", got)
	}
}

func TestCloseNil(t *testing.T) {
	if err := Close(nil); err != nil {
		t.Fatalf("Close(nil): %v", err)
	}
}

func TestMigrationFilesArePaired(t *testing.T) {
	entries, err := fs.ReadDir(MigrationFS, "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %q", name)
		}
	}
	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Fatalf("migration %s has no down file", v)
		}
	}
}
