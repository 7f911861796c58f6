// Package testutil wires a throwaway database for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"everlasting-kin/internal/database"

	"github.com/glebarez/sqlite"
)

// SetupDB points database.DB at a fresh SQLite file that lives for the
// duration of the test.
func SetupDB(t *testing.T) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "kin.db")
	if err := database.Open(sqlite.Open(path + "?_pragma=foreign_keys(1)")); err != nil {
		t.Fatalf("open test database: %v", err)
	}

	sqlDB, err := database.DB.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
		database.DB = nil
	})
}
