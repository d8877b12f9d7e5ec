// Package testdb opens isolated in-memory databases for package tests.
package testdb

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diewo77/go-taxprep/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database private to t.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return open(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}

// OpenFile returns a migrated database in a temporary file. Transactions begin
// IMMEDIATE and wait on a busy timeout, so concurrent writers queue instead of
// failing with "database is locked".
func OpenFile(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	return open(t, path+"?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL")
}

func open(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Seeded returns a migrated database holding the baseline reference data.
func Seeded(t *testing.T) *gorm.DB {
	t.Helper()
	conn := Open(t)
	if err := db.Seed(conn); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return conn
}
