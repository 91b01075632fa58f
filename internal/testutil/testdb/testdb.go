// Package testdb opens migrated in-memory sqlite databases for tests.
package testdb

import (
	"testing"

	"lending-backend/internal/infrastructure/db"
	"lending-backend/pkg/id"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open gives each caller its own shared-cache in-memory database with the
// full schema. One connection keeps transactions serialized.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + id.NewID32() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return gdb
}
