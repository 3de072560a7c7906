// Package sqlitetest opens a migrated sqlite database for engine tests. The
// engines only ever see the gorm handle, so the tests exercise the same
// conditional updates and unique constraints that MySQL enforces in
// production.
package sqlitetest

import (
	"path/filepath"
	"testing"

	"arcade_wallet/internal/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a gorm handle on a fresh file-backed database under the
// test's temp dir. _txlock=immediate makes writers queue instead of failing
// with a busy upgrade, and the single connection keeps sqlite well clear of
// its lock limits under concurrent test load.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000&_txlock=immediate"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Discard,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(domain.Models()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
