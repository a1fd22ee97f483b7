// Package testutil opens throwaway SQLite databases carrying the full schema.
package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fineshyttt/commerce-backend/pkg/db"
	"github.com/fineshyttt/commerce-backend/pkg/db/models"
)

// OpenSQLite returns a client over a fresh in-memory database. The pool holds a
// single connection so concurrent transactions queue instead of failing with
// SQLITE_BUSY, which also serializes them the way row locks would.
func OpenSQLite(t *testing.T) *db.Client {
	t.Helper()

	dsn := "file:commerce_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db.NewFromGorm(conn)
}
