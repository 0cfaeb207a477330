package store

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// OpenSQLite opens (or creates) the SQLite file at path through gorm.
// Foreign keys are switched on so ON DELETE CASCADE holds, and the pool is
// pinned to one connection: SQLite has a single writer, and an in-memory
// database only exists on the connection that created it.
func OpenSQLite(path string, debug bool) (*gorm.DB, error) {
	dsn := "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
	if path == MemoryPath {
		dsn = "file::memory:?_foreign_keys=on"
	}

	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", ErrUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: get sql.DB: %v", ErrUnavailable, err)
	}
	sqlDB.SetMaxOpenConns(1)

	log.Printf("[store] sqlite ready (%s)", path)
	return db, nil
}

// CloseSQLite releases the connection behind db.
func CloseSQLite(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}
