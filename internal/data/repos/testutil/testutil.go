package testutil

import (
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/dcarver/kgtrack/internal/data/db"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

var (
	dbOnce sync.Once
	conn   *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a process-wide in-memory sqlite database with the schema
// migrated. Tests isolate their writes with Tx.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		var err error
		conn, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if err != nil {
			dbErr = err
			return
		}

		sqlDB, err := conn.DB()
		if err != nil {
			dbErr = err
			return
		}
		// A second connection to a shared-cache memory db can hit table
		// locks; one connection is enough for sequential tests.
		sqlDB.SetMaxOpenConns(1)

		if err := db.AutoMigrateAll(conn); err != nil {
			dbErr = err
			return
		}
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return conn
}

func Tx(tb testing.TB, conn *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := conn.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}
