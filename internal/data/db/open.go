package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/dcarver/kgtrack/internal/platform/logger"
)

// Open connects to the database named by DATABASE_URL. postgres:// and
// postgresql:// URLs use the postgres driver; sqlite:// URLs and bare file
// paths use sqlite.
func Open(logg *logger.Logger) (*gorm.DB, error) {
	rawURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if rawURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	return OpenURL(logg, rawURL)
}

func OpenURL(logg *logger.Logger, rawURL string) (*gorm.DB, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty database url")
	}

	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		dialector = postgres.Open(rawURL)
	case strings.HasPrefix(rawURL, "sqlite://"):
		dialector = sqlite.Open(strings.TrimPrefix(rawURL, "sqlite://"))
	default:
		dialector = sqlite.Open(rawURL)
	}

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logg.Info("Connected to database", "dialect", conn.Dialector.Name())
	return conn, nil
}

// Close releases the underlying connection pool.
func Close(conn *gorm.DB) error {
	if conn == nil {
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
