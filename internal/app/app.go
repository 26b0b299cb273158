package app

import (
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/dcarver/kgtrack/internal/data/db"
	"github.com/dcarver/kgtrack/internal/data/repos"
	"github.com/dcarver/kgtrack/internal/platform/kgsearch"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Cfg    Config
	Repos  Repos
	Search kgsearch.Client
}

type Repos struct {
	Entity      repos.EntityRepo
	DailyResult repos.DailyResultRepo
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("load config: %w", err)
	}

	conn, err := db.OpenURL(log, cfg.DatabaseURL)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrateAll(conn); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	reposet := wireRepos(conn, log)

	// The search client only exists when a key is configured; the backfill
	// flow runs without one.
	var search kgsearch.Client
	if cfg.GoogleAPIKey != "" {
		search, err = kgsearch.NewFromEnv(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init kgsearch client: %w", err)
		}
	}

	return &App{
		Log:    log,
		DB:     conn,
		Cfg:    cfg,
		Repos:  reposet,
		Search: search,
	}, nil
}

func wireRepos(conn *gorm.DB, log *logger.Logger) Repos {
	return Repos{
		Entity:      repos.NewEntityRepo(conn, log),
		DailyResult: repos.NewDailyResultRepo(conn, log),
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.DB != nil {
		_ = db.Close(a.DB)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
