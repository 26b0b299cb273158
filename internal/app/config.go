package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dcarver/kgtrack/internal/platform/envutil"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

// defaultWatchlist is the built-in set of tracked names, used when no
// WATCHLIST_FILE is configured.
var defaultWatchlist = []string{
	"ClutchPoints", "Yahoo Sports", "The Sporting News", "Bleacher Report",
	"FanSided", "ESPN", "CBS Sports", "Sports Illustrated", "FOX Sports",
	"SB Nation", "The Athletic", "Essentially Sports",
}

type Config struct {
	DatabaseURL  string
	GoogleAPIKey string
	Watchlist    []string
}

// LoadConfig reads configuration from the environment, loading a .env file
// first when one is present. DATABASE_URL is required; GOOGLE_API_KEY is
// validated by the caller that needs it.
func LoadConfig(log *logger.Logger) (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		GoogleAPIKey: strings.TrimSpace(os.Getenv("GOOGLE_API_KEY")),
		Watchlist:    defaultWatchlist,
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL not set")
	}

	if path := envutil.String("WATCHLIST_FILE", ""); path != "" {
		watchlist, err := loadWatchlist(path)
		if err != nil {
			return Config{}, fmt.Errorf("load watchlist: %w", err)
		}
		cfg.Watchlist = watchlist
		log.Info("Loaded watchlist from file", "path", path, "entities", len(watchlist))
	}

	return cfg, nil
}

type watchlistFile struct {
	Entities []string `yaml:"entities"`
}

func loadWatchlist(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed watchlistFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}

	entities := make([]string, 0, len(parsed.Entities))
	for _, name := range parsed.Entities {
		name = strings.TrimSpace(name)
		if name != "" {
			entities = append(entities, name)
		}
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("watchlist %q lists no entities", path)
	}
	return entities, nil
}
