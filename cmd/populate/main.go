package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dcarver/kgtrack/internal/app"
	"github.com/dcarver/kgtrack/internal/modules/population"
)

func main() {
	var dateFlag string
	var dryRun bool
	flag.StringVar(&dateFlag, "date", "", "observation date (YYYY-MM-DD, default today)")
	flag.BoolVar(&dryRun, "dry-run", false, "fetch without writing rows")
	flag.Parse()

	day := time.Now().UTC()
	if dateFlag != "" {
		parsed, err := time.Parse(time.DateOnly, dateFlag)
		if err != nil {
			fmt.Printf("invalid -date %q: %v\n", dateFlag, err)
			os.Exit(1)
		}
		day = parsed
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if application.Search == nil {
		application.Log.Error("GOOGLE_API_KEY not set, aborting")
		os.Exit(1)
	}

	svc := population.New(
		application.DB,
		application.Log,
		application.Repos.Entity,
		application.Repos.DailyResult,
		application.Search,
		application.Cfg.Watchlist,
		population.WithDryRun(dryRun),
	)

	summary, err := svc.Run(context.Background(), day)
	if err != nil {
		application.Log.Error("Population run failed", "error", err)
		os.Exit(1)
	}

	application.Log.Info("Population run finished",
		"processed", summary.Processed,
		"created", summary.Created,
		"skipped", summary.Skipped,
		"stored", summary.Stored,
		"failed", summary.Failed,
	)
}
