package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dcarver/kgtrack/internal/app"
	"github.com/dcarver/kgtrack/internal/modules/backfill"
)

func main() {
	var sourceFlag, startFlag, endFlag string
	flag.StringVar(&sourceFlag, "source", "2025-07-08", "source date to copy from (YYYY-MM-DD)")
	flag.StringVar(&startFlag, "start", "2025-06-29", "first target date (YYYY-MM-DD)")
	flag.StringVar(&endFlag, "end", "2025-07-07", "last target date, inclusive (YYYY-MM-DD)")
	flag.Parse()

	source, err := parseDate("source", sourceFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	start, err := parseDate("start", startFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	end, err := parseDate("end", endFlag)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	svc := backfill.New(application.DB, application.Log, application.Repos.DailyResult)

	summary, err := svc.Run(context.Background(), source, start, end)
	if errors.Is(err, backfill.ErrNoSourceData) {
		os.Exit(1)
	}
	if err != nil {
		application.Log.Error("Backfill run failed", "error", err)
		os.Exit(1)
	}

	application.Log.Info("Backfill run finished",
		"source_rows", summary.SourceRows,
		"dates_filled", summary.DatesFilled,
		"dates_skipped", summary.DatesSkipped,
		"rows_inserted", summary.RowsInserted,
	)
}

func parseDate(name, value string) (time.Time, error) {
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -%s %q: %w", name, value, err)
	}
	return parsed, nil
}
