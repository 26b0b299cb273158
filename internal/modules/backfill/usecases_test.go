package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/dcarver/kgtrack/internal/data/repos"
	"github.com/dcarver/kgtrack/internal/data/repos/testutil"
)

var (
	sourceDay = time.Date(2025, 7, 8, 0, 0, 0, 0, time.UTC)
	rangeFrom = time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC)
	rangeTo   = time.Date(2025, 7, 7, 0, 0, 0, 0, time.UTC)
)

func TestRunCopiesRangeWithJitter(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	log := testutil.Logger(t)
	resultRepo := repos.NewDailyResultRepo(tx, log)
	ctx := context.Background()

	entity := testutil.SeedEntity(t, ctx, tx, "ESPN")
	testutil.SeedDailyResult(t, ctx, tx, entity.ID, sourceDay, testutil.Score(10.0),
		`{"result": {"name": "ESPN"}, "resultScore": 10.0}`)
	testutil.SeedDailyResult(t, ctx, tx, entity.ID, sourceDay, testutil.Score(20.0),
		`{"result": {"name": "ESPN2"}, "resultScore": 20.0}`)

	svc := New(tx, log, resultRepo)

	summary, err := svc.Run(ctx, sourceDay, rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.SourceRows != 2 || summary.DatesFilled != 9 || summary.RowsInserted != 18 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	for day := rangeFrom; !day.After(rangeTo); day = day.AddDate(0, 0, 1) {
		rows, err := resultRepo.GetByDate(ctx, tx, day)
		if err != nil {
			t.Fatalf("GetByDate %s: %v", day.Format(time.DateOnly), err)
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows on %s, got %d", day.Format(time.DateOnly), len(rows))
		}
		for _, row := range rows {
			if row.ResultScore == nil {
				t.Fatalf("expected jittered score on %s", day.Format(time.DateOnly))
			}
			score := *row.ResultScore
			inLow := score >= 9.5 && score <= 10.5
			inHigh := score >= 19.0 && score <= 21.0
			if !inLow && !inHigh {
				t.Fatalf("score %v outside ±5%% of either source score", score)
			}
		}
	}

	// Source rows untouched.
	srcRows, err := resultRepo.GetByDate(ctx, tx, sourceDay)
	if err != nil {
		t.Fatalf("GetByDate source: %v", err)
	}
	if len(srcRows) != 2 {
		t.Fatalf("source rows changed: got %d", len(srcRows))
	}
	seen := map[float64]bool{}
	for _, row := range srcRows {
		if row.ResultScore != nil {
			seen[*row.ResultScore] = true
		}
	}
	if !seen[10.0] || !seen[20.0] {
		t.Fatalf("source scores mutated: %v", seen)
	}
}

func TestRunPatchesOnlyScoreInPayload(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	log := testutil.Logger(t)
	resultRepo := repos.NewDailyResultRepo(tx, log)
	ctx := context.Background()

	entity := testutil.SeedEntity(t, ctx, tx, "ESPN")
	src := testutil.SeedDailyResult(t, ctx, tx, entity.ID, sourceDay, testutil.Score(10.0),
		`{"@type": "EntitySearchResult", "result": {"name": "ESPN", "description": "Television channel"}, "resultScore": 10.0}`)

	svc := New(tx, log, resultRepo, WithJitter(func() float64 { return 0.05 }))

	target := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Run(ctx, sourceDay, target, target); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows, err := resultRepo.GetByDate(ctx, tx, target)
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	row := rows[0]

	if row.ResultScore == nil || *row.ResultScore != 10.5 {
		t.Fatalf("expected deterministic score 10.5, got %v", row.ResultScore)
	}
	if row.EntityID != src.EntityID || row.Name != src.Name || row.Description != src.Description || row.ArticleBody != src.ArticleBody {
		t.Fatalf("copied fields differ from source")
	}

	var got, want map[string]any
	if err := json.Unmarshal(row.RawJSON, &got); err != nil {
		t.Fatalf("unmarshal copied payload: %v", err)
	}
	if err := json.Unmarshal(src.RawJSON, &want); err != nil {
		t.Fatalf("unmarshal source payload: %v", err)
	}
	if got["resultScore"] != 10.5 {
		t.Fatalf("payload resultScore not patched: %v", got["resultScore"])
	}
	delete(got, "resultScore")
	delete(want, "resultScore")
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("payload differs beyond resultScore:\n got: %v\nwant: %v", got, want)
	}
}

func TestRunSkipsPopulatedDates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	log := testutil.Logger(t)
	resultRepo := repos.NewDailyResultRepo(tx, log)
	ctx := context.Background()

	entity := testutil.SeedEntity(t, ctx, tx, "ESPN")
	testutil.SeedDailyResult(t, ctx, tx, entity.ID, sourceDay, testutil.Score(10.0), `{"resultScore": 10.0}`)

	populated := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	pre := testutil.SeedDailyResult(t, ctx, tx, entity.ID, populated, testutil.Score(42.0), `{"resultScore": 42.0}`)

	svc := New(tx, log, resultRepo)

	summary, err := svc.Run(ctx, sourceDay, rangeFrom, rangeTo)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.DatesSkipped != 1 || summary.DatesFilled != 8 || summary.RowsInserted != 8 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rows, err := resultRepo.GetByDate(ctx, tx, populated)
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("populated date must keep exactly its original row, got %d", len(rows))
	}
	if rows[0].ID != pre.ID || *rows[0].ResultScore != 42.0 {
		t.Fatalf("pre-existing row modified: %+v", rows[0])
	}
}

func TestRunNoSourceData(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	log := testutil.Logger(t)
	resultRepo := repos.NewDailyResultRepo(tx, log)
	ctx := context.Background()

	svc := New(tx, log, resultRepo)

	_, err := svc.Run(ctx, sourceDay, rangeFrom, rangeTo)
	if !errors.Is(err, ErrNoSourceData) {
		t.Fatalf("expected ErrNoSourceData, got %v", err)
	}

	count, err := resultRepo.CountForDate(ctx, tx, rangeFrom)
	if err != nil {
		t.Fatalf("CountForDate: %v", err)
	}
	if count != 0 {
		t.Fatalf("no-source abort must not write rows, got %d", count)
	}
}

func TestRunPreservesNilAndZeroScores(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	log := testutil.Logger(t)
	resultRepo := repos.NewDailyResultRepo(tx, log)
	ctx := context.Background()

	entity := testutil.SeedEntity(t, ctx, tx, "ESPN")
	testutil.SeedDailyResult(t, ctx, tx, entity.ID, sourceDay, nil, `{"result": {"name": "no score"}}`)
	testutil.SeedDailyResult(t, ctx, tx, entity.ID, sourceDay, testutil.Score(0), `{"resultScore": 0}`)

	svc := New(tx, log, resultRepo)

	target := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Run(ctx, sourceDay, target, target); err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows, err := resultRepo.GetByDate(ctx, tx, target)
	if err != nil {
		t.Fatalf("GetByDate: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	for _, row := range rows {
		if row.ResultScore != nil {
			t.Fatalf("nil/zero source score must stay NULL, got %v", *row.ResultScore)
		}
	}
}

func TestRunRejectsInvertedRange(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	svc := New(tx, testutil.Logger(t), repos.NewDailyResultRepo(tx, testutil.Logger(t)))

	_, err := svc.Run(context.Background(), sourceDay, rangeTo, rangeFrom)
	if err == nil {
		t.Fatalf("expected error for end before start")
	}
}
