package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dcarver/kgtrack/internal/domain"
)

func SeedEntity(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *domain.Entity {
	tb.Helper()
	e := &domain.Entity{
		ID:   uuid.New(),
		Name: name,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed entity: %v", err)
	}
	return e
}

func SeedDailyResult(tb testing.TB, ctx context.Context, tx *gorm.DB, entityID uuid.UUID, date time.Time, score *float64, raw string) *domain.KnowledgeGraphDailyResult {
	tb.Helper()
	if raw == "" {
		raw = `{}`
	}
	r := &domain.KnowledgeGraphDailyResult{
		ID:          uuid.New(),
		EntityID:    entityID,
		ResultScore: score,
		Name:        "seed",
		Description: "seed description",
		ArticleBody: "seed body",
		RawJSON:     datatypes.JSON([]byte(raw)),
		Date:        domain.Day(date),
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed daily result: %v", err)
	}
	return r
}

func Score(v float64) *float64 { return &v }
