package backfill

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dcarver/kgtrack/internal/data/repos"
	"github.com/dcarver/kgtrack/internal/domain"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

// ErrNoSourceData is returned when the source date has no rows to copy.
var ErrNoSourceData = errors.New("backfill: no source data")

// Service copies one day's result rows across a target date range, applying
// a random perturbation of up to ±5% to each copied score. Target dates that
// already have data are skipped; everything else is staged and committed in
// one transaction.
type Service struct {
	db      *gorm.DB
	log     *logger.Logger
	results repos.DailyResultRepo

	// jitter draws the relative score perturbation, in [-0.05, 0.05].
	jitter func() float64
}

type Option func(*Service)

// WithJitter overrides the perturbation source.
func WithJitter(fn func() float64) Option {
	return func(s *Service) { s.jitter = fn }
}

func New(db *gorm.DB, baseLog *logger.Logger, results repos.DailyResultRepo, opts ...Option) *Service {
	s := &Service{
		db:      db,
		log:     baseLog.With("module", "backfill"),
		results: results,
		jitter: func() float64 {
			return (rand.Float64()*2 - 1) * 0.05
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Summary struct {
	SourceRows   int
	DatesFilled  int
	DatesSkipped int
	RowsInserted int
}

// Run copies the rows of source onto every day in [start, end]. The whole
// range commits atomically; a failure rolls back every staged date.
func (s *Service) Run(ctx context.Context, source, start, end time.Time) (*Summary, error) {
	source = domain.Day(source)
	start = domain.Day(start)
	end = domain.Day(end)
	if end.Before(start) {
		return nil, fmt.Errorf("backfill: end %s before start %s", end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	s.log.Info("Starting backfill",
		"source", source.Format(time.DateOnly),
		"start", start.Format(time.DateOnly),
		"end", end.Format(time.DateOnly),
	)

	sourceRows, err := s.results.GetByDate(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("backfill: load source rows: %w", err)
	}
	if len(sourceRows) == 0 {
		s.log.Warn("No source data found, aborting", "source", source.Format(time.DateOnly))
		return nil, ErrNoSourceData
	}
	s.log.Info("Loaded source rows", "count", len(sourceRows))

	summary := &Summary{SourceRows: len(sourceRows)}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			exists, err := s.results.ExistsForDate(ctx, tx, day)
			if err != nil {
				return fmt.Errorf("existence check for %s: %w", day.Format(time.DateOnly), err)
			}
			if exists {
				summary.DatesSkipped++
				s.log.Info("Data already exists, skipping", "date", day.Format(time.DateOnly))
				continue
			}

			rows := make([]*domain.KnowledgeGraphDailyResult, 0, len(sourceRows))
			for _, src := range sourceRows {
				row, err := s.copyRow(src, day)
				if err != nil {
					return fmt.Errorf("copy row for %s: %w", day.Format(time.DateOnly), err)
				}
				rows = append(rows, row)
			}
			if _, err := s.results.Create(ctx, tx, rows); err != nil {
				return fmt.Errorf("insert rows for %s: %w", day.Format(time.DateOnly), err)
			}

			summary.DatesFilled++
			summary.RowsInserted += len(rows)
			s.log.Info("Prepared rows", "date", day.Format(time.DateOnly), "count", len(rows))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("backfill: %w", err)
	}

	s.log.Info("Backfill finished",
		"dates_filled", summary.DatesFilled,
		"dates_skipped", summary.DatesSkipped,
		"rows_inserted", summary.RowsInserted,
	)
	return summary, nil
}

// copyRow clones src onto day with a jittered score. A nil or zero source
// score carries over as NULL and leaves the payload untouched.
func (s *Service) copyRow(src *domain.KnowledgeGraphDailyResult, day time.Time) (*domain.KnowledgeGraphDailyResult, error) {
	var newScore *float64
	if src.ResultScore != nil && *src.ResultScore != 0 {
		v := math.Round(*src.ResultScore*(1+s.jitter())*10000) / 10000
		newScore = &v
	}

	raw, err := patchScore(src.RawJSON, newScore)
	if err != nil {
		return nil, err
	}

	return &domain.KnowledgeGraphDailyResult{
		ID:          uuid.New(),
		EntityID:    src.EntityID,
		ResultScore: newScore,
		Name:        src.Name,
		Description: src.Description,
		ArticleBody: src.ArticleBody,
		RawJSON:     raw,
		Date:        domain.Day(day),
	}, nil
}

// patchScore deep-copies the payload, rewriting resultScore when a new score
// was drawn.
func patchScore(raw datatypes.JSON, score *float64) (datatypes.JSON, error) {
	if len(raw) == 0 {
		return datatypes.JSON([]byte(`{}`)), nil
	}
	if score == nil {
		out := make([]byte, len(raw))
		copy(out, raw)
		return datatypes.JSON(out), nil
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	payload["resultScore"] = *score
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return datatypes.JSON(out), nil
}
