package population

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/dcarver/kgtrack/internal/data/repos"
	"github.com/dcarver/kgtrack/internal/domain"
	"github.com/dcarver/kgtrack/internal/platform/kgsearch"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

// Service runs the daily population flow: for each watchlist name, ensure
// the entity row exists, skip entities that already have results for the
// day, otherwise fetch from the Knowledge Graph API and store one row per
// returned item.
type Service struct {
	db       *gorm.DB
	log      *logger.Logger
	entities repos.EntityRepo
	results  repos.DailyResultRepo
	search   kgsearch.Client

	watchlist []string
	dryRun    bool
}

type Option func(*Service)

// WithDryRun logs fetches and planned writes without inserting rows.
func WithDryRun(enabled bool) Option {
	return func(s *Service) { s.dryRun = enabled }
}

func New(db *gorm.DB, baseLog *logger.Logger, entities repos.EntityRepo, results repos.DailyResultRepo, search kgsearch.Client, watchlist []string, opts ...Option) *Service {
	s := &Service{
		db:        db,
		log:       baseLog.With("module", "population"),
		entities:  entities,
		results:   results,
		search:    search,
		watchlist: watchlist,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Summary struct {
	Processed int
	Created   int
	Skipped   int
	Stored    int
	Failed    int
}

// Run processes the watchlist in order for the given observation day.
// A failed or empty fetch writes nothing, so a rerun on the same day
// retries that entity.
func (s *Service) Run(ctx context.Context, day time.Time) (*Summary, error) {
	if s.search == nil {
		return nil, fmt.Errorf("population: search client required")
	}
	day = domain.Day(day)
	summary := &Summary{}

	for _, name := range s.watchlist {
		summary.Processed++

		entity, created, err := s.entities.GetOrCreateByName(ctx, nil, name)
		if err != nil {
			return summary, fmt.Errorf("population: get or create entity %q: %w", name, err)
		}
		if created {
			summary.Created++
			s.log.Info("Created new entity", "name", name)
		}

		exists, err := s.results.ExistsForEntityOnDate(ctx, nil, entity.ID, day)
		if err != nil {
			return summary, fmt.Errorf("population: existence check for %q: %w", name, err)
		}
		if exists {
			summary.Skipped++
			s.log.Info("Results already exist, skipping", "name", name, "date", day.Format(time.DateOnly))
			continue
		}

		s.log.Info("Fetching entity data", "name", name)
		resp, err := s.search.Search(ctx, name)
		if err != nil {
			summary.Failed++
			s.log.Error("Fetch failed, treating as no data", "name", name, "error", err)
			continue
		}
		if len(resp.Items) == 0 {
			s.log.Warn("No data retrieved", "name", name)
			continue
		}

		rows := make([]*domain.KnowledgeGraphDailyResult, 0, len(resp.Items))
		for _, item := range resp.Items {
			rows = append(rows, mapItem(entity, item, day))
		}

		if s.dryRun {
			s.log.Info("Dry run, not storing results", "name", name, "items", len(rows))
			continue
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			_, err := s.results.Create(ctx, tx, rows)
			return err
		})
		if err != nil {
			return summary, fmt.Errorf("population: store results for %q: %w", name, err)
		}
		summary.Stored += len(rows)
		s.log.Info("Stored results", "name", name, "items", len(rows))
	}

	return summary, nil
}

func mapItem(entity *domain.Entity, item kgsearch.Item, day time.Time) *domain.KnowledgeGraphDailyResult {
	var score *float64
	if item.ResultScore != nil {
		v := *item.ResultScore
		score = &v
	}
	raw := item.Raw
	if len(raw) == 0 {
		raw = []byte(`{}`)
	}
	return &domain.KnowledgeGraphDailyResult{
		ID:          uuid.New(),
		EntityID:    entity.ID,
		ResultScore: score,
		Name:        item.Result.Name,
		Description: item.Result.Description,
		ArticleBody: item.Result.DetailedDescription.ArticleBody,
		RawJSON:     datatypes.JSON(raw),
		Date:        day,
	}
}
