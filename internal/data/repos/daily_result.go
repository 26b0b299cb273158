package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcarver/kgtrack/internal/domain"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

type DailyResultRepo interface {
	Create(ctx context.Context, tx *gorm.DB, results []*domain.KnowledgeGraphDailyResult) ([]*domain.KnowledgeGraphDailyResult, error)
	ExistsForEntityOnDate(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, date time.Time) (bool, error)
	ExistsForDate(ctx context.Context, tx *gorm.DB, date time.Time) (bool, error)
	GetByDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*domain.KnowledgeGraphDailyResult, error)
	GetByEntityAndDate(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, date time.Time) ([]*domain.KnowledgeGraphDailyResult, error)
	CountForDate(ctx context.Context, tx *gorm.DB, date time.Time) (int64, error)
}

type dailyResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDailyResultRepo(db *gorm.DB, baseLog *logger.Logger) DailyResultRepo {
	repoLog := baseLog.With("repo", "DailyResultRepo")
	return &dailyResultRepo{db: db, log: repoLog}
}

func (rr *dailyResultRepo) Create(ctx context.Context, tx *gorm.DB, results []*domain.KnowledgeGraphDailyResult) ([]*domain.KnowledgeGraphDailyResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	if len(results) == 0 {
		return []*domain.KnowledgeGraphDailyResult{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *dailyResultRepo) ExistsForEntityOnDate(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, date time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.KnowledgeGraphDailyResult{}).
		Where("entity_id = ? AND date = ?", entityID, domain.Day(date)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (rr *dailyResultRepo) ExistsForDate(ctx context.Context, tx *gorm.DB, date time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.KnowledgeGraphDailyResult{}).
		Where("date = ?", domain.Day(date)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (rr *dailyResultRepo) GetByDate(ctx context.Context, tx *gorm.DB, date time.Time) ([]*domain.KnowledgeGraphDailyResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*domain.KnowledgeGraphDailyResult
	if err := transaction.WithContext(ctx).
		Where("date = ?", domain.Day(date)).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *dailyResultRepo) GetByEntityAndDate(ctx context.Context, tx *gorm.DB, entityID uuid.UUID, date time.Time) ([]*domain.KnowledgeGraphDailyResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var results []*domain.KnowledgeGraphDailyResult
	if err := transaction.WithContext(ctx).
		Where("entity_id = ? AND date = ?", entityID, domain.Day(date)).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *dailyResultRepo) CountForDate(ctx context.Context, tx *gorm.DB, date time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = rr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.KnowledgeGraphDailyResult{}).
		Where("date = ?", domain.Day(date)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
