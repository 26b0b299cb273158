package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dcarver/kgtrack/internal/domain"
	"github.com/dcarver/kgtrack/internal/platform/logger"
)

type EntityRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entities []*domain.Entity) ([]*domain.Entity, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Entity, error)
	GetOrCreateByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Entity, bool, error)
	List(ctx context.Context, tx *gorm.DB) ([]*domain.Entity, error)
	Delete(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error
}

type entityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEntityRepo(db *gorm.DB, baseLog *logger.Logger) EntityRepo {
	repoLog := baseLog.With("repo", "EntityRepo")
	return &entityRepo{db: db, log: repoLog}
}

func (er *entityRepo) Create(ctx context.Context, tx *gorm.DB, entities []*domain.Entity) ([]*domain.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	if len(entities) == 0 {
		return []*domain.Entity{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// GetByName returns nil without error when no entity matches.
func (er *entityRepo) GetByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var result domain.Entity
	err := transaction.WithContext(ctx).
		Where("name = ?", name).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// GetOrCreateByName looks an entity up by name, creating it when absent.
// The second return reports whether a row was created.
func (er *entityRepo) GetOrCreateByName(ctx context.Context, tx *gorm.DB, name string) (*domain.Entity, bool, error) {
	existing, err := er.GetByName(ctx, tx, name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	created, err := er.Create(ctx, tx, []*domain.Entity{{ID: uuid.New(), Name: name}})
	if err != nil {
		return nil, false, err
	}
	return created[0], true, nil
}

func (er *entityRepo) List(ctx context.Context, tx *gorm.DB) ([]*domain.Entity, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	var results []*domain.Entity
	if err := transaction.WithContext(ctx).
		Order("name ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes an entity and all of its result rows. The result delete is
// explicit so the cascade holds on dialects without the FK constraint.
func (er *entityRepo) Delete(ctx context.Context, tx *gorm.DB, entityID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}

	return transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
		if err := inner.
			Where("entity_id = ?", entityID).
			Delete(&domain.KnowledgeGraphDailyResult{}).Error; err != nil {
			return err
		}
		return inner.
			Where("id = ?", entityID).
			Delete(&domain.Entity{}).Error
	})
}
