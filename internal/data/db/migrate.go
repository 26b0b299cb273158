package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/dcarver/kgtrack/internal/domain"
)

// AutoMigrateAll creates the two tables if absent. FK constraint creation is
// disabled during migration; on postgres the entity->result constraint is
// added explicitly with ON DELETE CASCADE. sqlite gets the same cascade
// behavior from EntityRepo.Delete deleting result rows first.
func AutoMigrateAll(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&domain.Entity{},
		&domain.KnowledgeGraphDailyResult{},
	); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if conn.Dialector.Name() != "postgres" {
		return nil
	}

	if err := conn.Exec(`
		ALTER TABLE "kg_daily_result"
		DROP CONSTRAINT IF EXISTS "fk_kg_daily_result_entity_id"
	`).Error; err != nil {
		return fmt.Errorf("drop fk_kg_daily_result_entity_id: %w", err)
	}
	if err := conn.Exec(`
		ALTER TABLE "kg_daily_result"
		ADD CONSTRAINT "fk_kg_daily_result_entity_id"
		FOREIGN KEY ("entity_id")
		REFERENCES "kg_entity"("id")
		ON DELETE CASCADE
	`).Error; err != nil {
		return fmt.Errorf("add fk_kg_daily_result_entity_id: %w", err)
	}
	return nil
}
