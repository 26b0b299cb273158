package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// KnowledgeGraphDailyResult is one API match for an entity on a given date.
// Rows are written once by either the population or backfill flow and never
// updated afterwards.
type KnowledgeGraphDailyResult struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntityID uuid.UUID `gorm:"type:uuid;not null;index:idx_kg_daily_result_entity_date,priority:1" json:"entity_id"`

	ResultScore *float64       `json:"result_score,omitempty"`
	Name        string         `gorm:"type:varchar(255)" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	ArticleBody string         `gorm:"type:text" json:"article_body"`
	RawJSON     datatypes.JSON `json:"raw_json"`

	Date time.Time `gorm:"type:date;not null;index:idx_kg_daily_result_entity_date,priority:2;index" json:"date"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (KnowledgeGraphDailyResult) TableName() string { return "kg_daily_result" }

// Day normalizes t to UTC midnight. Observation dates are always stored and
// queried in this form so equality filters behave the same on postgres date
// columns and sqlite.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
