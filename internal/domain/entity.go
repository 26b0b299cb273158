package domain

import (
	"time"

	"github.com/google/uuid"
)

// Entity is a tracked name whose Knowledge Graph presence is observed daily.
type Entity struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_kg_entity_name" json:"name"`

	Results []KnowledgeGraphDailyResult `gorm:"foreignKey:EntityID" json:"results,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Entity) TableName() string { return "kg_entity" }
