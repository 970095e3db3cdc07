package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Entry is one journal submission and its generated reply. Crisis-gated
// submissions are never persisted, so every stored Entry has a Sentiment.
type Entry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;index;column:user_id" json:"user_id"`
	Content   string         `gorm:"type:text;not null;column:content" json:"content"`
	Reply     string         `gorm:"type:text;column:ai_response" json:"ai_response"`
	Sources   datatypes.JSON `gorm:"column:sources" json:"sources,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index;column:created_at" json:"created_at"`

	Sentiment *Sentiment `gorm:"foreignKey:EntryID" json:"sentiment,omitempty"`
}

func (Entry) TableName() string { return "entries" }
