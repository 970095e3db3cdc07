package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment is the structured emotional judgment attached to exactly one Entry.
// Intensity is documented as 1-10 but not validated; out-of-range values are a
// data-quality signal for consumers, not an error.
type Sentiment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EntryID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex;column:entry_id" json:"entry_id"`
	Emotion   string    `gorm:"not null;column:primary_emotion" json:"emotion"`
	Intensity float64   `gorm:"not null;column:intensity_score" json:"intensity"`
	Triggers  string    `gorm:"column:triggers" json:"triggers"`
	CreatedAt time.Time `gorm:"not null;column:created_at" json:"created_at"`
}

func (Sentiment) TableName() string { return "sentiments" }
