package models

import (
	"time"

	"github.com/google/uuid"
)

// Restaurant carries two denormalized aggregates, AvgRating and AvgSentiment.
// Both are derived from the review set and recomputed in the same transaction
// as any review mutation; nil means "no reviews yet", never zero.
type Restaurant struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID `gorm:"type:uuid;column:owner_id;not null;index"`
	Name         string    `gorm:"column:name;not null"`
	Location     string    `gorm:"column:location;not null"`
	Description  string    `gorm:"column:description"`
	AvgRating    *float64  `gorm:"column:avg_rating"`
	AvgSentiment *float64  `gorm:"column:avg_sentiment"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
