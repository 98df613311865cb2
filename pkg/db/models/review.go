package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a single rated comment. A user may review the same restaurant
// more than once; there is deliberately no uniqueness on (restaurant, user).
type Review struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID uuid.UUID `gorm:"type:uuid;column:restaurant_id;not null;index"`
	UserID       uuid.UUID `gorm:"type:uuid;column:user_id;not null;index"`
	Rating       int       `gorm:"column:rating;not null"`
	Sentiment    float64   `gorm:"column:sentiment;not null;default:0"`
	Comment      string    `gorm:"column:comment"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
