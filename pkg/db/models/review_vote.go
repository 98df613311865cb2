package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewVote holds at most one row per (review, user). Value is -1 or +1;
// a vote of 0 deletes the row instead of persisting.
type ReviewVote struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ReviewID  uuid.UUID `gorm:"type:uuid;column:review_id;not null;uniqueIndex:idx_review_votes_review_user"`
	UserID    uuid.UUID `gorm:"type:uuid;column:user_id;not null;uniqueIndex:idx_review_votes_review_user"`
	Value     int       `gorm:"column:value;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
