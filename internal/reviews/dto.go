package reviews

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
)

// AddReviewInput captures the payload for posting a review.
type AddReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// VoteInput captures the payload for voting on a review.
type VoteInput struct {
	Value int `json:"value"`
}

// ReviewDTO is the transport shape for a single review.
type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	UserID       uuid.UUID `json:"user_id"`
	Rating       int       `json:"rating"`
	Sentiment    float64   `json:"sentiment"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
}

// TallyDTO aggregates the votes on one review.
type TallyDTO struct {
	Up    int64 `json:"up"`
	Down  int64 `json:"down"`
	Score int64 `json:"score"`
}

// ReviewWithTallyDTO pairs a review with its current vote tally.
type ReviewWithTallyDTO struct {
	ReviewDTO
	Votes TallyDTO `json:"votes"`
}

// VoteDTO is the transport shape for one user's vote on a review.
type VoteDTO struct {
	ReviewID uuid.UUID `json:"review_id"`
	UserID   uuid.UUID `json:"user_id"`
	Value    int       `json:"value"`
}

func FromModel(r *models.Review) *ReviewDTO {
	if r == nil {
		return nil
	}
	return &ReviewDTO{
		ID:           r.ID,
		RestaurantID: r.RestaurantID,
		UserID:       r.UserID,
		Rating:       r.Rating,
		Sentiment:    r.Sentiment,
		Comment:      r.Comment,
		CreatedAt:    r.CreatedAt,
	}
}

func voteFromModel(v *models.ReviewVote) *VoteDTO {
	if v == nil {
		return nil
	}
	return &VoteDTO{
		ReviewID: v.ReviewID,
		UserID:   v.UserID,
		Value:    v.Value,
	}
}
