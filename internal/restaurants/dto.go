package restaurants

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
)

// RestaurantDTO is the transport shape for a restaurant listing.
type RestaurantDTO struct {
	ID           uuid.UUID `json:"id"`
	OwnerID      uuid.UUID `json:"owner_id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	Description  string    `json:"description"`
	AvgRating    *float64  `json:"avg_rating"`
	AvgSentiment *float64  `json:"avg_sentiment"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateRestaurantInput captures the payload for creating a listing.
type CreateRestaurantInput struct {
	Name        string `json:"name" validate:"required"`
	Location    string `json:"location" validate:"required"`
	Description string `json:"description"`
}

// UpdateRestaurantInput captures the allowed fields for mutation. Nil means
// leave the field untouched.
type UpdateRestaurantInput struct {
	Name        *string `json:"name,omitempty"`
	Location    *string `json:"location,omitempty"`
	Description *string `json:"description,omitempty"`
}

// RankedRestaurantDTO is a leaderboard row.
type RankedRestaurantDTO struct {
	Rank int `json:"rank"`
	RestaurantDTO
}

func FromModel(r *models.Restaurant) *RestaurantDTO {
	if r == nil {
		return nil
	}
	return &RestaurantDTO{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		Name:         r.Name,
		Location:     r.Location,
		Description:  r.Description,
		AvgRating:    r.AvgRating,
		AvgSentiment: r.AvgSentiment,
		CreatedAt:    r.CreatedAt,
	}
}

func FromModels(list []models.Restaurant) []RestaurantDTO {
	out := make([]RestaurantDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}
