package restaurants

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

// Repository handles restaurant persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to restaurant operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new restaurant row.
func (r *Repository) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if restaurant == nil {
		return fmt.Errorf("restaurant is required")
	}
	if restaurant.ID == uuid.Nil {
		restaurant.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(restaurant).Error
}

// FindByID loads a restaurant by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := r.db.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// List returns a page of restaurants ordered by creation time.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.Restaurant, error) {
	params = pagination.Normalize(params)
	var list []models.Restaurant
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListByOwner returns all restaurants owned by the provided user.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error) {
	var list []models.Restaurant
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Update saves the provided restaurant.
func (r *Repository) Update(ctx context.Context, restaurant *models.Restaurant) error {
	if restaurant == nil {
		return fmt.Errorf("restaurant is required")
	}
	return r.db.WithContext(ctx).Save(restaurant).Error
}

// Delete removes the restaurant row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Restaurant{}, "id = ?", id).Error
}

// TopByRating returns the best-rated restaurants. Unrated rows sort last.
func (r *Repository) TopByRating(ctx context.Context, limit int) ([]models.Restaurant, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	if limit > pagination.MaxLimit {
		limit = pagination.MaxLimit
	}
	var list []models.Restaurant
	err := r.db.WithContext(ctx).
		Where("avg_rating IS NOT NULL").
		Order("avg_rating DESC").
		Order("created_at ASC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpdateRatingAggregatesWithTx recomputes the restaurant's denormalized means
// from its current review set inside the caller's transaction. Zero reviews
// resets both aggregates to NULL.
func UpdateRatingAggregatesWithTx(tx *gorm.DB, restaurantID uuid.UUID) error {
	if tx == nil {
		return gorm.ErrInvalidTransaction
	}

	type aggregates struct {
		Count        int64
		AvgRating    float64
		AvgSentiment float64
	}
	var agg aggregates
	err := tx.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS avg_rating, COALESCE(AVG(sentiment), 0) AS avg_sentiment").
		Where("restaurant_id = ?", restaurantID).
		Scan(&agg).Error
	if err != nil {
		return err
	}

	updates := map[string]any{"avg_rating": nil, "avg_sentiment": nil}
	if agg.Count > 0 {
		updates["avg_rating"] = agg.AvgRating
		updates["avg_sentiment"] = agg.AvgSentiment
	}
	return tx.Model(&models.Restaurant{}).
		Where("id = ?", restaurantID).
		UpdateColumns(updates).Error
}
