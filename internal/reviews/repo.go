package reviews

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/platefinderz-backend/internal/restaurants"
	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

// Repository handles review and vote persistence. The aggregate-touching
// writes run the review mutation and the restaurant mean recompute in one
// transaction so the denormalized columns never drift from the review set.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to review operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithAggregate inserts the review and recomputes the restaurant's
// means in the same transaction.
func (r *Repository) CreateWithAggregate(ctx context.Context, review *models.Review) error {
	if review == nil {
		return fmt.Errorf("review is required")
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(review).Error; err != nil {
			return err
		}
		return restaurants.UpdateRatingAggregatesWithTx(tx, review.RestaurantID)
	})
}

// DeleteWithAggregate removes the review (votes cascade) and recomputes the
// restaurant's means in the same transaction.
func (r *Repository) DeleteWithAggregate(ctx context.Context, reviewID, restaurantID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.ReviewVote{}, "review_id = ?", reviewID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Review{}, "id = ?", reviewID).Error; err != nil {
			return err
		}
		return restaurants.UpdateRatingAggregatesWithTx(tx, restaurantID)
	})
}

// FindByID loads a review by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByRestaurant returns a page of reviews, newest first.
func (r *Repository) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) ([]models.Review, error) {
	params = pagination.Normalize(params)
	var list []models.Review
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC").
		Limit(params.Limit).
		Offset(params.Offset).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

// UpsertVote records value for (review, user), overwriting any prior vote.
func (r *Repository) UpsertVote(ctx context.Context, vote *models.ReviewVote) error {
	if vote == nil {
		return fmt.Errorf("vote is required")
	}
	if vote.ID == uuid.Nil {
		vote.ID = uuid.New()
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(vote).Error
}

// DeleteVote removes the (review, user) row if present. Deleting an absent
// vote is a no-op, which makes a zero vote idempotent.
func (r *Repository) DeleteVote(ctx context.Context, reviewID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.ReviewVote{}, "review_id = ? AND user_id = ?", reviewID, userID).Error
}

// GetVote loads one user's vote. Returns gorm.ErrRecordNotFound when absent.
func (r *Repository) GetVote(ctx context.Context, reviewID, userID uuid.UUID) (*models.ReviewVote, error) {
	var vote models.ReviewVote
	err := r.db.WithContext(ctx).
		Where("review_id = ? AND user_id = ?", reviewID, userID).
		First(&vote).Error
	if err != nil {
		return nil, err
	}
	return &vote, nil
}

// Tally scans the vote rows for a review.
func (r *Repository) Tally(ctx context.Context, reviewID uuid.UUID) (TallyDTO, error) {
	type counts struct {
		Up   int64
		Down int64
	}
	var c counts
	err := r.db.WithContext(ctx).Model(&models.ReviewVote{}).
		Select("COALESCE(SUM(CASE WHEN value = 1 THEN 1 ELSE 0 END), 0) AS up, COALESCE(SUM(CASE WHEN value = -1 THEN 1 ELSE 0 END), 0) AS down").
		Where("review_id = ?", reviewID).
		Scan(&c).Error
	if err != nil {
		return TallyDTO{}, err
	}
	return TallyDTO{Up: c.Up, Down: c.Down, Score: c.Up - c.Down}, nil
}
