package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/platefinderz-backend/internal/restaurants"
	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

func setupReviewsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{`
CREATE TABLE IF NOT EXISTS restaurants (
  id TEXT PRIMARY KEY,
  owner_id TEXT NOT NULL,
  name TEXT NOT NULL,
  location TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  avg_rating REAL,
  avg_sentiment REAL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS reviews (
  id TEXT PRIMARY KEY,
  restaurant_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  rating INTEGER NOT NULL,
  sentiment REAL NOT NULL DEFAULT 0,
  comment TEXT NOT NULL DEFAULT '',
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS review_votes (
  id TEXT PRIMARY KEY,
  review_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  value INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_review_votes_review_user ON review_votes (review_id, user_id);`}
	for _, schema := range schemas {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

func seedRestaurantRow(t *testing.T, db *gorm.DB) *models.Restaurant {
	t.Helper()
	restaurant := &models.Restaurant{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Name:     "Luigi's",
		Location: "Downtown",
	}
	require.NoError(t, db.Create(restaurant).Error)
	return restaurant
}

func addReview(t *testing.T, repo *Repository, restaurantID uuid.UUID, rating int, sentiment float64) *models.Review {
	t.Helper()
	review := &models.Review{
		RestaurantID: restaurantID,
		UserID:       uuid.New(),
		Rating:       rating,
		Sentiment:    sentiment,
	}
	require.NoError(t, repo.CreateWithAggregate(context.Background(), review))
	return review
}

func loadRestaurant(t *testing.T, db *gorm.DB, id uuid.UUID) *models.Restaurant {
	t.Helper()
	var restaurant models.Restaurant
	require.NoError(t, db.First(&restaurant, "id = ?", id).Error)
	return &restaurant
}

func TestCreateWithAggregateRecomputesMean(t *testing.T) {
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	addReview(t, repo, restaurant.ID, 3, 0.1)
	addReview(t, repo, restaurant.ID, 4, 0.3)

	loaded := loadRestaurant(t, db, restaurant.ID)
	require.NotNil(t, loaded.AvgRating)
	assert.InDelta(t, 3.5, *loaded.AvgRating, 1e-9)

	// Adding a 5 to ratings [3, 4] lands the mean on 4.0 exactly.
	addReview(t, repo, restaurant.ID, 5, 0.5)
	loaded = loadRestaurant(t, db, restaurant.ID)
	require.NotNil(t, loaded.AvgRating)
	assert.InDelta(t, 4.0, *loaded.AvgRating, 1e-9)
	require.NotNil(t, loaded.AvgSentiment)
	assert.InDelta(t, 0.3, *loaded.AvgSentiment, 1e-9)
}

func TestDeleteWithAggregate(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	first := addReview(t, repo, restaurant.ID, 2, 0)
	addReview(t, repo, restaurant.ID, 4, 0)

	require.NoError(t, repo.DeleteWithAggregate(ctx, first.ID, restaurant.ID))
	loaded := loadRestaurant(t, db, restaurant.ID)
	require.NotNil(t, loaded.AvgRating)
	assert.InDelta(t, 4.0, *loaded.AvgRating, 1e-9)

	// Deleting the last review resets the aggregates to NULL.
	var remaining []models.Review
	require.NoError(t, db.Find(&remaining, "restaurant_id = ?", restaurant.ID).Error)
	require.Len(t, remaining, 1)
	require.NoError(t, repo.DeleteWithAggregate(ctx, remaining[0].ID, restaurant.ID))

	loaded = loadRestaurant(t, db, restaurant.ID)
	assert.Nil(t, loaded.AvgRating)
	assert.Nil(t, loaded.AvgSentiment)
}

func TestDeleteWithAggregateRemovesVotes(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	review := addReview(t, repo, restaurant.ID, 4, 0)
	require.NoError(t, repo.UpsertVote(ctx, &models.ReviewVote{
		ReviewID: review.ID,
		UserID:   uuid.New(),
		Value:    1,
	}))

	require.NoError(t, repo.DeleteWithAggregate(ctx, review.ID, restaurant.ID))

	var votes []models.ReviewVote
	require.NoError(t, db.Find(&votes, "review_id = ?", review.ID).Error)
	assert.Empty(t, votes)
}

func TestUpsertVoteOverwrites(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	review := addReview(t, repo, restaurant.ID, 4, 0)
	voter := uuid.New()

	require.NoError(t, repo.UpsertVote(ctx, &models.ReviewVote{ReviewID: review.ID, UserID: voter, Value: 1}))
	require.NoError(t, repo.UpsertVote(ctx, &models.ReviewVote{ReviewID: review.ID, UserID: voter, Value: -1}))

	vote, err := repo.GetVote(ctx, review.ID, voter)
	require.NoError(t, err)
	assert.Equal(t, -1, vote.Value)

	var count int64
	require.NoError(t, db.Model(&models.ReviewVote{}).Where("review_id = ?", review.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteVoteIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	review := addReview(t, repo, restaurant.ID, 4, 0)
	voter := uuid.New()

	require.NoError(t, repo.UpsertVote(ctx, &models.ReviewVote{ReviewID: review.ID, UserID: voter, Value: 1}))
	require.NoError(t, repo.DeleteVote(ctx, review.ID, voter))

	_, err := repo.GetVote(ctx, review.ID, voter)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// Withdrawing again leaves no row and no error.
	require.NoError(t, repo.DeleteVote(ctx, review.ID, voter))
}

func TestTally(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	review := addReview(t, repo, restaurant.ID, 4, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.UpsertVote(ctx, &models.ReviewVote{ReviewID: review.ID, UserID: uuid.New(), Value: 1}))
	}
	require.NoError(t, repo.UpsertVote(ctx, &models.ReviewVote{ReviewID: review.ID, UserID: uuid.New(), Value: -1}))

	tally, err := repo.Tally(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, TallyDTO{Up: 3, Down: 1, Score: 2}, tally)

	empty, err := repo.Tally(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, TallyDTO{}, empty)
}

func TestListByRestaurantPagination(t *testing.T) {
	ctx := context.Background()
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	for i := 0; i < 5; i++ {
		addReview(t, repo, restaurant.ID, 3, 0)
	}

	page, err := repo.ListByRestaurant(ctx, restaurant.ID, pagination.Params{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := repo.ListByRestaurant(ctx, restaurant.ID, pagination.Params{Limit: 3, Offset: 3})
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}

// Guard against accidental cross-package drift: the aggregate helper used by
// this repo must behave for restaurants too.
func TestAggregateHelperSharedWithRestaurants(t *testing.T) {
	db := setupReviewsTestDB(t)
	repo := NewRepository(db)
	restaurant := seedRestaurantRow(t, db)

	addReview(t, repo, restaurant.ID, 5, 1.0)
	require.NoError(t, restaurants.UpdateRatingAggregatesWithTx(db, restaurant.ID))

	loaded := loadRestaurant(t, db, restaurant.ID)
	require.NotNil(t, loaded.AvgRating)
	assert.InDelta(t, 5.0, *loaded.AvgRating, 1e-9)
}
