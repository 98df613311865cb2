package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platefinderz-backend/pkg/errors"
	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

type reviewRepository interface {
	CreateWithAggregate(ctx context.Context, review *models.Review) error
	DeleteWithAggregate(ctx context.Context, reviewID, restaurantID uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) ([]models.Review, error)
	UpsertVote(ctx context.Context, vote *models.ReviewVote) error
	DeleteVote(ctx context.Context, reviewID, userID uuid.UUID) error
	GetVote(ctx context.Context, reviewID, userID uuid.UUID) (*models.ReviewVote, error)
	Tally(ctx context.Context, reviewID uuid.UUID) (TallyDTO, error)
}

type restaurantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
}

type sentimentScorer interface {
	Enabled() bool
	Score(ctx context.Context, text string) (float64, error)
}

type cacheStore interface {
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

type cacheKeys interface {
	LeaderboardPattern() string
	RestaurantKey(restaurantID string) string
}

// Service exposes review and vote operations.
type Service interface {
	Add(ctx context.Context, userID, restaurantID uuid.UUID, input AddReviewInput) (*ReviewDTO, error)
	Delete(ctx context.Context, actorID uuid.UUID, role enums.UserRole, restaurantID, reviewID uuid.UUID) error
	List(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) ([]ReviewWithTallyDTO, error)
	Vote(ctx context.Context, restaurantID, reviewID, voterID uuid.UUID, value int) (*VoteDTO, error)
	GetVote(ctx context.Context, restaurantID, reviewID, userID uuid.UUID) (*VoteDTO, error)
}

type service struct {
	repo        reviewRepository
	restaurants restaurantFinder
	scorer      sentimentScorer
	cache       cacheStore
	keys        cacheKeys
	log         *logger.Logger
}

// ServiceParams bundles the dependencies for the review service.
type ServiceParams struct {
	Repo        reviewRepository
	Restaurants restaurantFinder
	Scorer      sentimentScorer
	Cache       cacheStore
	Keys        cacheKeys
	Logger      *logger.Logger
}

// NewService builds a review service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "review repository required")
	}
	if params.Restaurants == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "restaurant finder required")
	}
	if params.Cache == nil || params.Keys == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cache required")
	}
	return &service{
		repo:        params.Repo,
		restaurants: params.Restaurants,
		scorer:      params.Scorer,
		cache:       params.Cache,
		keys:        params.Keys,
		log:         params.Logger,
	}, nil
}

// Add posts a review. The insert and the restaurant mean recompute commit in
// one transaction; cache invalidation runs after the commit, best-effort.
func (s *service) Add(ctx context.Context, userID, restaurantID uuid.UUID, input AddReviewInput) (*ReviewDTO, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	if _, err := s.restaurants.FindByID(ctx, restaurantID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}

	review := &models.Review{
		RestaurantID: restaurantID,
		UserID:       userID,
		Rating:       input.Rating,
		Comment:      strings.TrimSpace(input.Comment),
		Sentiment:    s.scoreSentiment(ctx, input.Comment),
	}

	if err := s.repo.CreateWithAggregate(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}

	s.invalidateFor(ctx, restaurantID)
	return FromModel(review), nil
}

// Delete removes a review. Only its author or an admin may do so.
func (s *service) Delete(ctx context.Context, actorID uuid.UUID, role enums.UserRole, restaurantID, reviewID uuid.UUID) error {
	review, err := s.loadReview(ctx, restaurantID, reviewID)
	if err != nil {
		return err
	}
	if review.UserID != actorID && role != enums.UserRoleAdmin {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not the review author")
	}

	if err := s.repo.DeleteWithAggregate(ctx, reviewID, restaurantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete review")
	}

	s.invalidateFor(ctx, restaurantID)
	return nil
}

func (s *service) List(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) ([]ReviewWithTallyDTO, error) {
	list, err := s.repo.ListByRestaurant(ctx, restaurantID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	out := make([]ReviewWithTallyDTO, 0, len(list))
	for i := range list {
		tally, err := s.repo.Tally(ctx, list[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "tally votes")
		}
		out = append(out, ReviewWithTallyDTO{
			ReviewDTO: *FromModel(&list[i]),
			Votes:     tally,
		})
	}
	return out, nil
}

// Vote applies the voter's stance on a review: +1 or -1 upserts the single
// (review, user) row, 0 withdraws it, anything else is rejected untouched.
// Authors cannot vote on their own reviews.
func (s *service) Vote(ctx context.Context, restaurantID, reviewID, voterID uuid.UUID, value int) (*VoteDTO, error) {
	review, err := s.loadReview(ctx, restaurantID, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID == voterID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cannot vote on your own review")
	}

	switch value {
	case 0:
		if err := s.repo.DeleteVote(ctx, reviewID, voterID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "withdraw vote")
		}
		return nil, nil
	case 1, -1:
		vote := &models.ReviewVote{
			ReviewID: reviewID,
			UserID:   voterID,
			Value:    value,
		}
		if err := s.repo.UpsertVote(ctx, vote); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record vote")
		}
		return voteFromModel(vote), nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vote value must be -1, 0 or 1")
	}
}

// GetVote returns the caller's current vote, or nil when none exists.
func (s *service) GetVote(ctx context.Context, restaurantID, reviewID, userID uuid.UUID) (*VoteDTO, error) {
	if _, err := s.loadReview(ctx, restaurantID, reviewID); err != nil {
		return nil, err
	}

	vote, err := s.repo.GetVote(ctx, reviewID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vote")
	}
	return voteFromModel(vote), nil
}

func (s *service) loadReview(ctx context.Context, restaurantID, reviewID uuid.UUID) (*models.Review, error) {
	review, err := s.repo.FindByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load review")
	}
	if review.RestaurantID != restaurantID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "review not found")
	}
	return review, nil
}

// scoreSentiment asks the external scorer and degrades to 0 on any failure.
func (s *service) scoreSentiment(ctx context.Context, comment string) float64 {
	if s.scorer == nil || !s.scorer.Enabled() || strings.TrimSpace(comment) == "" {
		return 0
	}

	scoreCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	score, err := s.scorer.Score(scoreCtx, comment)
	if err != nil {
		if s.log != nil {
			s.log.Warn(ctx, "sentiment scorer unavailable, storing neutral score: "+err.Error())
		}
		return 0
	}
	return score
}

func (s *service) invalidateFor(ctx context.Context, restaurantID uuid.UUID) {
	if err := s.cache.InvalidatePattern(ctx, s.keys.LeaderboardPattern()); err != nil && s.log != nil {
		s.log.Warn(ctx, "leaderboard invalidation failed: "+err.Error())
	}
	if err := s.cache.Invalidate(ctx, s.keys.RestaurantKey(restaurantID.String())); err != nil && s.log != nil {
		s.log.Warn(ctx, "restaurant detail invalidation failed: "+err.Error())
	}
}
