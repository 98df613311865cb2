package reviews

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platefinderz-backend/pkg/errors"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

type voteKey struct {
	review uuid.UUID
	user   uuid.UUID
}

type stubReviewRepo struct {
	reviews map[uuid.UUID]*models.Review
	votes   map[voteKey]*models.ReviewVote
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{
		reviews: make(map[uuid.UUID]*models.Review),
		votes:   make(map[voteKey]*models.ReviewVote),
	}
}

func (r *stubReviewRepo) CreateWithAggregate(ctx context.Context, review *models.Review) error {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	copied := *review
	r.reviews[review.ID] = &copied
	return nil
}

func (r *stubReviewRepo) DeleteWithAggregate(ctx context.Context, reviewID, restaurantID uuid.UUID) error {
	delete(r.reviews, reviewID)
	for key := range r.votes {
		if key.review == reviewID {
			delete(r.votes, key)
		}
	}
	return nil
}

func (r *stubReviewRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	review, ok := r.reviews[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *review
	return &copied, nil
}

func (r *stubReviewRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, params pagination.Params) ([]models.Review, error) {
	var list []models.Review
	for _, review := range r.reviews {
		if review.RestaurantID == restaurantID {
			list = append(list, *review)
		}
	}
	return list, nil
}

func (r *stubReviewRepo) UpsertVote(ctx context.Context, vote *models.ReviewVote) error {
	copied := *vote
	r.votes[voteKey{review: vote.ReviewID, user: vote.UserID}] = &copied
	return nil
}

func (r *stubReviewRepo) DeleteVote(ctx context.Context, reviewID, userID uuid.UUID) error {
	delete(r.votes, voteKey{review: reviewID, user: userID})
	return nil
}

func (r *stubReviewRepo) GetVote(ctx context.Context, reviewID, userID uuid.UUID) (*models.ReviewVote, error) {
	vote, ok := r.votes[voteKey{review: reviewID, user: userID}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *vote
	return &copied, nil
}

func (r *stubReviewRepo) Tally(ctx context.Context, reviewID uuid.UUID) (TallyDTO, error) {
	tally := TallyDTO{}
	for key, vote := range r.votes {
		if key.review != reviewID {
			continue
		}
		if vote.Value > 0 {
			tally.Up++
		} else {
			tally.Down++
		}
	}
	tally.Score = tally.Up - tally.Down
	return tally, nil
}

type stubRestaurantFinder struct {
	known map[uuid.UUID]bool
}

func (f *stubRestaurantFinder) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	if !f.known[id] {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Restaurant{ID: id}, nil
}

type stubScorer struct {
	score float64
	err   error
	calls int
}

func (s *stubScorer) Enabled() bool { return true }

func (s *stubScorer) Score(ctx context.Context, text string) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}

type recordingCache struct {
	invalidated []string
	patterns    []string
}

func (c *recordingCache) Invalidate(ctx context.Context, keys ...string) error {
	c.invalidated = append(c.invalidated, keys...)
	return nil
}

func (c *recordingCache) InvalidatePattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

type stubKeys struct{}

func (stubKeys) LeaderboardPattern() string     { return "cache:leaderboard:*" }
func (stubKeys) RestaurantKey(id string) string { return "cache:restaurant:" + id }

type fixture struct {
	svc          Service
	repo         *stubReviewRepo
	cache        *recordingCache
	scorer       *stubScorer
	restaurantID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newStubReviewRepo()
	cache := &recordingCache{}
	scorer := &stubScorer{score: 0.7}
	restaurantID := uuid.New()

	svc, err := NewService(ServiceParams{
		Repo:        repo,
		Restaurants: &stubRestaurantFinder{known: map[uuid.UUID]bool{restaurantID: true}},
		Scorer:      scorer,
		Cache:       cache,
		Keys:        stubKeys{},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{svc: svc, repo: repo, cache: cache, scorer: scorer, restaurantID: restaurantID}
}

func TestAddReview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.svc.Add(ctx, uuid.New(), f.restaurantID, AddReviewInput{Rating: 4, Comment: "great tacos"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if review.Sentiment != 0.7 {
		t.Fatalf("expected scored sentiment, got %f", review.Sentiment)
	}
	if len(f.cache.patterns) != 1 || f.cache.patterns[0] != "cache:leaderboard:*" {
		t.Fatalf("leaderboard not invalidated: %v", f.cache.patterns)
	}
	if len(f.cache.invalidated) != 1 {
		t.Fatalf("detail key not invalidated: %v", f.cache.invalidated)
	}
}

func TestAddReviewRatingBounds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := f.svc.Add(ctx, uuid.New(), f.restaurantID, AddReviewInput{Rating: rating})
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rating %d: expected validation error, got %v", rating, err)
		}
	}
	if len(f.repo.reviews) != 0 {
		t.Fatal("invalid ratings must not persist")
	}
}

func TestAddReviewUnknownRestaurant(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Add(context.Background(), uuid.New(), uuid.New(), AddReviewInput{Rating: 3})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddReviewScorerFailureDegradesToZero(t *testing.T) {
	f := newFixture(t)
	f.scorer.err = errors.New("scorer down")

	review, err := f.svc.Add(context.Background(), uuid.New(), f.restaurantID, AddReviewInput{Rating: 5, Comment: "amazing"})
	if err != nil {
		t.Fatalf("scorer outage must not fail the write: %v", err)
	}
	if review.Sentiment != 0 {
		t.Fatalf("expected neutral sentiment, got %f", review.Sentiment)
	}
}

func TestDeleteReviewAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := uuid.New()

	review, err := f.svc.Add(ctx, author, f.restaurantID, AddReviewInput{Rating: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	err = f.svc.Delete(ctx, uuid.New(), enums.UserRoleUser, f.restaurantID, review.ID)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	if err := f.svc.Delete(ctx, author, enums.UserRoleUser, f.restaurantID, review.ID); err != nil {
		t.Fatalf("author delete: %v", err)
	}

	// Admins can delete someone else's review.
	other, err := f.svc.Add(ctx, author, f.restaurantID, AddReviewInput{Rating: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := f.svc.Delete(ctx, uuid.New(), enums.UserRoleAdmin, f.restaurantID, other.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestVoteStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := uuid.New()
	voter := uuid.New()

	review, err := f.svc.Add(ctx, author, f.restaurantID, AddReviewInput{Rating: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Upvote, flip, withdraw.
	vote, err := f.svc.Vote(ctx, f.restaurantID, review.ID, voter, 1)
	if err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if vote == nil || vote.Value != 1 {
		t.Fatalf("unexpected vote %+v", vote)
	}

	vote, err = f.svc.Vote(ctx, f.restaurantID, review.ID, voter, -1)
	if err != nil {
		t.Fatalf("flip: %v", err)
	}
	if vote.Value != -1 {
		t.Fatalf("unexpected vote %+v", vote)
	}

	withdrawn, err := f.svc.Vote(ctx, f.restaurantID, review.ID, voter, 0)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if withdrawn != nil {
		t.Fatalf("withdrawal should return no vote, got %+v", withdrawn)
	}

	// Upvote then withdraw leaves no row behind.
	if _, err := f.svc.Vote(ctx, f.restaurantID, review.ID, voter, 1); err != nil {
		t.Fatalf("upvote: %v", err)
	}
	if _, err := f.svc.Vote(ctx, f.restaurantID, review.ID, voter, 0); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if got, _ := f.svc.GetVote(ctx, f.restaurantID, review.ID, voter); got != nil {
		t.Fatalf("expected no vote, got %+v", got)
	}
}

func TestVoteSelfForbidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := uuid.New()

	review, err := f.svc.Add(ctx, author, f.restaurantID, AddReviewInput{Rating: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = f.svc.Vote(ctx, f.restaurantID, review.ID, author, 1)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if len(f.repo.votes) != 0 {
		t.Fatal("self-vote must not persist")
	}
}

func TestVoteInvalidValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.svc.Add(ctx, uuid.New(), f.restaurantID, AddReviewInput{Rating: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	voter := uuid.New()

	for _, value := range []int{2, -2, 100} {
		_, err := f.svc.Vote(ctx, f.restaurantID, review.ID, voter, value)
		if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("value %d: expected validation error, got %v", value, err)
		}
	}
	if len(f.repo.votes) != 0 {
		t.Fatal("invalid values must not change state")
	}
}

func TestVoteUnknownReview(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Vote(context.Background(), f.restaurantID, uuid.New(), uuid.New(), 1)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestVoteWrongRestaurantIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.svc.Add(ctx, uuid.New(), f.restaurantID, AddReviewInput{Rating: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err = f.svc.Vote(ctx, uuid.New(), review.ID, uuid.New(), 1)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for mismatched restaurant, got %v", err)
	}
}

func TestListIncludesTallies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	review, err := f.svc.Add(ctx, uuid.New(), f.restaurantID, AddReviewInput{Rating: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.svc.Vote(ctx, f.restaurantID, review.ID, uuid.New(), 1); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := f.svc.Vote(ctx, f.restaurantID, review.ID, uuid.New(), 1); err != nil {
		t.Fatalf("vote: %v", err)
	}
	if _, err := f.svc.Vote(ctx, f.restaurantID, review.ID, uuid.New(), -1); err != nil {
		t.Fatalf("vote: %v", err)
	}

	list, err := f.svc.List(ctx, f.restaurantID, pagination.Params{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one review, got %d", len(list))
	}
	if list[0].Votes != (TallyDTO{Up: 2, Down: 1, Score: 1}) {
		t.Fatalf("unexpected tally %+v", list[0].Votes)
	}
}
