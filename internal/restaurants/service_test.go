package restaurants

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platefinderz-backend/pkg/config"
	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platefinderz-backend/pkg/errors"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

type stubRepo struct {
	byID     map[uuid.UUID]*models.Restaurant
	topCalls int
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: make(map[uuid.UUID]*models.Restaurant)}
}

func (r *stubRepo) Create(ctx context.Context, restaurant *models.Restaurant) error {
	if restaurant.ID == uuid.Nil {
		restaurant.ID = uuid.New()
	}
	copied := *restaurant
	r.byID[restaurant.ID] = &copied
	return nil
}

func (r *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *restaurant
	return &copied, nil
}

func (r *stubRepo) List(ctx context.Context, params pagination.Params) ([]models.Restaurant, error) {
	var list []models.Restaurant
	for _, restaurant := range r.byID {
		list = append(list, *restaurant)
	}
	return list, nil
}

func (r *stubRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error) {
	var list []models.Restaurant
	for _, restaurant := range r.byID {
		if restaurant.OwnerID == ownerID {
			list = append(list, *restaurant)
		}
	}
	return list, nil
}

func (r *stubRepo) Update(ctx context.Context, restaurant *models.Restaurant) error {
	copied := *restaurant
	r.byID[restaurant.ID] = &copied
	return nil
}

func (r *stubRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.byID, id)
	return nil
}

func (r *stubRepo) TopByRating(ctx context.Context, limit int) ([]models.Restaurant, error) {
	r.topCalls++
	var list []models.Restaurant
	for _, restaurant := range r.byID {
		if restaurant.AvgRating != nil {
			list = append(list, *restaurant)
		}
	}
	// Insertion-order independence doesn't matter for these tests; sort by rating.
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if *list[j].AvgRating > *list[i].AvgRating {
				list[i], list[j] = list[j], list[i]
			}
		}
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// stubCache is an in-memory cacheStore that records invalidations.
type stubCache struct {
	data        map[string]string
	invalidated []string
	patterns    []string
	failWrites  bool
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string]string)}
}

func (c *stubCache) GetJSON(ctx context.Context, key string, dest any) bool {
	payload, ok := c.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(payload), dest) == nil
}

func (c *stubCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.data[key] = string(payload)
}

func (c *stubCache) Invalidate(ctx context.Context, keys ...string) error {
	if c.failWrites {
		return errors.New("connection refused")
	}
	for _, key := range keys {
		delete(c.data, key)
		c.invalidated = append(c.invalidated, key)
	}
	return nil
}

func (c *stubCache) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.failWrites {
		return errors.New("connection refused")
	}
	c.patterns = append(c.patterns, pattern)
	for key := range c.data {
		if len(key) >= 18 && key[:18] == "cache:leaderboard:" {
			delete(c.data, key)
		}
	}
	return nil
}

type stubKeys struct{}

func (stubKeys) LeaderboardKey(count int) string { return "cache:leaderboard:" + strconv.Itoa(count) }
func (stubKeys) LeaderboardPattern() string      { return "cache:leaderboard:*" }
func (stubKeys) RestaurantKey(id string) string  { return "cache:restaurant:" + id }

func newTestService(t *testing.T, repo *stubRepo, cache *stubCache) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:  repo,
		Cache: cache,
		Keys:  stubKeys{},
		CacheConfig: config.CacheConfig{
			LeaderboardTTL: time.Minute,
			RestaurantTTL:  time.Minute,
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func seed(repo *stubRepo, name string, avg *float64) *models.Restaurant {
	restaurant := &models.Restaurant{
		ID:        uuid.New(),
		OwnerID:   uuid.New(),
		Name:      name,
		Location:  "Downtown",
		AvgRating: avg,
	}
	repo.byID[restaurant.ID] = restaurant
	return restaurant
}

func rating(v float64) *float64 { return &v }

func TestCreateRequiresOwnerRole(t *testing.T) {
	svc := newTestService(t, newStubRepo(), newStubCache())
	_, err := svc.Create(context.Background(), uuid.New(), enums.UserRoleUser, CreateRestaurantInput{
		Name:     "Luigi's",
		Location: "Downtown",
	})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCreateAndDetail(t *testing.T) {
	repo := newStubRepo()
	cache := newStubCache()
	svc := newTestService(t, repo, cache)
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.Create(ctx, owner, enums.UserRoleOwner, CreateRestaurantInput{
		Name:     " Luigi's ",
		Location: "Downtown",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Luigi's" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}

	// First read misses and populates; second read is served from cache.
	detail, cached, err := svc.Detail(ctx, created.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if cached {
		t.Fatal("first read should miss")
	}
	if detail.Name != "Luigi's" {
		t.Fatalf("unexpected detail %+v", detail)
	}

	again, cached, err := svc.Detail(ctx, created.ID)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if !cached {
		t.Fatal("second read should hit the cache")
	}
	if again.ID != created.ID {
		t.Fatal("cached payload mismatch")
	}
}

func TestDetailNotFound(t *testing.T) {
	svc := newTestService(t, newStubRepo(), newStubCache())
	_, _, err := svc.Detail(context.Background(), uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateOwnershipChecks(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(t, repo, newStubCache())
	ctx := context.Background()

	restaurant := seed(repo, "Luigi's", nil)
	newName := "Mario's"

	// A stranger cannot mutate the row.
	_, err := svc.Update(ctx, uuid.New(), enums.UserRoleOwner, restaurant.ID, UpdateRestaurantInput{Name: &newName})
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}

	// The owner can.
	updated, err := svc.Update(ctx, restaurant.OwnerID, enums.UserRoleOwner, restaurant.ID, UpdateRestaurantInput{Name: &newName})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Name != "Mario's" {
		t.Fatalf("unexpected name %q", updated.Name)
	}

	// So can an admin who owns nothing.
	desc := "Under new management"
	if _, err := svc.Update(ctx, uuid.New(), enums.UserRoleAdmin, restaurant.ID, UpdateRestaurantInput{Description: &desc}); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestMutationsInvalidateLeaderboardAndDetail(t *testing.T) {
	repo := newStubRepo()
	cache := newStubCache()
	svc := newTestService(t, repo, cache)
	ctx := context.Background()

	restaurant := seed(repo, "Luigi's", rating(4.5))

	// Warm both caches.
	if _, _, err := svc.Top(ctx, 3); err != nil {
		t.Fatalf("top: %v", err)
	}
	if _, _, err := svc.Detail(ctx, restaurant.ID); err != nil {
		t.Fatalf("detail: %v", err)
	}

	name := "Renamed"
	if _, err := svc.Update(ctx, restaurant.OwnerID, enums.UserRoleOwner, restaurant.ID, UpdateRestaurantInput{Name: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}

	if len(cache.patterns) == 0 || cache.patterns[len(cache.patterns)-1] != "cache:leaderboard:*" {
		t.Fatalf("leaderboard pattern not invalidated: %v", cache.patterns)
	}
	found := false
	for _, key := range cache.invalidated {
		if key == "cache:restaurant:"+restaurant.ID.String() {
			found = true
		}
	}
	if !found {
		t.Fatalf("detail key not invalidated: %v", cache.invalidated)
	}
}

func TestInvalidationFailureDoesNotFailMutation(t *testing.T) {
	repo := newStubRepo()
	cache := newStubCache()
	svc := newTestService(t, repo, cache)
	ctx := context.Background()

	restaurant := seed(repo, "Luigi's", nil)
	cache.failWrites = true

	name := "Still works"
	if _, err := svc.Update(ctx, restaurant.OwnerID, enums.UserRoleOwner, restaurant.ID, UpdateRestaurantInput{Name: &name}); err != nil {
		t.Fatalf("mutation must survive cache outage: %v", err)
	}
}

func TestTopCacheAside(t *testing.T) {
	repo := newStubRepo()
	cache := newStubCache()
	svc := newTestService(t, repo, cache)
	ctx := context.Background()

	seed(repo, "Best", rating(4.9))
	seed(repo, "Good", rating(4.1))
	seed(repo, "Unrated", nil)

	top, cached, err := svc.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if cached {
		t.Fatal("first leaderboard read should miss")
	}
	if len(top) != 2 || top[0].Name != "Best" || top[0].Rank != 1 || top[1].Rank != 2 {
		t.Fatalf("unexpected leaderboard %+v", top)
	}

	again, cached, err := svc.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if !cached {
		t.Fatal("second leaderboard read should hit")
	}
	if len(again) != 2 {
		t.Fatalf("unexpected cached leaderboard %+v", again)
	}
	if repo.topCalls != 1 {
		t.Fatalf("expected a single repo query, got %d", repo.topCalls)
	}
}

func TestTopRejectsNonPositiveCount(t *testing.T) {
	svc := newTestService(t, newStubRepo(), newStubCache())
	_, _, err := svc.Top(context.Background(), 0)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
