package restaurants

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/platefinderz-backend/pkg/config"
	"github.com/angelmondragon/platefinderz-backend/pkg/db/models"
	"github.com/angelmondragon/platefinderz-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/platefinderz-backend/pkg/errors"
	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
	"github.com/angelmondragon/platefinderz-backend/pkg/pagination"
)

type restaurantRepository interface {
	Create(ctx context.Context, restaurant *models.Restaurant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Restaurant, error)
	List(ctx context.Context, params pagination.Params) ([]models.Restaurant, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Restaurant, error)
	Update(ctx context.Context, restaurant *models.Restaurant) error
	Delete(ctx context.Context, id uuid.UUID) error
	TopByRating(ctx context.Context, limit int) ([]models.Restaurant, error)
}

type cacheStore interface {
	GetJSON(ctx context.Context, key string, dest any) bool
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration)
	Invalidate(ctx context.Context, keys ...string) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

type cacheKeys interface {
	LeaderboardKey(count int) string
	LeaderboardPattern() string
	RestaurantKey(restaurantID string) string
}

// Service exposes restaurant operations.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, role enums.UserRole, input CreateRestaurantInput) (*RestaurantDTO, error)
	Detail(ctx context.Context, id uuid.UUID) (*RestaurantDTO, bool, error)
	List(ctx context.Context, params pagination.Params) ([]RestaurantDTO, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]RestaurantDTO, error)
	Update(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID, input UpdateRestaurantInput) (*RestaurantDTO, error)
	Delete(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) error
	Top(ctx context.Context, count int) ([]RankedRestaurantDTO, bool, error)
}

type service struct {
	repo     restaurantRepository
	cache    cacheStore
	keys     cacheKeys
	cacheCfg config.CacheConfig
	log      *logger.Logger
}

// ServiceParams bundles the dependencies for the restaurant service.
type ServiceParams struct {
	Repo        restaurantRepository
	Cache       cacheStore
	Keys        cacheKeys
	CacheConfig config.CacheConfig
	Logger      *logger.Logger
}

// NewService builds a restaurant service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "restaurant repository required")
	}
	if params.Cache == nil || params.Keys == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cache required")
	}
	return &service{
		repo:     params.Repo,
		cache:    params.Cache,
		keys:     params.Keys,
		cacheCfg: params.CacheConfig,
		log:      params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, role enums.UserRole, input CreateRestaurantInput) (*RestaurantDTO, error) {
	if role != enums.UserRoleOwner && role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only owners can create restaurants")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	restaurant := &models.Restaurant{
		OwnerID:     actorID,
		Name:        name,
		Location:    strings.TrimSpace(input.Location),
		Description: strings.TrimSpace(input.Description),
	}
	if err := s.repo.Create(ctx, restaurant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create restaurant")
	}

	s.invalidateFor(ctx, restaurant.ID)
	return FromModel(restaurant), nil
}

// Detail serves the restaurant read-through: cache hit short-circuits the
// database, anything else loads and repopulates.
func (s *service) Detail(ctx context.Context, id uuid.UUID) (*RestaurantDTO, bool, error) {
	key := s.keys.RestaurantKey(id.String())

	var cached RestaurantDTO
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, true, nil
	}

	restaurant, err := s.loadRestaurant(ctx, id)
	if err != nil {
		return nil, false, err
	}

	dto := FromModel(restaurant)
	s.cache.SetJSON(ctx, key, dto, s.cacheCfg.RestaurantTTL)
	return dto, false, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) ([]RestaurantDTO, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list restaurants")
	}
	return FromModels(list), nil
}

func (s *service) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]RestaurantDTO, error) {
	list, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list owner restaurants")
	}
	return FromModels(list), nil
}

func (s *service) Update(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID, input UpdateRestaurantInput) (*RestaurantDTO, error) {
	restaurant, err := s.loadRestaurant(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(restaurant, actorID, role); err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		restaurant.Name = name
	}
	if input.Location != nil {
		restaurant.Location = strings.TrimSpace(*input.Location)
	}
	if input.Description != nil {
		restaurant.Description = strings.TrimSpace(*input.Description)
	}

	if err := s.repo.Update(ctx, restaurant); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update restaurant")
	}

	s.invalidateFor(ctx, restaurant.ID)
	return FromModel(restaurant), nil
}

func (s *service) Delete(ctx context.Context, actorID uuid.UUID, role enums.UserRole, id uuid.UUID) error {
	restaurant, err := s.loadRestaurant(ctx, id)
	if err != nil {
		return err
	}
	if err := authorizeOwner(restaurant, actorID, role); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete restaurant")
	}

	s.invalidateFor(ctx, id)
	return nil
}

// Top serves the leaderboard read-through keyed by requested size.
func (s *service) Top(ctx context.Context, count int) ([]RankedRestaurantDTO, bool, error) {
	if count <= 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "count must be positive")
	}
	key := s.keys.LeaderboardKey(count)

	var cached []RankedRestaurantDTO
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, true, nil
	}

	list, err := s.repo.TopByRating(ctx, count)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load leaderboard")
	}

	ranked := make([]RankedRestaurantDTO, 0, len(list))
	for i := range list {
		ranked = append(ranked, RankedRestaurantDTO{
			Rank:          i + 1,
			RestaurantDTO: *FromModel(&list[i]),
		})
	}

	s.cache.SetJSON(ctx, key, ranked, s.cacheCfg.LeaderboardTTL)
	return ranked, false, nil
}

func (s *service) loadRestaurant(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	restaurant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	return restaurant, nil
}

// invalidateFor drops the cached leaderboards plus the point detail entry.
// Failures are logged and counted; they never fail the mutation that
// triggered them.
func (s *service) invalidateFor(ctx context.Context, id uuid.UUID) {
	if err := s.cache.InvalidatePattern(ctx, s.keys.LeaderboardPattern()); err != nil && s.log != nil {
		s.log.Warn(ctx, "leaderboard invalidation failed: "+err.Error())
	}
	if err := s.cache.Invalidate(ctx, s.keys.RestaurantKey(id.String())); err != nil && s.log != nil {
		s.log.Warn(ctx, "restaurant detail invalidation failed: "+err.Error())
	}
}

func authorizeOwner(restaurant *models.Restaurant, actorID uuid.UUID, role enums.UserRole) error {
	if role == enums.UserRoleAdmin {
		return nil
	}
	if restaurant.OwnerID == actorID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "not the restaurant owner")
}
