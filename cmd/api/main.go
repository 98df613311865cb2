package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/platefinderz-backend/api/routes"
	"github.com/angelmondragon/platefinderz-backend/internal/auth"
	"github.com/angelmondragon/platefinderz-backend/internal/restaurants"
	"github.com/angelmondragon/platefinderz-backend/internal/reviews"
	"github.com/angelmondragon/platefinderz-backend/internal/users"
	"github.com/angelmondragon/platefinderz-backend/pkg/cache"
	"github.com/angelmondragon/platefinderz-backend/pkg/config"
	"github.com/angelmondragon/platefinderz-backend/pkg/db"
	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
	"github.com/angelmondragon/platefinderz-backend/pkg/metrics"
	"github.com/angelmondragon/platefinderz-backend/pkg/migrate"
	"github.com/angelmondragon/platefinderz-backend/pkg/redis"
	"github.com/angelmondragon/platefinderz-backend/pkg/sentiment"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	cacheStore := cache.New(redisClient, logg, metrics.NewCacheMetrics(registry))

	userRepo := users.NewRepository(dbClient.DB())
	restaurantRepo := restaurants.NewRepository(dbClient.DB())
	reviewRepo := reviews.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	restaurantService, err := restaurants.NewService(restaurants.ServiceParams{
		Repo:        restaurantRepo,
		Cache:       cacheStore,
		Keys:        redisClient,
		CacheConfig: cfg.Cache,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create restaurant service", err)
		os.Exit(1)
	}

	reviewService, err := reviews.NewService(reviews.ServiceParams{
		Repo:        reviewRepo,
		Restaurants: restaurantRepo,
		Scorer:      sentiment.New(cfg.Sentiment),
		Cache:       cacheStore,
		Keys:        redisClient,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			registry,
			userRepo,
			authService,
			restaurantService,
			reviewService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
