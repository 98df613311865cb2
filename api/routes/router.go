package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/platefinderz-backend/api/controllers"
	"github.com/angelmondragon/platefinderz-backend/api/middleware"
	"github.com/angelmondragon/platefinderz-backend/internal/auth"
	"github.com/angelmondragon/platefinderz-backend/internal/restaurants"
	"github.com/angelmondragon/platefinderz-backend/internal/reviews"
	"github.com/angelmondragon/platefinderz-backend/internal/users"
	"github.com/angelmondragon/platefinderz-backend/pkg/config"
	"github.com/angelmondragon/platefinderz-backend/pkg/db"
	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
	"github.com/angelmondragon/platefinderz-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	userRepo *users.Repository,
	authService auth.Service,
	restaurantService restaurants.Service,
	reviewService reviews.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	signupPolicy := middleware.NewAuthRateLimitPolicy(
		"signup",
		cfg.AuthRateLimit.SignupWindow,
		cfg.AuthRateLimit.SignupIPLimit,
		cfg.AuthRateLimit.SignupEmailLimit,
	)

	requireAuth := middleware.Auth(cfg.JWT, userRepo, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(signupPolicy, redisClient, logg)).Post("/signup", controllers.AuthSignup(authService, cfg.App, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, cfg.App, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", controllers.AuthLogout(authService, cfg.App, logg))
			r.Post("/logout-all", controllers.AuthLogoutAll(authService, cfg.App, logg))
			r.Get("/profile", controllers.AuthProfile(authService, logg))
		})
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(requireAuth, middleware.RequireRole(logg, "admin"))
		r.Get("/", controllers.UsersList(userRepo, logg))
		r.Get("/{id}", controllers.UserGet(userRepo, logg))
	})

	r.Route("/api/v1/restaurants", func(r chi.Router) {
		r.Get("/", controllers.RestaurantList(restaurantService, logg))
		r.Get("/top/{count}", controllers.RestaurantTop(restaurantService, logg))
		r.Get("/{id}", controllers.RestaurantDetail(restaurantService, logg))
		r.Get("/{id}/reviews", controllers.ReviewList(reviewService, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.With(middleware.RequireRole(logg, "owner", "admin")).Post("/", controllers.RestaurantCreate(restaurantService, logg))
			r.With(middleware.RequireRole(logg, "owner", "admin")).Get("/mine", controllers.RestaurantMine(restaurantService, logg))
			r.Put("/{id}", controllers.RestaurantUpdate(restaurantService, logg))
			r.Delete("/{id}", controllers.RestaurantDelete(restaurantService, logg))

			r.Post("/{id}/reviews", controllers.ReviewAdd(reviewService, logg))
			r.Delete("/{id}/reviews/{reviewId}", controllers.ReviewDelete(reviewService, logg))
			r.Post("/{id}/reviews/{reviewId}/vote", controllers.VoteCast(reviewService, logg))
			r.Get("/{id}/reviews/{reviewId}/vote", controllers.VoteGet(reviewService, logg))
		})
	})

	return r
}
