package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/platefinderz-backend/api/responses"
	"github.com/angelmondragon/platefinderz-backend/pkg/config"
	"github.com/angelmondragon/platefinderz-backend/pkg/logger"
)

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlateFinderz-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports per-dependency readiness. The API serves reads without
// Redis, so a cache failure degrades the report instead of failing it.
func HealthReady(cfg *config.Config, logg *logger.Logger, db pinger, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PlateFinderz-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true

		if db == nil {
			checks["postgres"] = "not configured"
			ready = false
		} else if err := db.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		} else {
			checks["postgres"] = "ok"
		}

		if cache == nil {
			checks["redis"] = "not configured"
		} else if err := cache.Ping(ctx); err != nil {
			checks["redis"] = "degraded: " + err.Error()
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "dependency", "redis"), "health.redis_degraded")
			}
		} else {
			checks["redis"] = "ok"
		}

		status := http.StatusOK
		payload := map[string]any{"status": "ready", "checks": checks}
		if !ready {
			status = http.StatusServiceUnavailable
			payload["status"] = "not_ready"
		}
		responses.WriteSuccessStatus(w, status, payload)
	}
}
