package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics records hit/miss/degradation counters for the read-through cache.
type CacheMetrics struct {
	hits                 *prometheus.CounterVec
	misses               *prometheus.CounterVec
	degraded             *prometheus.CounterVec
	invalidationFailures *prometheus.CounterVec
}

// NewCacheMetrics registers the cache metrics on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Cache reads served from Redis.",
	}, []string{"key"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Cache reads that fell through to the primary store.",
	}, []string{"key"})
	degraded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_degraded_total",
		Help: "Cache operations that failed and were treated as misses.",
	}, []string{"key"})
	invalidationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_invalidation_failures_total",
		Help: "Cache invalidations that could not be applied.",
	}, []string{"key"})
	reg.MustRegister(hits, misses, degraded, invalidationFailures)
	return &CacheMetrics{
		hits:                 hits,
		misses:               misses,
		degraded:             degraded,
		invalidationFailures: invalidationFailures,
	}
}

// IncHit increments the hit counter for the given key label.
func (c *CacheMetrics) IncHit(key string) {
	if c == nil || c.hits == nil {
		return
	}
	c.hits.WithLabelValues(normalizeLabel(key)).Inc()
}

// IncMiss increments the miss counter for the given key label.
func (c *CacheMetrics) IncMiss(key string) {
	if c == nil || c.misses == nil {
		return
	}
	c.misses.WithLabelValues(normalizeLabel(key)).Inc()
}

// IncDegraded increments the degraded counter for the given key label.
func (c *CacheMetrics) IncDegraded(key string) {
	if c == nil || c.degraded == nil {
		return
	}
	c.degraded.WithLabelValues(normalizeLabel(key)).Inc()
}

// IncInvalidationFailure increments the invalidation failure counter for the
// given key or pattern label.
func (c *CacheMetrics) IncInvalidationFailure(key string) {
	if c == nil || c.invalidationFailures == nil {
		return
	}
	c.invalidationFailures.WithLabelValues(normalizeLabel(key)).Inc()
}

func normalizeLabel(key string) string {
	if key == "" {
		return "unknown"
	}
	return key
}
